package resolve

import (
	"context"

	"github.com/teranos/slideinspo/graph"
)

// DefaultMaxTurns is how much history a Conversation replays
const DefaultMaxTurns = 5

// Conversation resolves a series of follow-up messages, replaying recent
// turns so the model can refer back to earlier answers
type Conversation struct {
	resolver *Resolver
	context  graph.Context
	maxTurns int
	history  []Turn
}

// NewConversation starts an empty conversation over gc
func (r *Resolver) NewConversation(gc graph.Context, maxTurns int) *Conversation {
	return &Conversation{resolver: r, context: gc, maxTurns: maxTurns}
}

// Ask resolves message with the conversation history as prefix. Answered
// turns, found or not, join the history; failed calls do not.
func (c *Conversation) Ask(ctx context.Context, message string) Resolution {
	prompt := FormatChatPrompt(Request(message), c.history, c.maxTurns)
	res := c.resolver.ask(ctx, prompt, message, c.context)
	if res.Status != StatusFailed {
		c.history = append(c.history, Turn{User: Request(message), Assistant: res.Raw})
	}
	return res
}

// History returns a copy of the answered turns
func (c *Conversation) History() []Turn {
	out := make([]Turn, len(c.history))
	copy(out, c.history)
	return out
}

// Reset forgets the history
func (c *Conversation) Reset() {
	c.history = nil
}
