package resolve

import (
	"fmt"
	"strings"

	"github.com/teranos/slideinspo/graph"
)

const systemPromptTemplate = `You have these slides and storypoints as context:
%s

You are wise, considerate and good at connecting the dots between scarce information.
Find the name of the slide whose storypoint is most closely related to the message.
Before you decide, think it through. Be creative in how you abstract the connection between storypoint and message.
Only answer with a slide name that appears in the context. Nothing else. No pleasantries, salutations or confirmations.
If you cannot find one, try harder. Consider all slides in all decks, and only answer once you have considered every one.
Return the slide name exactly as formatted in the context: deck_000_slide_0000`

// BuildSystemPrompt embeds the whole graph context
func BuildSystemPrompt(gc graph.Context) string {
	return fmt.Sprintf(systemPromptTemplate, gc.Render())
}

// Turn is one exchange of a conversation
type Turn struct {
	User      string
	Assistant string
}

// Request is the slide search request for a storypoint
func Request(storypoint string) string {
	return "Please find slides related to " + storypoint + "."
}

// UserPrompt frames a single request as a one-exchange transcript
func UserPrompt(storypoint string) string {
	return "User:" + Request(storypoint) + " Assistant:"
}

// FormatChatPrompt renders the last maxTurns turns of history followed by the
// new message, each as "User: ..." / "Assistant: ..." lines, ending with an
// open "Assistant:" for the model to complete. maxTurns <= 0 drops history.
func FormatChatPrompt(message string, history []Turn, maxTurns int) string {
	if maxTurns < 0 {
		maxTurns = 0
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	var b strings.Builder
	for _, t := range history {
		b.WriteString("\nUser: ")
		b.WriteString(t.User)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.Assistant)
	}
	b.WriteString("\nUser: ")
	b.WriteString(message)
	b.WriteString("\nAssistant:")
	return b.String()
}
