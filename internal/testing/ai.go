package testing

import (
	"context"
	"sync"

	"github.com/teranos/slideinspo/ai"
)

// FakeClient is a scripted ai.Client. Respond decides each answer; requests
// are recorded in call order.
type FakeClient struct {
	Respond func(req ai.ChatRequest) (string, error)

	mu       sync.Mutex
	requests []ai.ChatRequest
}

// NewFakeClient answers every request with content
func NewFakeClient(content string) *FakeClient {
	return &FakeClient{Respond: func(ai.ChatRequest) (string, error) { return content, nil }}
}

// Chat records req and returns Respond's answer
func (f *FakeClient) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := f.Respond(req)
	if err != nil {
		return nil, err
	}
	return &ai.ChatResponse{Content: content, Model: "fake"}, nil
}

// Requests returns a copy of the recorded requests
func (f *FakeClient) Requests() []ai.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ai.ChatRequest, len(f.requests))
	copy(out, f.requests)
	return out
}
