package storyline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/errors"
	testutil "github.com/teranos/slideinspo/internal/testing"
)

const riskStoryline = `{
	"Slide 1": "Venture capital is a bet on uncertainty",
	"Slide 2": "Diversification limits portfolio blow-ups",
	"Slide 3": "Due diligence turns unknowns into known risks"
}`

func TestParse(t *testing.T) {
	s, err := Parse("risk", riskStoryline, 3)
	require.NoError(t, err)

	require.Equal(t, 3, s.Len())
	assert.Equal(t, "Slide 1", s.Entries[0].Label)
	assert.Equal(t, "Due diligence turns unknowns into known risks", s.Entries[2].Storypoint)
	assert.Equal(t, "risk", s.Topic)
}

func TestParse_SortsBySlideNumber(t *testing.T) {
	s, err := Parse("t", `{"Slide 2": "b", "Slide 10": "j", "Slide 1": "a", "Slide 3": "c",
		"Slide 4": "d", "Slide 5": "e", "Slide 6": "f", "Slide 7": "g", "Slide 8": "h", "Slide 9": "i"}`, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}, s.Storypoints())
	assert.Equal(t, "Slide 10", s.Entries[9].Label)
}

func TestParse_Fenced(t *testing.T) {
	s, err := Parse("t", "```json\n{\"Slide 1\": \"only\"}\n```", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, s.Storypoints())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		count   int
	}{
		{"empty", "", 1},
		{"not json", "Here is your storyline: Slide 1 - intro", 1},
		{"array", `["a", "b"]`, 2},
		{"too many", `{"Slide 1": "a", "Slide 2": "b"}`, 1},
		{"too few", `{"Slide 1": "a"}`, 2},
		{"wrong key", `{"Slide 1": "a", "Slide Two": "b"}`, 2},
		{"key out of range", `{"Slide 1": "a", "Slide 3": "b"}`, 2},
		{"zero key", `{"Slide 0": "a"}`, 1},
		{"duplicate key", `{"Slide 1": "a", "Slide 1": "b"}`, 2},
		{"nested value", `{"Slide 1": {"title": "a"}}`, 1},
		{"number value", `{"Slide 1": 42}`, 1},
		{"null value", `{"Slide 1": null}`, 1},
		{"blank value", `{"Slide 1": "  "}`, 1},
		{"trailing data", `{"Slide 1": "a"} {"Slide 2": "b"}`, 1},
		{"truncated", `{"Slide 1": "a", "Slide 2": "b`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("t", tt.content, tt.count)
			require.Error(t, err)
			assert.True(t, errors.IsMalformedStoryline(err), "got %v", err)
		})
	}
}

func TestStoryline_Views(t *testing.T) {
	s := New("topic", []string{"Intro", "Body"})

	assert.Equal(t, []string{"Intro", "Body"}, s.Storypoints())
	assert.Equal(t, map[string]string{"Slide 1": "Intro", "Slide 2": "Body"}, s.Map())
	assert.Equal(t, "⚡ Slide 1: Intro\n⚡ Slide 2: Body", s.Pretty())

	var empty *Storyline
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Pretty())
}

func TestGenerate(t *testing.T) {
	client := testutil.NewFakeClient(riskStoryline)
	gen := NewGenerator(Config{Client: client, Logger: zaptest.NewLogger(t).Sugar()})

	s, err := gen.Generate(context.Background(), "  Risk Management in Venture Capital ", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "Risk Management in Venture Capital", s.Topic)
	for i, e := range s.Entries {
		assert.Equal(t, Label(i+1), e.Label)
		assert.NotEmpty(t, e.Storypoint)
	}

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Risk Management in Venture Capital", reqs[0].UserPrompt)
	assert.True(t, reqs[0].JSONResponse)
	require.NotNil(t, reqs[0].Temperature)
	assert.Zero(t, *reqs[0].Temperature)
	assert.Equal(t, ai.OperationStoryline, reqs[0].Operation)
	assert.Contains(t, reqs[0].SystemPrompt, "exactly 3 slides")
	assert.Contains(t, reqs[0].SystemPrompt, `"Slide 3"`)
}

func TestGenerate_InvalidRequest(t *testing.T) {
	client := testutil.NewFakeClient(riskStoryline)
	gen := NewGenerator(Config{Client: client, MaxCount: 10})

	for _, tc := range []struct {
		topic string
		count int
	}{{"", 3}, {"topic", 0}, {"topic", -2}, {"topic", 11}} {
		_, err := gen.Generate(context.Background(), tc.topic, tc.count)
		require.Error(t, err)
		assert.True(t, errors.IsInvalidRequest(err))
	}
	assert.Empty(t, client.Requests(), "invalid requests never reach the model")
}

func TestGenerate_TransportFailure(t *testing.T) {
	client := &testutil.FakeClient{Respond: func(ai.ChatRequest) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}}
	_, err := NewGenerator(Config{Client: client}).Generate(context.Background(), "topic", 3)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.Len(t, client.Requests(), 1, "no retry at this layer")
}

func TestGenerate_NilResponse(t *testing.T) {
	client := ai.ClientFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, nil
	})
	_, err := NewGenerator(Config{Client: client}).Generate(context.Background(), "topic", 3)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestGenerate_MalformedAnswer(t *testing.T) {
	client := testutil.NewFakeClient(`{"Slide 1": "a", "Slide 2": "b", "Slide 3": "c", "Slide 4": "d"}`)
	_, err := NewGenerator(Config{Client: client}).Generate(context.Background(), "topic", 3)
	require.Error(t, err)
	assert.True(t, errors.IsMalformedStoryline(err))
	assert.False(t, errors.IsTransport(err))
}
