package resolve

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/graph"
	testutil "github.com/teranos/slideinspo/internal/testing"
	"github.com/teranos/slideinspo/logger"
)

var testContext = graph.NewContext([]graph.Pair{
	{SlideName: "deck_001_slide_0001", StorypointName: "Diversification"},
	{SlideName: "deck_003_slide_0021", StorypointName: "Due diligence"},
})

func newResolver(t *testing.T, client ai.Client) *Resolver {
	return New(Config{Client: client, Logger: zaptest.NewLogger(t).Sugar()})
}

func TestResolve_Found(t *testing.T) {
	client := testutil.NewFakeClient("The slide you want is deck_003_slide_0021, good luck.")
	res := newResolver(t, client).Resolve(context.Background(), "Checking a startup before investing", testContext)

	assert.Equal(t, StatusFound, res.Status)
	assert.True(t, res.Found())
	assert.Equal(t, "deck_003_slide_0021", res.ID.String())
	assert.NoError(t, res.AsError())

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "User:Please find slides related to Checking a startup before investing. Assistant:", reqs[0].UserPrompt)
	assert.Contains(t, reqs[0].SystemPrompt, "deck_001_slide_0001: Diversification\ndeck_003_slide_0021: Due diligence")
	assert.Contains(t, reqs[0].SystemPrompt, "deck_000_slide_0000")
	require.NotNil(t, reqs[0].Temperature)
	assert.Zero(t, *reqs[0].Temperature)
	assert.False(t, reqs[0].JSONResponse)
	assert.Equal(t, ai.OperationResolve, reqs[0].Operation)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	client := testutil.NewFakeClient("deck_001_slide_0001, or possibly deck_003_slide_0021")
	res := newResolver(t, client).Resolve(context.Background(), "x", testContext)
	assert.Equal(t, "deck_001_slide_0001", res.ID.String())
}

func TestResolve_SeveralIdentifiersLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(Config{
		Client: testutil.NewFakeClient("deck_001_slide_0001, or possibly deck_003_slide_0021"),
		Logger: zap.New(core).Sugar(),
	})

	res := r.Resolve(context.Background(), "x", testContext)
	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, "deck_001_slide_0001", res.ID.String())

	entries := logs.FilterMessage("Several slide identifiers in answer, using the first").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "deck_001_slide_0001", fields[logger.FieldSlide])
	assert.EqualValues(t, 2, fields[logger.FieldCount])
}

func TestResolve_NotFound(t *testing.T) {
	client := testutil.NewFakeClient("I could not find a match.")
	res := newResolver(t, client).Resolve(context.Background(), "x", testContext)

	assert.Equal(t, StatusNotFound, res.Status)
	assert.False(t, res.Found())
	assert.True(t, res.ID.IsZero())
	assert.Equal(t, "I could not find a match.", res.Raw)
	assert.NoError(t, res.Err)

	err := res.AsError()
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsTransport(err))
}

func TestResolve_Failed(t *testing.T) {
	client := &testutil.FakeClient{Respond: func(ai.ChatRequest) (string, error) {
		return "", errors.New("status 500")
	}}
	res := newResolver(t, client).Resolve(context.Background(), "x", testContext)

	assert.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.True(t, errors.IsTransport(res.AsError()))
	assert.False(t, errors.IsNotFound(res.AsError()))
}

func TestResolve_NilResponse(t *testing.T) {
	client := ai.ClientFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, nil
	})

	var res Resolution
	require.NotPanics(t, func() {
		res = newResolver(t, client).Resolve(context.Background(), "x", testContext)
	})
	assert.Equal(t, StatusFailed, res.Status)
	require.Error(t, res.Err)
	assert.True(t, errors.IsTransport(res.AsError()))
}

func TestResolve_EmptyContext(t *testing.T) {
	client := testutil.NewFakeClient("There are no slides.")
	res := newResolver(t, client).Resolve(context.Background(), "x", graph.Context{})
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestFormatChatPrompt(t *testing.T) {
	history := []Turn{
		{User: "first", Assistant: "deck_001_slide_0001"},
		{User: "second", Assistant: "deck_002_slide_0002"},
		{User: "third", Assistant: "none"},
	}

	assert.Equal(t, "\nUser: hello\nAssistant:", FormatChatPrompt("hello", nil, 5))
	assert.Equal(t, "\nUser: hello\nAssistant:", FormatChatPrompt("hello", history, 0))
	assert.Equal(t,
		"\nUser: second\nAssistant: deck_002_slide_0002\nUser: third\nAssistant: none\nUser: hello\nAssistant:",
		FormatChatPrompt("hello", history, 2))
	assert.Equal(t, 3, strings.Count(FormatChatPrompt("hello", history, 10), "Assistant: "))
}

func TestConversation(t *testing.T) {
	answers := []string{"deck_001_slide_0001", "nothing fits"}
	client := &testutil.FakeClient{}
	client.Respond = func(req ai.ChatRequest) (string, error) {
		return answers[len(client.Requests())-1], nil
	}

	conv := newResolver(t, client).NewConversation(testContext, DefaultMaxTurns)

	first := conv.Ask(context.Background(), "diversification")
	assert.Equal(t, StatusFound, first.Status)

	second := conv.Ask(context.Background(), "something else")
	assert.Equal(t, StatusNotFound, second.Status)

	reqs := client.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "\nUser: Please find slides related to diversification.\nAssistant:", reqs[0].UserPrompt)
	assert.Contains(t, reqs[1].UserPrompt, "Assistant: deck_001_slide_0001\nUser: Please find slides related to something else.")

	assert.Len(t, conv.History(), 2)
	conv.Reset()
	assert.Empty(t, conv.History())
}
