package graph

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/slideinspo/errors"
)

type fakeRunner struct {
	rows      []map[string]any
	err       error
	lastQuery string
}

func (f *fakeRunner) Query(ctx context.Context, cypher string) ([]map[string]any, error) {
	f.lastQuery = cypher
	return f.rows, f.err
}

func TestLoadContext(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]any{
		{ColumnSlide: "deck_001_slide_0001", ColumnStorypoint: "Why diversification matters"},
		{ColumnSlide: "deck_001_slide_0001", ColumnStorypoint: "Portfolio construction"},
		{ColumnSlide: "deck_002_slide_0004", ColumnStorypoint: "Due diligence checklist"},
		{ColumnSlide: nil, ColumnStorypoint: "orphan"},
	}}

	gc, err := LoadContext(context.Background(), runner, "", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	assert.Equal(t, DefaultQuery, runner.lastQuery)
	assert.Equal(t, 3, gc.Len())
	assert.Equal(t, []string{"deck_001_slide_0001", "deck_002_slide_0004"}, gc.Slides())
	assert.Equal(t,
		"deck_001_slide_0001: Why diversification matters\n"+
			"deck_001_slide_0001: Portfolio construction\n"+
			"deck_002_slide_0004: Due diligence checklist",
		gc.Render())
}

func TestLoadContext_CustomQuery(t *testing.T) {
	runner := &fakeRunner{}
	gc, err := LoadContext(context.Background(), runner, "MATCH (n) RETURN n.a AS SlideName, n.b AS StorypointName", nil)
	require.NoError(t, err)
	assert.Contains(t, runner.lastQuery, "MATCH (n)")
	assert.Equal(t, 0, gc.Len())
}

func TestLoadContext_QueryFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("connection refused")}
	_, err := LoadContext(context.Background(), runner, "", nil)
	require.Error(t, err)
	assert.True(t, errors.IsGraphUnavailable(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLoadContext_WrongColumns(t *testing.T) {
	runner := &fakeRunner{rows: []map[string]any{{"name": "deck_001_slide_0001"}}}
	_, err := LoadContext(context.Background(), runner, "", nil)
	require.Error(t, err)
	assert.True(t, errors.IsGraphUnavailable(err))
}

func TestContext_Immutable(t *testing.T) {
	pairs := []Pair{{SlideName: "a", StorypointName: "b"}}
	gc := NewContext(pairs)
	pairs[0].SlideName = "mutated"
	assert.Equal(t, "a", gc.Pairs()[0].SlideName)

	out := gc.Pairs()
	out[0].SlideName = "mutated"
	assert.Equal(t, "a", gc.Pairs()[0].SlideName)
}

func TestContext_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Context{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = json.Marshal(NewContext([]Pair{{SlideName: "s", StorypointName: "p"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"slide_name":"s","storypoint_name":"p"}]`, string(data))
}

func TestOpen_MissingURL(t *testing.T) {
	_, err := Open(context.Background(), StoreConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsGraphUnavailable(err))
}
