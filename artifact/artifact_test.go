package artifact

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/errors"
	testutil "github.com/teranos/slideinspo/internal/testing"
	"github.com/teranos/slideinspo/slide"
)

func mustParse(t *testing.T, s string) *slide.ID {
	t.Helper()
	id, err := slide.Parse(s)
	require.NoError(t, err)
	return &id
}

func TestImagePath_Produce(t *testing.T) {
	tests := []struct {
		name string
		base string
		id   string
		want string
	}{
		{name: "trailing separator", base: "/data/slides/", id: "deck_003_slide_0021", want: "/data/slides/deck_003_slide_0021.png"},
		{name: "no trailing separator", base: "/data/slides", id: "deck_003_slide_0021", want: "/data/slides/deck_003_slide_0021.png"},
		{name: "relative base", base: "slides_png", id: "deck_010_slide_0100", want: filepath.Join("slides_png", "deck_010_slide_0100.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ImagePath{BaseDir: tt.base}.Produce(context.Background(), Request{ID: mustParse(t, tt.id)})
			require.NoError(t, err)
			assert.Equal(t, KindImage, a.Kind)
			assert.Equal(t, tt.want, a.Path)
			assert.False(t, a.IsMissing())
		})
	}
}

func TestImagePath_Deterministic(t *testing.T) {
	p := ImagePath{BaseDir: "/data/slides"}
	id := mustParse(t, "deck_001_slide_0002")
	assert.Equal(t, p.Path(*id), p.Path(*id))
}

func TestImagePath_MissingID(t *testing.T) {
	p := ImagePath{BaseDir: "/data/slides"}

	a, err := p.Produce(context.Background(), Request{Storypoint: "x"})
	require.NoError(t, err)
	assert.True(t, a.IsMissing())

	a, err = p.Produce(context.Background(), Request{ID: &slide.ID{}})
	require.NoError(t, err)
	assert.Equal(t, Missing, a)
}

func TestMarkup_Produce(t *testing.T) {
	client := testutil.NewFakeClient("```html\n<div style=\"width:640px\">Hi</div>\n```")
	m := &Markup{Client: client, MaxTokens: 2500, Logger: zaptest.NewLogger(t).Sugar()}

	a, err := m.Produce(context.Background(), Request{Storypoint: "Diversify the portfolio"})
	require.NoError(t, err)
	assert.Equal(t, KindMarkup, a.Kind)
	assert.Equal(t, `<div style="width:640px">Hi</div>`, a.Markup)
	assert.Empty(t, a.Path)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "User: Please create the HTML for slides related to Diversify the portfolio. only return the HTML code. HTML:", reqs[0].UserPrompt)
	assert.Contains(t, reqs[0].SystemPrompt, "640x360")
	assert.Contains(t, reqs[0].SystemPrompt, "contrast")
	require.NotNil(t, reqs[0].Temperature)
	assert.Equal(t, DefaultMarkupTemperature, *reqs[0].Temperature)
	require.NotNil(t, reqs[0].MaxTokens)
	assert.Equal(t, 2500, *reqs[0].MaxTokens)
	assert.Equal(t, ai.OperationMarkup, reqs[0].Operation)
}

func TestMarkup_Temperature(t *testing.T) {
	client := testutil.NewFakeClient("<div/>")
	m := &Markup{Client: client, Temperature: ai.Float64(0.3)}

	_, err := m.Produce(context.Background(), Request{Storypoint: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0.3, *client.Requests()[0].Temperature)
	assert.Nil(t, client.Requests()[0].MaxTokens)
}

func TestMarkup_IgnoresID(t *testing.T) {
	client := testutil.NewFakeClient("<div/>")
	m := &Markup{Client: client}

	_, err := m.Produce(context.Background(), Request{Storypoint: "x", ID: mustParse(t, "deck_003_slide_0021")})
	require.NoError(t, err)
	assert.NotContains(t, client.Requests()[0].UserPrompt, "deck_003")
}

func TestMarkup_Errors(t *testing.T) {
	t.Run("empty storypoint", func(t *testing.T) {
		m := &Markup{Client: testutil.NewFakeClient("<div/>")}
		a, err := m.Produce(context.Background(), Request{Storypoint: "  "})
		assert.True(t, errors.IsInvalidRequest(err))
		assert.True(t, a.IsMissing())
	})

	t.Run("transport", func(t *testing.T) {
		m := &Markup{Client: &testutil.FakeClient{Respond: func(ai.ChatRequest) (string, error) {
			return "", errors.New("connection reset")
		}}}
		a, err := m.Produce(context.Background(), Request{Storypoint: "x"})
		assert.True(t, errors.IsTransport(err))
		assert.True(t, a.IsMissing())
	})

	t.Run("nil response", func(t *testing.T) {
		m := &Markup{Client: ai.ClientFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
			return nil, nil
		})}
		a, err := m.Produce(context.Background(), Request{Storypoint: "x"})
		assert.True(t, errors.IsTransport(err))
		assert.True(t, a.IsMissing())
	})

	t.Run("empty answer", func(t *testing.T) {
		m := &Markup{Client: testutil.NewFakeClient("```\n```")}
		a, err := m.Produce(context.Background(), Request{Storypoint: "x"})
		require.NoError(t, err)
		assert.True(t, a.IsMissing())
	})
}
