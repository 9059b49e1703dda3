package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slideinspo/ai"
	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/sym"
)

// Canvas size of generated slides, in pixels
const (
	CanvasWidth  = 640
	CanvasHeight = 360
)

// DefaultMarkupTemperature leaves room for creative layouts
const DefaultMarkupTemperature = 1.0

const markupSystemPrompt = `You are a presentation designer who writes slides as HTML.
Create one slide of %dx%d pixels as a single self-contained HTML fragment with inline CSS:
- a gradient background on the slide panel
- a catchy action title at the top
- three bullet points on the left half
- one large emoji representing the content on the right half
- a small footnote suggesting a visual aid that would complement the slide
Use enough color contrast for every text element to be readable.
All content must fit inside the slide.
Only return the HTML. No explanations, no markdown.`

// MarkupSystemPrompt is the instruction sent with every markup request
func MarkupSystemPrompt() string {
	return fmt.Sprintf(markupSystemPrompt, CanvasWidth, CanvasHeight)
}

// MarkupUserPrompt frames a storypoint as a slide design request
func MarkupUserPrompt(storypoint string) string {
	return "User: Please create the HTML for slides related to " + storypoint + ". only return the HTML code. HTML:"
}

// Markup generates an HTML mock of a slide from the storypoint text. It does
// not use the slide identifier.
type Markup struct {
	Client      ai.Client
	Temperature *float64 // nil = DefaultMarkupTemperature
	MaxTokens   int      // 0 = client default
	Logger      *zap.SugaredLogger
}

// Produce makes one model call. An empty storypoint is an invalid request;
// call failures are marked errors.ErrTransport.
func (m *Markup) Produce(ctx context.Context, req Request) (Artifact, error) {
	storypoint := strings.TrimSpace(req.Storypoint)
	if storypoint == "" {
		return Missing, errors.NewInvalidRequestError("storypoint is empty")
	}

	temperature := DefaultMarkupTemperature
	if m.Temperature != nil {
		temperature = *m.Temperature
	}
	chat := ai.ChatRequest{
		SystemPrompt: MarkupSystemPrompt(),
		UserPrompt:   MarkupUserPrompt(storypoint),
		Temperature:  ai.Float64(temperature),
		Operation:    ai.OperationMarkup,
	}
	if m.MaxTokens > 0 {
		chat.MaxTokens = ai.Int(m.MaxTokens)
	}

	log := logger.FromContext(ctx, logger.OrNop(m.Logger))
	start := time.Now()

	resp, err := m.Client.Chat(ctx, chat)
	if err != nil {
		return Missing, errors.MarkTransport(errors.Wrapf(err, "markup for %q", storypoint))
	}
	if resp == nil {
		return Missing, errors.MarkTransport(errors.Newf("markup for %q: empty model response", storypoint))
	}

	html := ai.StripCodeFences(resp.Content)
	if html == "" {
		log.Warnw("Model returned empty markup", logger.FieldStorypoint, storypoint)
		return Missing, nil
	}

	log.Infow("Markup generated",
		logger.FieldSymbol, sym.Markup,
		logger.FieldStorypoint, storypoint,
		logger.FieldSize, len(html),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return Artifact{Kind: KindMarkup, Markup: html}, nil
}
