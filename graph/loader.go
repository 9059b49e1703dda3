package graph

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/sym"
)

// Result columns the context query must return
const (
	ColumnSlide      = "SlideName"
	ColumnStorypoint = "StorypointName"
)

// DefaultQuery walks slide -> topic -> storypoint
const DefaultQuery = `MATCH (slide:SLIDE)-[:hasTopic]->(topic:TOPIC)-[:hasStorypoint]->(storypoint:STORYPOINT)
RETURN slide.name AS SlideName, storypoint.name AS StorypointName;`

// Runner executes a read query and returns each row keyed by column
type Runner interface {
	Query(ctx context.Context, cypher string) ([]map[string]any, error)
}

// LoadContext runs query (DefaultQuery when empty) and collects the pairs.
// Rows with a null slide or storypoint name are skipped. Every failure wraps
// errors.ErrGraphUnavailable.
func LoadContext(ctx context.Context, runner Runner, query string, log *zap.SugaredLogger) (Context, error) {
	log = logger.FromContext(ctx, logger.OrNop(log))
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}

	start := time.Now()
	rows, err := runner.Query(ctx, query)
	if err != nil {
		return Context{}, errors.Mark(errors.Wrap(err, "graph context query failed"), errors.ErrGraphUnavailable)
	}

	pairs := make([]Pair, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		slideVal, okSlide := row[ColumnSlide]
		storyVal, okStory := row[ColumnStorypoint]
		if !okSlide || !okStory {
			return Context{}, errors.Mark(
				errors.Newf("row %d lacks %s/%s columns", i, ColumnSlide, ColumnStorypoint),
				errors.ErrGraphUnavailable)
		}
		slideName, okSlide := slideVal.(string)
		storypoint, okStory := storyVal.(string)
		if !okSlide || !okStory {
			skipped++
			continue
		}
		pairs = append(pairs, Pair{SlideName: slideName, StorypointName: storypoint})
	}

	if skipped > 0 {
		log.Warnw("Skipped graph rows without string names", logger.FieldCount, skipped)
	}
	log.Infow("Graph context loaded",
		logger.FieldSymbol, sym.Graph,
		logger.FieldCount, len(pairs),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return NewContext(pairs), nil
}
