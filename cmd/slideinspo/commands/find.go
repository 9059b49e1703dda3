package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/graph"
	"github.com/teranos/slideinspo/history"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/pipeline"
	"github.com/teranos/slideinspo/sym"
)

// FindCmd generates a storyline and resolves every storypoint
var FindCmd = &cobra.Command{
	Use:   "find <topic>",
	Short: sym.Slide + " Find a slide for every point of a new storyline",
	Long: sym.Slide + ` find — storyline, then one slide per storypoint

Each storypoint is matched against the slide graph and resolved to the image
of the best slide under slides.base_dir. With --markup the model instead
writes an HTML mock for each storypoint and the graph is not consulted.

Storypoints without a matching slide stay in the result, marked ` + sym.Missing + `.

Examples:
  slideinspo find "Risk Management in Venture Capital" -n 3
  slideinspo find "Risk Management in Venture Capital" --show 2
  slideinspo find "Onboarding" --markup --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

var (
	findCount  int
	findMarkup bool
	findShow   int
	findQuery  string
)

func init() {
	FindCmd.Flags().IntVarP(&findCount, "count", "n", 0, "Number of slides (default slides.default_count)")
	FindCmd.Flags().BoolVar(&findMarkup, "markup", false, "Generate HTML mocks instead of resolving slide images")
	FindCmd.Flags().IntVar(&findShow, "show", 0, "Print only slide N (1-based)")
	FindCmd.Flags().StringVar(&findQuery, "query", "", "Override the graph context query")
}

func runFind(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	mode, err := pipeline.ParseMode(a.cfg.Pipeline.Mode)
	if err != nil {
		return err
	}
	if findMarkup {
		mode = pipeline.ModeMarkup
	}

	ctx := cmd.Context()
	// the graph is loaded first: without it no slide can be resolved
	gc, err := a.loadContextFor(ctx, mode)
	if err != nil {
		return err
	}

	count := findCount
	if count == 0 {
		count = a.cfg.Slides.DefaultCount
	}
	emitter := a.emitter()
	emitter.EmitStage("storyline", "writing storyline")
	s, err := a.generator().Generate(ctx, strings.Join(args, " "), count)
	if err != nil {
		emitter.EmitError("storyline", err)
		return err
	}
	if !a.json {
		fmt.Println(s.Pretty())
	}

	var store *history.Store
	if a.db != nil {
		store = history.NewStore(a.db)
		if runID, err := store.StartRun(ctx, s, mode); err != nil {
			a.log.Warnw("Failed to record run", logger.FieldError, err)
			store = nil
		} else {
			ctx = logger.WithRunID(ctx, runID)
		}
	}

	orch, err := a.orchestrator(mode, gc)
	if err != nil {
		return err
	}
	batch, err := orch.ResolveAll(ctx, s)
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.SaveBatch(ctx, batch.RunID, batch); err != nil {
			a.log.Warnw("Failed to record batch", logger.FieldError, err)
		}
	}

	if findShow > 0 {
		item, err := batch.Ordinal(findShow)
		if err != nil {
			return err
		}
		if a.json {
			return display.OutputJSON(item)
		}
		printItem(item)
		return nil
	}

	if a.json {
		return display.OutputJSON(batch)
	}
	printBatch(batch)
	return nil
}

// loadContextFor skips the graph in markup mode
func (a *app) loadContextFor(ctx context.Context, mode pipeline.Mode) (graph.Context, error) {
	if mode == pipeline.ModeMarkup {
		return graph.Context{}, nil
	}
	return a.loadContext(ctx, findQuery)
}

func printBatch(b *pipeline.Batch) {
	data := pterm.TableData{{"#", "Label", "Storypoint", "Result"}}
	for _, item := range b.Items {
		data = append(data, []string{
			fmt.Sprintf("%d", item.Index+1),
			item.Label,
			item.Storypoint,
			itemResult(item),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printItem(item pipeline.Item) {
	pterm.DefaultSection.Println(item.Label + ": " + item.Storypoint)
	if item.Artifact.Markup != "" {
		fmt.Println(item.Artifact.Markup)
		return
	}
	fmt.Println(itemResult(item))
}

func itemResult(item pipeline.Item) string {
	switch {
	case item.Artifact.Path != "":
		return sym.Slide + " " + item.Artifact.Path
	case item.Artifact.Markup != "":
		return fmt.Sprintf("%s %d bytes of HTML", sym.Markup, len(item.Artifact.Markup))
	case item.Status == pipeline.StatusFailed:
		return sym.Missing + " " + item.Error
	default:
		return sym.Missing + " no matching slide"
	}
}
