package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/sym"
)

// ContextCmd lists the slide graph context
var ContextCmd = &cobra.Command{
	Use:   "context",
	Short: sym.Graph + " List the slide graph context",
	Long: sym.Graph + ` context — every (slide, storypoint) pair the resolver can choose from

Examples:
  slideinspo context
  slideinspo context --json
  slideinspo context --query 'MATCH (s:SLIDE)-[:hasStorypoint]->(p) RETURN s.name AS SlideName, p.name AS StorypointName'`,
	RunE: runContext,
}

var contextQuery string

func init() {
	ContextCmd.Flags().StringVar(&contextQuery, "query", "", "Override the graph context query")
}

func runContext(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	gc, err := a.loadContext(cmd.Context(), contextQuery)
	if err != nil {
		return err
	}

	if a.json {
		return display.OutputJSON(gc)
	}

	data := pterm.TableData{{"Slide", "Storypoint"}}
	for _, p := range gc.Pairs() {
		data = append(data, []string{p.SlideName, p.StorypointName})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printf("%d pairs, %d distinct slides\n", gc.Len(), len(gc.Slides()))
	return nil
}
