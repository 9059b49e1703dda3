package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/sym"
)

// StorylineCmd generates a storyline for a topic
var StorylineCmd = &cobra.Command{
	Use:   "storyline <topic>",
	Short: sym.Storyline + " Generate a storyline for a topic",
	Long: sym.Storyline + ` storyline — ask the model for one storypoint per slide

The model answers with exactly --count storypoints labelled "Slide 1".."Slide N".
An answer of any other shape is rejected; run the command again.

Examples:
  slideinspo storyline "Risk Management in Venture Capital"
  slideinspo storyline "Hiring your first engineer" -n 8
  slideinspo storyline "Pricing" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoryline,
}

var storylineCount int

func init() {
	StorylineCmd.Flags().IntVarP(&storylineCount, "count", "n", 0, "Number of slides (default slides.default_count)")
}

func runStoryline(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	count := storylineCount
	if count == 0 {
		count = a.cfg.Slides.DefaultCount
	}

	s, err := a.generator().Generate(cmd.Context(), strings.Join(args, " "), count)
	if err != nil {
		return err
	}

	if a.json {
		return display.OutputJSON(s)
	}
	pterm.DefaultSection.Println(s.Topic)
	fmt.Println(s.Pretty())
	return nil
}
