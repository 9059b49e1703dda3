package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/cmd/slideinspo/commands"
	"github.com/teranos/slideinspo/logger"
)

var rootCmd = &cobra.Command{
	Use:   "slideinspo",
	Short: "Slide Inspo - find slides for a story",
	Long: `Slide Inspo - turn a topic into a storyline and find a slide for every point.

A language model writes the storyline; each storypoint is matched against the
slide graph and resolved to a pre-rendered slide image, or a generated HTML mock.

Available commands:
  storyline - Generate a storyline for a topic
  find      - Generate a storyline and resolve a slide for every storypoint
  resolve   - Find the slide for a single storypoint
  context   - List the slide graph context
  serve     - Start the HTTP server
  usage     - Show model usage and cost
  history   - List recorded runs
  am        - Manage configuration ("I am")

Examples:
  slideinspo storyline "Risk Management in Venture Capital" -n 3
  slideinspo find "Risk Management in Venture Capital" --show 2
  slideinspo find "Onboarding" --markup
  slideinspo resolve -i
  slideinspo serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results and logs as JSON")

	rootCmd.AddCommand(commands.StorylineCmd)
	rootCmd.AddCommand(commands.FindCmd)
	rootCmd.AddCommand(commands.ResolveCmd)
	rootCmd.AddCommand(commands.ContextCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.UsageCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
