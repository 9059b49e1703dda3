package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/history"
	"github.com/teranos/slideinspo/sym"
)

// HistoryCmd lists recorded runs
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: sym.DB + " List recorded runs",
	Long: sym.DB + ` history — storylines and slides from earlier runs

Requires database.path to be set.

Examples:
  slideinspo history
  slideinspo history show <run-id>
  slideinspo history rm <run-id>`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its slides",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <run-id>",
	Short: "Delete a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRm,
}

var historyLimit int

func init() {
	HistoryCmd.Flags().IntVar(&historyLimit, "limit", history.DefaultListLimit, "Number of runs to list")
	HistoryCmd.AddCommand(historyShowCmd)
	HistoryCmd.AddCommand(historyRmCmd)
}

func historyStore(cmd *cobra.Command) (*app, *history.Store, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	if a.db == nil {
		a.Close()
		return nil, nil, fmt.Errorf("run history is disabled: set database.path")
	}
	return a, history.NewStore(a.db), nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	a, store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if a.json {
		return display.OutputJSON(runs)
	}
	if len(runs) == 0 {
		pterm.Info.Println("No runs recorded yet")
		return nil
	}

	data := pterm.TableData{{"Run", "Created", "Mode", "Slides", "Topic"}}
	for _, r := range runs {
		status := "pending"
		if r.CompletedAt != nil {
			status = string(r.Mode)
		}
		data = append(data, []string{
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			status,
			fmt.Sprintf("%d", r.SlideCount),
			r.Topic,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if a.json {
		return display.OutputJSON(run)
	}

	pterm.DefaultSection.Println(run.Topic)
	for _, item := range run.Items {
		pterm.Printf("%s %s: %s\n", sym.Storyline, item.Label, item.Storypoint)
		if item.Status != "pending" {
			pterm.Printf("    %s\n", itemResult(item))
		}
	}
	return nil
}

func runHistoryRm(cmd *cobra.Command, args []string) error {
	a, store, err := historyStore(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	pterm.Success.Printf("Deleted run %s\n", args[0])
	return nil
}

// shortID truncates a run ID to 8 characters for display
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
