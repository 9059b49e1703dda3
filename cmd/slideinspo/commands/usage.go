package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/ai/tracker"
	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/sym"
)

// UsageCmd shows model usage recorded in the database
var UsageCmd = &cobra.Command{
	Use:   "usage",
	Short: sym.DB + " Show model usage and cost",
	Long: sym.DB + ` usage — requests, tokens and cost of recorded model calls

Requires database.path to be set.

Examples:
  slideinspo usage
  slideinspo usage --since 168h
  slideinspo usage --json`,
	RunE: runUsage,
}

var usageSince time.Duration

func init() {
	UsageCmd.Flags().DurationVar(&usageSince, "since", 24*time.Hour, "Time window to report")
}

type usageReport struct {
	Since      time.Time                    `json:"since"`
	Stats      *tracker.UsageStats          `json:"stats"`
	Models     []tracker.ModelBreakdown     `json:"models"`
	Operations []tracker.OperationBreakdown `json:"operations"`
}

func runUsage(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		return fmt.Errorf("usage tracking is disabled: set database.path")
	}

	ctx := cmd.Context()
	t := tracker.NewUsageTracker(a.db)
	report := usageReport{Since: time.Now().Add(-usageSince)}

	if report.Stats, err = t.GetUsageStats(ctx, report.Since); err != nil {
		return err
	}
	if report.Models, err = t.GetModelBreakdown(ctx, report.Since); err != nil {
		return err
	}
	if report.Operations, err = t.GetOperationBreakdown(ctx, report.Since); err != nil {
		return err
	}

	if a.json {
		return display.OutputJSON(report)
	}

	s := report.Stats
	pterm.DefaultSection.Printf("Model usage since %s\n", report.Since.Format(time.RFC1123))
	pterm.Printf("Requests: %d (%.0f%% successful)\n", s.TotalRequests, s.SuccessRate*100)
	pterm.Printf("Tokens:   %d\n", s.TotalTokens)
	pterm.Printf("Cost:     $%.4f\n", s.TotalCost)

	if len(report.Models) > 0 {
		data := pterm.TableData{{"Model", "Provider", "Requests", "Tokens", "Cost", "Avg ms"}}
		for _, m := range report.Models {
			avg := "-"
			if m.AvgResponseTimeMs != nil {
				avg = fmt.Sprintf("%.0f", *m.AvgResponseTimeMs)
			}
			data = append(data, []string{
				m.ModelName, m.ModelProvider,
				fmt.Sprintf("%d", m.RequestCount),
				fmt.Sprintf("%d", m.TotalTokens),
				fmt.Sprintf("$%.4f", m.TotalCost),
				avg,
			})
		}
		fmt.Println()
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
	}

	if len(report.Operations) > 0 {
		data := pterm.TableData{{"Operation", "Requests", "Failed", "Cost"}}
		for _, o := range report.Operations {
			data = append(data, []string{
				o.OperationType,
				fmt.Sprintf("%d", o.RequestCount),
				fmt.Sprintf("%d", o.FailedCount),
				fmt.Sprintf("$%.4f", o.TotalCost),
			})
		}
		fmt.Println()
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}
	return nil
}
