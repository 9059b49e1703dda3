package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/slideinspo/artifact"
	"github.com/teranos/slideinspo/display"
	"github.com/teranos/slideinspo/resolve"
	"github.com/teranos/slideinspo/sym"
)

// ResolveCmd finds the slide for a single storypoint
var ResolveCmd = &cobra.Command{
	Use:   "resolve [storypoint]",
	Short: sym.Graph + " Find the slide for a single storypoint",
	Long: sym.Graph + ` resolve — match one storypoint against the slide graph

With -i, read storypoints from stdin one per line. Earlier questions and
answers are replayed to the model so follow-ups like "something more upbeat"
work. Type /reset to forget the conversation, /quit to leave.

Examples:
  slideinspo resolve "Diversification lowers portfolio risk"
  slideinspo resolve -i`,
	RunE: runResolve,
}

var (
	resolveInteractive bool
	resolveTurns       int
	resolveQuery       string
)

func init() {
	ResolveCmd.Flags().BoolVarP(&resolveInteractive, "interactive", "i", false, "Read storypoints from stdin as a conversation")
	ResolveCmd.Flags().IntVar(&resolveTurns, "turns", resolve.DefaultMaxTurns, "Conversation turns replayed in interactive mode")
	ResolveCmd.Flags().StringVar(&resolveQuery, "query", "", "Override the graph context query")
}

func runResolve(cmd *cobra.Command, args []string) error {
	if !resolveInteractive && len(args) == 0 {
		return fmt.Errorf("a storypoint is required (or use -i)")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	gc, err := a.loadContext(ctx, resolveQuery)
	if err != nil {
		return err
	}
	images := artifact.ImagePath{BaseDir: a.cfg.Slides.BaseDir}

	if !resolveInteractive {
		res := a.resolver().Resolve(ctx, strings.Join(args, " "), gc)
		if a.json {
			return display.OutputJSON(resolutionOutput(res, images))
		}
		printResolution(res, images)
		if res.Status == resolve.StatusFailed {
			return res.Err
		}
		return nil
	}

	conv := a.resolver().NewConversation(gc, resolveTurns)
	scanner := bufio.NewScanner(os.Stdin)
	pterm.Info.Printf("%d slides in context. /reset forgets the conversation, /quit leaves.\n", gc.Len())
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			conv.Reset()
			pterm.Info.Println("Conversation cleared")
			continue
		}

		res := conv.Ask(ctx, line)
		if a.json {
			if err := display.OutputJSON(resolutionOutput(res, images)); err != nil {
				return err
			}
			continue
		}
		printResolution(res, images)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

type resolutionJSON struct {
	Status resolve.Status `json:"status"`
	Slide  string         `json:"slide,omitempty"`
	Path   string         `json:"path,omitempty"`
	Answer string         `json:"answer,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func resolutionOutput(res resolve.Resolution, images artifact.ImagePath) resolutionJSON {
	out := resolutionJSON{Status: res.Status, Answer: res.Raw}
	if res.Found() {
		out.Slide = res.ID.String()
		out.Path = images.Path(res.ID)
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func printResolution(res resolve.Resolution, images artifact.ImagePath) {
	switch res.Status {
	case resolve.StatusFound:
		pterm.Printf("%s %s  %s\n", pterm.Green(sym.Slide), res.ID.String(), pterm.Gray(images.Path(res.ID)))
	case resolve.StatusFailed:
		pterm.Printf("%s %s\n", pterm.Red(sym.Missing), pterm.Red(res.Err.Error()))
	default:
		pterm.Printf("%s no slide identifier in answer: %s\n", pterm.Yellow(sym.Missing), pterm.Gray(res.Raw))
	}
}
