package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"backlot/internal/captions"
	"backlot/internal/plan"
	"backlot/internal/runfile"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the director plan of a saved run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(runID)
			if target == "" {
				target, err = runfile.LatestRunID(cfg.Paths.WorkDir)
				if err != nil {
					return err
				}
			}
			saved, err := runfile.Load(cfg.Paths.WorkDir, target)
			if err != nil {
				return err
			}
			p := saved.Artifacts.Plan
			if p == nil {
				return fmt.Errorf("run %s has no plan recorded", target)
			}

			out := cmd.OutOrStdout()
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				encoded, err := json.MarshalIndent(p, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(encoded))
				return nil
			}

			fmt.Fprintf(out, "Run:         %s\n", target)
			fmt.Fprintf(out, "Subject:     %s\n", p.SubjectPrompt)
			fmt.Fprintf(out, "Environment: %s\n", p.EnvironmentPrompt)
			fmt.Fprintf(out, "Style:       %s\n", p.VisualStyle)
			fmt.Fprintf(out, "Total:       %.0fs over %d scenes\n\n", p.TotalSeconds(), len(p.Scenes))

			rows := make([][]string, 0, len(p.Scenes))
			for _, scene := range p.Scenes {
				rows = append(rows, []string{
					strconv.Itoa(scene.Order),
					scene.ID,
					fmt.Sprintf("%.0fs", scene.DurationSeconds),
					transitionLabel(scene),
					sceneSummary(scene),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Scene", "Duration", "Transition", "Action"}, rows, 1, 3))

			if cues, err := captions.Extract(p); err == nil && len(cues) > 0 {
				fmt.Fprintf(out, "\nDialogue cues: %d", len(cues))
				for _, cue := range cues {
					fmt.Fprintf(out, "\n  [%6.2fs] %s: %s", cue.Start, cue.Speaker, cue.Text)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run to show (defaults to the most recent)")
	return cmd
}

func transitionLabel(scene plan.Scene) string {
	if scene.Transition == nil {
		return "-"
	}
	return fmt.Sprintf("%s %.1fs", scene.Transition.Type, scene.Transition.Seconds)
}

// sceneSummary shows the first segment's action, truncated for table width.
func sceneSummary(scene plan.Scene) string {
	if len(scene.Segments) == 0 {
		return ""
	}
	summary := scene.Segments[0].Prompt
	if len(scene.Segments) > 1 {
		summary = fmt.Sprintf("%s (+%d segments)", summary, len(scene.Segments)-1)
	}
	if len(summary) > 70 {
		summary = summary[:67] + "..."
	}
	return summary
}
