package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"backlot/internal/captions"
	"backlot/internal/plan"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:         "captions <plan.json>",
		Short:       "Derive an SRT caption track from a director plan",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read plan: %w", err)
			}
			var p plan.DirectorPlan
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decode plan: %w", err)
			}

			cues, err := captions.Extract(&p)
			if err != nil {
				return err
			}
			if len(cues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No dialogue cues found in the plan.")
				return nil
			}

			srt := captions.RenderSRT(cues)
			if target := strings.TrimSpace(outputPath); target != "" {
				if err := os.WriteFile(target, []byte(srt), 0o644); err != nil {
					return fmt.Errorf("write captions: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cues to %s\n", len(cues), target)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), srt)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the SRT here instead of stdout")
	return cmd
}
