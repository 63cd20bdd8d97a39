package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"backlot/internal/assembly"
	"backlot/internal/deps"
)

func newStitchCommand(ctx *commandContext) *cobra.Command {
	var transition string
	var transitionDuration float64
	var outputPath string

	cmd := &cobra.Command{
		Use:   "stitch <clips...>",
		Short: "Stitch clip files into one combined video",
		Long: "Stitch joins the given clips in argument order with crossfade transitions.\n" +
			"A single clip is copied verbatim without transcoding.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			// A lone clip is copied verbatim; only joins need the toolchain.
			if len(args) > 1 {
				statuses := deps.CheckBinaries(deps.ProductionRequirements(cfg.Assembly.FFmpegBinary, cfg.Assembly.FFprobeBinary))
				if missing := deps.FirstMissing(statuses); missing != nil {
					return fmt.Errorf("dependency %s unavailable: %s", missing.Name, missing.Detail)
				}
			}

			clips := make([]assembly.Clip, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read clip: %w", err)
				}
				clips = append(clips, assembly.Clip{Name: filepath.Base(path), Data: data})
			}

			kind := strings.TrimSpace(transition)
			if kind == "" {
				kind = cfg.Assembly.DefaultTransition
			}
			seconds := transitionDuration
			if seconds <= 0 {
				seconds = cfg.Assembly.DefaultTransitionDuration
			}
			var transitions []assembly.Transition
			for i := 0; i < len(clips)-1; i++ {
				transitions = append(transitions, assembly.Transition{Type: kind, Seconds: seconds})
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = filepath.Join(cfg.Paths.OutputDir, "combined.mp4")
			}

			engine := assembly.NewEngine(assembly.Options{
				FFmpegBinary:  cfg.Assembly.FFmpegBinary,
				FFprobeBinary: cfg.Assembly.FFprobeBinary,
				WorkDir:       cfg.Paths.WorkDir,
			}, logger)
			if err := engine.Stitch(signalCtx, clips, transitions, target); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stitched %d clips into %s\n", len(clips), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&transition, "transition", "", "Transition type between clips (default from config)")
	cmd.Flags().Float64Var(&transitionDuration, "transition-duration", 0, "Transition duration in seconds (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Combined file destination")
	return cmd
}
