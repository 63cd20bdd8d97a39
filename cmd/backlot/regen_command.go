package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"backlot/internal/assets"
	"backlot/internal/logging"
	"backlot/internal/runfile"
	"backlot/internal/state"
	"backlot/internal/worklock"
)

func newRegenCommand(ctx *commandContext) *cobra.Command {
	var feedback string
	var runID string

	cmd := &cobra.Command{
		Use:   "regen <scene-index>",
		Short: "Regenerate one shot of a saved run",
		Long: "Regen redrafts a single scene with optional free-text feedback, bumps its\n" +
			"version, and re-stitches the combined output. Planning and asset generation\n" +
			"are never repeated.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("scene index must be a number: %w", err)
			}

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

			lock, err := worklock.Acquire(cfg.Paths.WorkDir)
			if err != nil {
				if errors.Is(err, worklock.ErrBusy) {
					return fmt.Errorf("another production is already running in %s", cfg.Paths.WorkDir)
				}
				return err
			}
			defer lock.Release()

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

			// Critique is an in-run pass; regen is already operator-driven.
			p, err := buildPipeline(cfg, logger, target, assets.Options{}, true)
			if err != nil {
				return err
			}
			p.store.Apply(state.MergeArtifacts{Artifacts: saved.Artifacts})

			shot, err := p.orch.RegenerateShot(signalCtx, index, strings.TrimSpace(feedback))
			if err != nil {
				return err
			}

			outputFile, err := p.orch.Deliver(signalCtx)
			if err != nil {
				return err
			}

			snapshot := p.store.Snapshot()
			snapshot.Concept = saved.Concept
			snapshot.Phase = state.PhaseComplete
			if err := runfile.Save(cfg.Paths.WorkDir, snapshot); err != nil {
				logger.Warn("persist run artifacts", logging.Error(err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scene %d regenerated (version %d)\n", index, shot.Version)
			fmt.Fprintf(out, "Output: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&feedback, "feedback", "", "Revision notes steering the retake")
	cmd.Flags().StringVar(&runID, "run", "", "Run to modify (defaults to the most recent)")
	return cmd
}
