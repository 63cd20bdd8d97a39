package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"backlot/internal/assets"
	"backlot/internal/deps"
	"backlot/internal/logging"
	"backlot/internal/runfile"
	"backlot/internal/state"
	"backlot/internal/worklock"
)

func newProduceCommand(ctx *commandContext) *cobra.Command {
	var idea string
	var style string
	var characterImage string
	var backgroundImage string
	var skipCritique bool

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Run a full production from a story idea",
		Long: "Produce plans the idea into scenes, generates reference assets, drafts one clip\n" +
			"per scene, optionally critiques and refines the drafts, and stitches the result\n" +
			"with captions into the output directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			concept := strings.TrimSpace(idea)
			if concept == "" {
				return errors.New("--idea is required")
			}
			if strings.TrimSpace(style) != "" {
				concept = fmt.Sprintf("%s\n\nVisual style preference: %s", concept, strings.TrimSpace(style))
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Fail before spending quota if the assembly toolchain is absent.
			statuses := deps.CheckBinaries(deps.ProductionRequirements(cfg.Assembly.FFmpegBinary, cfg.Assembly.FFprobeBinary))
			if missing := deps.FirstMissing(statuses); missing != nil {
				return fmt.Errorf("dependency %s unavailable: %s", missing.Name, missing.Detail)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			runID := newRunID()
			logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("backlot-%s.log", runID))
			logger, err := ctx.buildLogger(cfg, logPath)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lock, err := worklock.Acquire(cfg.Paths.WorkDir)
			if err != nil {
				if errors.Is(err, worklock.ErrBusy) {
					return fmt.Errorf("another production is already running in %s", cfg.Paths.WorkDir)
				}
				return err
			}
			defer lock.Release()

			assetOpts := assets.Options{
				CharacterFile:  cfg.Assets.CharacterFile,
				BackgroundFile: cfg.Assets.BackgroundFile,
			}
			if strings.TrimSpace(characterImage) != "" {
				assetOpts.CharacterFile = characterImage
			}
			if strings.TrimSpace(backgroundImage) != "" {
				assetOpts.BackgroundFile = backgroundImage
			}

			p, err := buildPipeline(cfg, logger, runID, assetOpts, skipCritique)
			if err != nil {
				return err
			}

			final, runErr := p.orch.Run(signalCtx, concept)
			if saveErr := runfile.Save(cfg.Paths.WorkDir, p.store.Snapshot()); saveErr != nil {
				logger.Warn("persist run artifacts", logging.Error(saveErr))
			}
			if runErr != nil {
				return runErr
			}
			if final.Phase != state.PhaseComplete {
				return fmt.Errorf("production halted in phase %s", final.Phase)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Production %s complete\n", runID)
			fmt.Fprintf(out, "Output: %s\n", filepath.Join(cfg.Paths.OutputDir, runID+".mp4"))
			return nil
		},
	}

	cmd.Flags().StringVar(&idea, "idea", "", "Story idea to produce (required)")
	cmd.Flags().StringVar(&style, "style", "", "Visual style hint passed to the planner")
	cmd.Flags().StringVar(&characterImage, "character-image", "", "Use this image as the character sheet instead of generating one")
	cmd.Flags().StringVar(&backgroundImage, "background-image", "", "Use this image as the background plate instead of generating one")
	cmd.Flags().BoolVar(&skipCritique, "skip-critique", false, "Skip the critique and refinement pass")
	return cmd
}
