package main

import (
	"context"
	"log/slog"
	"time"

	"backlot/internal/assembly"
	"backlot/internal/assets"
	"backlot/internal/config"
	"backlot/internal/critique"
	"backlot/internal/drafting"
	"backlot/internal/notifications"
	"backlot/internal/orchestrator"
	"backlot/internal/plan"
	"backlot/internal/quota"
	"backlot/internal/services/gemini"
	"backlot/internal/state"
)

// imageService adapts the provider client to the asset generator's
// narrow interface.
type imageService struct {
	client *gemini.Client
}

func (s imageService) GenerateImage(ctx context.Context, prompt string, references [][]byte) ([]byte, error) {
	return s.client.GenerateImage(ctx, gemini.ImageRequest{Prompt: prompt, References: references})
}

// videoService adapts the provider client to the drafting executor's
// operation-handle view of asynchronous clip generation.
type videoService struct {
	client *gemini.Client
}

func (s videoService) StartVideo(ctx context.Context, prompt string, references [][]byte, durationSeconds float64) (string, error) {
	op, err := s.client.StartVideo(ctx, gemini.VideoRequest{
		Prompt:          prompt,
		References:      references,
		DurationSeconds: durationSeconds,
	})
	if err != nil {
		return "", err
	}
	return op.Name, nil
}

func (s videoService) PollVideo(ctx context.Context, operation string) (drafting.PollStatus, error) {
	result, err := s.client.PollOperation(ctx, &gemini.Operation{Name: operation})
	if err != nil {
		return drafting.PollStatus{}, err
	}
	return drafting.PollStatus{
		Done:      result.Done,
		Media:     result.Media,
		RemoteRef: result.MediaURI,
	}, nil
}

// pipeline bundles everything a production run needs.
type pipeline struct {
	store    *state.Store
	orch     *orchestrator.Orchestrator
	engine   *assembly.Engine
	notifier notifications.Service
}

// buildPipeline wires the full production stack from configuration: provider
// client, quota governor, planner, asset generator, drafting executor,
// optional critic, assembly engine, and the orchestrator on top.
func buildPipeline(cfg *config.Config, logger *slog.Logger, runID string, assetOpts assets.Options, skipCritique bool) (*pipeline, error) {
	client, err := gemini.NewClient(gemini.Options{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		TextModel:      cfg.Gemini.TextModel,
		ImageModel:     cfg.Gemini.ImageModel,
		VideoModel:     cfg.Gemini.VideoModel,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	governor := quota.NewGovernor(map[quota.Category]time.Duration{
		quota.CategoryVideo: time.Duration(cfg.Quota.VideoIntervalSeconds) * time.Second,
		quota.CategoryImage: time.Duration(cfg.Quota.ImageIntervalSeconds) * time.Second,
		quota.CategoryText:  time.Duration(cfg.Quota.TextIntervalSeconds) * time.Second,
	})

	planner := plan.NewPlanner(client, governor, logger)
	assetGen := assets.NewGenerator(imageService{client: client}, governor, assetOpts, logger)
	drafter := drafting.NewExecutor(videoService{client: client}, governor, drafting.Options{
		MaxAttempts:     cfg.Drafting.MaxAttempts,
		PollInterval:    time.Duration(cfg.Drafting.PollIntervalSeconds) * time.Second,
		AttemptCooldown: time.Duration(cfg.Drafting.AttemptCooldownSeconds) * time.Second,
	}, logger)

	critiqueEnabled := cfg.Critique.Enabled && !skipCritique
	var critic orchestrator.Critic
	if critiqueEnabled {
		critic = critique.NewCritic(client, governor, critique.Thresholds{
			ShotPassScore:     cfg.Critique.ShotPassScore,
			FidelityPassScore: cfg.Critique.FidelityPassScore,
		}, logger)
	}

	engine := assembly.NewEngine(assembly.Options{
		FFmpegBinary:  cfg.Assembly.FFmpegBinary,
		FFprobeBinary: cfg.Assembly.FFprobeBinary,
		WorkDir:       cfg.Paths.WorkDir,
	}, logger)
	notifier := notifications.NewService(notifications.Options{
		Topic:          cfg.Notifications.NtfyTopic,
		TimeoutSeconds: cfg.Notifications.RequestTimeout,
	})

	store := state.NewStore(runID, logger)
	orch := orchestrator.New(planner, assetGen, drafter, critic, engine, notifier, store, orchestrator.Options{
		SceneCooldown:   time.Duration(cfg.Drafting.SceneCooldownSeconds) * time.Second,
		CritiqueEnabled: critiqueEnabled,
		OutputDir:       cfg.Paths.OutputDir,
		DefaultTransition: assembly.Transition{
			Type:    cfg.Assembly.DefaultTransition,
			Seconds: cfg.Assembly.DefaultTransitionDuration,
		},
	}, logger)

	return &pipeline{store: store, orch: orch, engine: engine, notifier: notifier}, nil
}

// newRunID yields a sortable identifier used for output and log file names.
func newRunID() string {
	return time.Now().UTC().Format("20060102T150405")
}
