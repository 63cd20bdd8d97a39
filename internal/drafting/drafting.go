package drafting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"backlot/internal/assets"
	"backlot/internal/logging"
	"backlot/internal/plan"
	"backlot/internal/quota"
	"backlot/internal/services"
)

// VideoArtifact is one generated clip, tied back to its scene.
type VideoArtifact struct {
	SceneID   string `json:"scene_id"`
	ShotID    string `json:"shot_id"`
	Version   int    `json:"version"`
	RemoteRef string `json:"remote_ref,omitempty"`
	Media     []byte `json:"-"`
}

// PollStatus is one observation of an in-flight clip generation.
type PollStatus struct {
	Done      bool
	Media     []byte
	RemoteRef string
}

// VideoService starts asynchronous clip generations and reports on them.
type VideoService interface {
	StartVideo(ctx context.Context, prompt string, references [][]byte, durationSeconds float64) (string, error)
	PollVideo(ctx context.Context, operation string) (PollStatus, error)
}

// QuotaGate throttles outbound model calls by category.
type QuotaGate interface {
	Acquire(ctx context.Context, category quota.Category) error
}

// FailedError reports that a scene exhausted its drafting attempts.
type FailedError struct {
	SceneIndex int
	Attempts   int
	Err        error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("scene %d failed after %d attempts: %v", e.SceneIndex+1, e.Attempts, e.Err)
}

func (e *FailedError) Unwrap() error { return e.Err }

// Options tunes the drafting loop.
type Options struct {
	MaxAttempts     int
	PollInterval    time.Duration
	AttemptCooldown time.Duration
}

const (
	defaultMaxAttempts     = 3
	defaultPollInterval    = 10 * time.Second
	defaultAttemptCooldown = 20 * time.Second
)

// Executor drafts one clip per scene, retrying transient failures with a
// linearly growing cooldown between attempts.
type Executor struct {
	videos VideoService
	gate   QuotaGate
	opts   Options
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// NewExecutor wires a drafting executor with defaults filled in.
func NewExecutor(videos VideoService, gate QuotaGate, opts Options, logger *slog.Logger) *Executor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.AttemptCooldown <= 0 {
		opts.AttemptCooldown = defaultAttemptCooldown
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		videos: videos,
		gate:   gate,
		opts:   opts,
		sleep:  sleepContext,
		logger: logging.NewComponentLogger(logger, "drafting"),
	}
}

// DraftScene generates the clip for one scene. Each attempt passes through
// the video quota gate before calling out; a completed generation with no
// media counts as a failed attempt. Feedback, when present, is appended to
// the prompt so refinements steer the retake.
func (ex *Executor) DraftScene(ctx context.Context, p *plan.DirectorPlan, sceneIndex int, refs []assets.AssetItem, feedback string) (VideoArtifact, error) {
	if p == nil || sceneIndex < 0 || sceneIndex >= len(p.Scenes) {
		return VideoArtifact{}, services.Wrap(services.ErrValidation, "drafting", "draft",
			fmt.Sprintf("scene index %d out of range", sceneIndex), nil)
	}
	scene := p.Scenes[sceneIndex]
	prompt := BuildShotPrompt(p, scene, feedback)
	images := referenceImages(refs)

	var lastErr error
	for attempt := 1; attempt <= ex.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			// Cooldown grows linearly with the attempt number about to run.
			cooldown := time.Duration(attempt) * ex.opts.AttemptCooldown
			ex.logger.Warn("attempt failed, cooling down",
				logging.String("scene_id", scene.ID),
				logging.Int("attempt", attempt-1),
				logging.Duration("cooldown", cooldown),
				logging.Error(lastErr),
			)
			if err := ex.sleep(ctx, cooldown); err != nil {
				return VideoArtifact{}, err
			}
		}

		artifact, err := ex.attempt(ctx, scene, prompt, images)
		if err == nil {
			artifact.Version = 1
			ex.logger.Info("scene drafted",
				logging.String("scene_id", scene.ID),
				logging.String("shot_id", artifact.ShotID),
				logging.Int("attempt", attempt),
			)
			return artifact, nil
		}
		lastErr = err
		if !services.IsRetryable(err) {
			return VideoArtifact{}, &FailedError{SceneIndex: sceneIndex, Attempts: attempt, Err: err}
		}
	}
	return VideoArtifact{}, &FailedError{SceneIndex: sceneIndex, Attempts: ex.opts.MaxAttempts, Err: lastErr}
}

func (ex *Executor) attempt(ctx context.Context, scene plan.Scene, prompt string, images [][]byte) (VideoArtifact, error) {
	if ex.gate != nil {
		if err := ex.gate.Acquire(ctx, quota.CategoryVideo); err != nil {
			return VideoArtifact{}, err
		}
	}
	operation, err := ex.videos.StartVideo(ctx, prompt, images, scene.DurationSeconds)
	if err != nil {
		return VideoArtifact{}, err
	}

	for {
		status, err := ex.videos.PollVideo(ctx, operation)
		if err != nil {
			return VideoArtifact{}, err
		}
		if status.Done {
			if len(status.Media) == 0 {
				return VideoArtifact{}, services.Wrap(services.ErrEmptyResult, "drafting", "poll", "generation finished with no media", nil)
			}
			return VideoArtifact{
				SceneID:   scene.ID,
				ShotID:    uuid.NewString(),
				RemoteRef: status.RemoteRef,
				Media:     status.Media,
			}, nil
		}
		if err := ex.sleep(ctx, ex.opts.PollInterval); err != nil {
			return VideoArtifact{}, err
		}
	}
}

// BuildShotPrompt assembles the full clip prompt: subject and environment
// anchors, the scene's timed action, the global style, and any critique
// feedback for a retake.
func BuildShotPrompt(p *plan.DirectorPlan, scene plan.Scene, feedback string) string {
	var b strings.Builder
	if subject := strings.TrimSpace(p.SubjectPrompt); subject != "" {
		b.WriteString("Subject: " + subject + "\n")
	}
	if env := strings.TrimSpace(p.EnvironmentPrompt); env != "" {
		b.WriteString("Environment: " + env + "\n")
	}
	master := strings.TrimSpace(scene.MasterPrompt)
	if master == "" {
		master = strings.TrimSpace(plan.BuildMasterPrompt(scene))
	}
	if master != "" {
		b.WriteString("Action:\n" + master + "\n")
	}
	if style := strings.TrimSpace(p.VisualStyle); style != "" {
		b.WriteString("Style: " + style + "\n")
	}
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		b.WriteString("Revision notes: " + feedback + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func referenceImages(items []assets.AssetItem) [][]byte {
	images := make([][]byte, 0, len(items))
	for _, item := range items {
		if len(item.Data) > 0 {
			images = append(images, item.Data)
		}
	}
	return images
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
