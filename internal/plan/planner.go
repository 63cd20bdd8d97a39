package plan

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"backlot/internal/logging"
	"backlot/internal/quota"
	"backlot/internal/retry"
	"backlot/internal/services"
)

// TextGenerator produces structured JSON from a prompt. Satisfied by the
// gemini client.
type TextGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema any) ([]byte, error)
}

// QuotaGate throttles outbound model calls by category.
type QuotaGate interface {
	Acquire(ctx context.Context, category quota.Category) error
}

const planAttempts = 3

// Planner turns a story concept into a validated director plan. Transient
// generation failures are retried with jittered exponential backoff; the
// quota gate is re-acquired before every attempt.
type Planner struct {
	generator TextGenerator
	gate      QuotaGate
	backoff   *retry.Policy
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
}

// NewPlanner wires a planner around a text generator and quota gate.
func NewPlanner(generator TextGenerator, gate QuotaGate, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{
		generator: generator,
		gate:      gate,
		backoff:   retry.NewPolicy(),
		sleep:     sleepContext,
		logger:    logging.NewComponentLogger(logger, "plan"),
	}
}

// Plan requests a shot breakdown for the concept, validates it, and derives
// the per-scene master prompts. The returned plan is ready for asset and
// clip generation.
func (pl *Planner) Plan(ctx context.Context, concept string) (*DirectorPlan, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return nil, services.Wrap(services.ErrValidation, "plan", "plan", "concept required", nil)
	}
	raw, err := pl.generate(ctx, concept)
	if err != nil {
		return nil, err
	}

	var result DirectorPlan
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, services.Wrap(services.ErrTransient, "plan", "plan", "decode plan payload", err)
	}
	if err := Validate(&result); err != nil {
		return nil, err
	}
	DeriveMasterPrompts(&result)

	pl.logger.Info("plan ready",
		logging.Int("scenes", len(result.Scenes)),
		logging.Float64("total_seconds", result.TotalSeconds()),
		logging.String("visual_style", result.VisualStyle),
	)
	return &result, nil
}

// generate issues the structured generation call, retrying transient
// failures with backoff. Validation errors fail fast.
func (pl *Planner) generate(ctx context.Context, concept string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < planAttempts; attempt++ {
		if attempt > 0 {
			delay := pl.backoff.Delay(attempt - 1)
			pl.logger.Warn("planning retry",
				logging.Int("attempt", attempt+1),
				logging.Duration("backoff", delay),
				logging.Error(lastErr),
			)
			if err := pl.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		if pl.gate != nil {
			if err := pl.gate.Acquire(ctx, quota.CategoryText); err != nil {
				return nil, err
			}
		}

		raw, err := pl.generator.GenerateStructured(ctx, BuildPlanningPrompt(concept), ResponseSchema())
		if err == nil {
			return raw, nil
		}
		if !services.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
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
