package critique

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"backlot/internal/drafting"
	"backlot/internal/logging"
	"backlot/internal/plan"
	"backlot/internal/quota"
	"backlot/internal/services"
)

// Flaw pinpoints one defect the critic observed in a clip.
type Flaw struct {
	TimestampSeconds float64 `json:"timestamp_seconds"`
	Kind             string  `json:"kind"`
}

// ShotScore is the critique verdict for one drafted clip.
type ShotScore struct {
	SceneID           string  `json:"scene_id"`
	TemporalCoherence float64 `json:"temporal_coherence"`
	SemanticAccuracy  float64 `json:"semantic_accuracy"`
	TechnicalQuality  float64 `json:"technical_quality"`
	Overall           float64 `json:"overall"`
	Flaws             []Flaw  `json:"flaws,omitempty"`
	Feedback          string  `json:"feedback,omitempty"`
}

// EvalReport is the full critique pass over a production's shots.
type EvalReport struct {
	Shots             []ShotScore `json:"shots"`
	CharacterFidelity float64     `json:"character_fidelity"`
	Summary           string      `json:"summary,omitempty"`
}

// Thresholds are the pass bars for a critique report.
type Thresholds struct {
	ShotPassScore     float64
	FidelityPassScore float64
}

// DefaultThresholds matches the standard acceptance bar.
var DefaultThresholds = Thresholds{ShotPassScore: 8.5, FidelityPassScore: 8.0}

// Pass reports whether every shot clears the per-shot bar and the production
// clears the character fidelity bar.
func (r *EvalReport) Pass(t Thresholds) bool {
	if len(r.Shots) == 0 {
		return false
	}
	for _, shot := range r.Shots {
		if shot.Overall < t.ShotPassScore {
			return false
		}
	}
	return r.CharacterFidelity >= t.FidelityPassScore
}

// FailingShots returns the indexes of shots below the per-shot bar.
func (r *EvalReport) FailingShots(t Thresholds) []int {
	var failing []int
	for i, shot := range r.Shots {
		if shot.Overall < t.ShotPassScore {
			failing = append(failing, i)
		}
	}
	return failing
}

// TextGenerator produces structured JSON from a prompt.
type TextGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema any) ([]byte, error)
}

// QuotaGate throttles outbound model calls by category.
type QuotaGate interface {
	Acquire(ctx context.Context, category quota.Category) error
}

// Critic scores drafted shots against the plan.
type Critic struct {
	generator  TextGenerator
	gate       QuotaGate
	thresholds Thresholds
	logger     *slog.Logger
}

// NewCritic wires a critic. Zero thresholds fall back to the defaults.
func NewCritic(generator TextGenerator, gate QuotaGate, thresholds Thresholds, logger *slog.Logger) *Critic {
	if thresholds.ShotPassScore <= 0 {
		thresholds.ShotPassScore = DefaultThresholds.ShotPassScore
	}
	if thresholds.FidelityPassScore <= 0 {
		thresholds.FidelityPassScore = DefaultThresholds.FidelityPassScore
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Critic{
		generator:  generator,
		gate:       gate,
		thresholds: thresholds,
		logger:     logging.NewComponentLogger(logger, "critique"),
	}
}

// Thresholds returns the pass bars the critic applies.
func (c *Critic) Thresholds() Thresholds { return c.thresholds }

// Evaluate scores every shot against its scene brief and returns the report.
func (c *Critic) Evaluate(ctx context.Context, p *plan.DirectorPlan, shots []drafting.VideoArtifact) (*EvalReport, error) {
	if p == nil {
		return nil, services.Wrap(services.ErrValidation, "critique", "evaluate", "plan required", nil)
	}
	if len(shots) == 0 {
		return nil, services.Wrap(services.ErrValidation, "critique", "evaluate", "no shots to evaluate", nil)
	}
	if c.gate != nil {
		if err := c.gate.Acquire(ctx, quota.CategoryText); err != nil {
			return nil, err
		}
	}

	raw, err := c.generator.GenerateStructured(ctx, buildCritiquePrompt(p, shots), reportSchema())
	if err != nil {
		return nil, err
	}
	var report EvalReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, services.Wrap(services.ErrValidation, "critique", "evaluate", "decode report", err)
	}
	if len(report.Shots) != len(shots) {
		return nil, services.Wrap(services.ErrValidation, "critique", "evaluate",
			fmt.Sprintf("report covers %d shots, expected %d", len(report.Shots), len(shots)), nil)
	}

	c.logger.Info("critique complete",
		logging.Int("shots", len(report.Shots)),
		logging.Float64("character_fidelity", report.CharacterFidelity),
		logging.Bool("pass", report.Pass(c.thresholds)),
	)
	return &report, nil
}

func buildCritiquePrompt(p *plan.DirectorPlan, shots []drafting.VideoArtifact) string {
	var b strings.Builder
	b.WriteString("You are a film critic reviewing generated clips against their briefs.\n")
	b.WriteString("Score each shot 0-10 for temporal coherence, semantic accuracy, and technical quality, ")
	b.WriteString("give an overall score, list concrete flaws (timestamp in seconds into the clip plus the kind of defect), ")
	b.WriteString("and write actionable feedback for a retake.\n")
	b.WriteString("Also score how consistently the main character looks across all shots (character_fidelity, 0-10).\n\n")
	fmt.Fprintf(&b, "Subject: %s\nEnvironment: %s\nStyle: %s\n\n", p.SubjectPrompt, p.EnvironmentPrompt, p.VisualStyle)
	for i, shot := range shots {
		scene := sceneByID(p, shot.SceneID)
		fmt.Fprintf(&b, "Shot %d (scene %s):\n", i+1, shot.SceneID)
		if scene != nil {
			b.WriteString(scene.MasterPrompt)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func sceneByID(p *plan.DirectorPlan, id string) *plan.Scene {
	for i := range p.Scenes {
		if p.Scenes[i].ID == id {
			return &p.Scenes[i]
		}
	}
	return nil
}

func reportSchema() map[string]any {
	shot := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scene_id":           map[string]any{"type": "string"},
			"temporal_coherence": map[string]any{"type": "number"},
			"semantic_accuracy":  map[string]any{"type": "number"},
			"technical_quality":  map[string]any{"type": "number"},
			"overall":            map[string]any{"type": "number"},
			"flaws": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"timestamp_seconds": map[string]any{"type": "number"},
						"kind":              map[string]any{"type": "string"},
					},
					"required": []string{"timestamp_seconds", "kind"},
				},
			},
			"feedback": map[string]any{"type": "string"},
		},
		"required": []string{"scene_id", "temporal_coherence", "semantic_accuracy", "technical_quality", "overall"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shots":              map[string]any{"type": "array", "items": shot},
			"character_fidelity": map[string]any{"type": "number"},
			"summary":            map[string]any{"type": "string"},
		},
		"required": []string{"shots", "character_fidelity"},
	}
}
