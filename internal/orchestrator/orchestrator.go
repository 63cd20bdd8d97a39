package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"backlot/internal/assembly"
	"backlot/internal/assets"
	"backlot/internal/captions"
	"backlot/internal/critique"
	"backlot/internal/drafting"
	"backlot/internal/logging"
	"backlot/internal/notifications"
	"backlot/internal/plan"
	"backlot/internal/services"
	"backlot/internal/state"
)

// Planner produces a validated director plan from a concept.
type Planner interface {
	Plan(ctx context.Context, concept string) (*plan.DirectorPlan, error)
}

// AssetGenerator produces the reference images for a plan.
type AssetGenerator interface {
	Generate(ctx context.Context, p *plan.DirectorPlan) ([]assets.AssetItem, error)
}

// Drafter generates one clip per scene.
type Drafter interface {
	DraftScene(ctx context.Context, p *plan.DirectorPlan, sceneIndex int, refs []assets.AssetItem, feedback string) (drafting.VideoArtifact, error)
}

// Critic scores drafted shots. Optional; a nil critic skips the review pass.
type Critic interface {
	Evaluate(ctx context.Context, p *plan.DirectorPlan, shots []drafting.VideoArtifact) (*critique.EvalReport, error)
	Thresholds() critique.Thresholds
}

// Stitcher joins clips into one combined media file.
type Stitcher interface {
	Stitch(ctx context.Context, clips []assembly.Clip, transitions []assembly.Transition, outputPath string) error
}

// Options tunes the run sequencing.
type Options struct {
	SceneCooldown     time.Duration
	CritiqueEnabled   bool
	OutputDir         string
	DefaultTransition assembly.Transition
}

// Orchestrator drives one production run end-to-end, strictly sequentially.
// Scenes are drafted one at a time with a fixed cooldown between them: the
// provider's per-minute ceilings make parallel dispatch a quota-burning
// mistake, so wall-clock time is traded for reliability.
type Orchestrator struct {
	planner  Planner
	assets   AssetGenerator
	drafter  Drafter
	critic   Critic
	stitcher Stitcher
	notifier notifications.Service
	store    *state.Store
	opts     Options
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
}

// New wires an orchestrator around its collaborators.
func New(planner Planner, assetGen AssetGenerator, drafter Drafter, critic Critic, stitcher Stitcher, notifier notifications.Service, store *state.Store, opts Options, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notifications.NewService(notifications.Options{})
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.DefaultTransition.Seconds <= 0 {
		opts.DefaultTransition = assembly.DefaultTransition
	}
	return &Orchestrator{
		planner:  planner,
		assets:   assetGen,
		drafter:  drafter,
		critic:   critic,
		stitcher: stitcher,
		notifier: notifier,
		store:    store,
		opts:     opts,
		sleep:    sleepContext,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Run executes one full production: plan, assets, sequential drafting,
// optional critique and refinement, then rendering and delivery. Any
// unrecovered failure aborts the remaining sequence and records the error
// with all artifacts produced so far intact.
func (o *Orchestrator) Run(ctx context.Context, concept string) (state.ProductionState, error) {
	started := time.Now()
	o.store.Apply(state.Start{Concept: concept})
	ctx = services.WithRunID(ctx, o.store.Snapshot().RunID)

	p, err := o.planner.Plan(ctx, concept)
	if err != nil {
		return o.fail(ctx, "planning", err)
	}
	o.store.Apply(state.MergeArtifacts{Artifacts: state.Artifacts{Plan: p}})
	o.log(ctx, fmt.Sprintf("plan ready: %d scenes", len(p.Scenes)))
	_ = o.notifier.NotifyPlanReady(ctx, concept, len(p.Scenes))

	o.store.Apply(state.SetPhase{Phase: state.PhaseAssetGen})
	refs, err := o.assets.Generate(ctx, p)
	if err != nil {
		return o.fail(ctx, "asset generation", err)
	}
	o.store.Apply(state.MergeArtifacts{Artifacts: state.Artifacts{Assets: refs}})
	o.log(ctx, fmt.Sprintf("assets ready: %d references", len(refs)))
	_ = o.notifier.NotifyAssetsReady(ctx, len(refs))

	o.store.Apply(state.SetPhase{Phase: state.PhaseDrafting})
	for i := range p.Scenes {
		if i > 0 && o.opts.SceneCooldown > 0 {
			if err := o.sleep(ctx, o.opts.SceneCooldown); err != nil {
				return o.fail(ctx, "drafting", err)
			}
		}
		shot, err := o.drafter.DraftScene(ctx, p, i, refs, "")
		if err != nil {
			return o.fail(ctx, "drafting", err)
		}
		o.store.Apply(state.ReplaceShot{Index: i, Shot: shot})
		o.log(ctx, fmt.Sprintf("scene %s drafted (%d/%d)", shot.SceneID, i+1, len(p.Scenes)))
		_ = o.notifier.NotifySceneDrafted(ctx, shot.SceneID, i+1, len(p.Scenes))
	}

	if o.opts.CritiqueEnabled && o.critic != nil {
		if err := o.reviewAndRefine(ctx, p, refs); err != nil {
			return o.fail(ctx, "critique", err)
		}
	}

	o.store.Apply(state.SetPhase{Phase: state.PhaseRendering})
	outputFile, err := o.Deliver(ctx)
	if err != nil {
		return o.fail(ctx, "rendering", err)
	}

	final := o.store.Apply(state.SetPhase{Phase: state.PhaseComplete})
	o.log(ctx, "production complete")
	_ = o.notifier.NotifyProductionComplete(ctx, outputFile, time.Since(started))
	return final, nil
}

// reviewAndRefine runs the critique pass and, when shots fall below the bar,
// a single refinement round: each failing shot is redrafted with the
// critic's feedback appended to its prompt.
func (o *Orchestrator) reviewAndRefine(ctx context.Context, p *plan.DirectorPlan, refs []assets.AssetItem) error {
	o.store.Apply(state.SetPhase{Phase: state.PhaseCritique})
	shots := o.store.Snapshot().Artifacts.Shots
	report, err := o.critic.Evaluate(ctx, p, shots)
	if err != nil {
		return err
	}
	o.store.Apply(state.MergeArtifacts{Artifacts: state.Artifacts{Eval: report}})
	failing := report.FailingShots(o.critic.Thresholds())
	pass := report.Pass(o.critic.Thresholds())
	o.log(ctx, fmt.Sprintf("critique complete: pass=%t failing=%d", pass, len(failing)))
	_ = o.notifier.NotifyCritiqueComplete(ctx, pass, len(failing))
	if pass {
		return nil
	}

	o.store.Apply(state.SetPhase{Phase: state.PhaseRefining})
	for _, index := range failing {
		if o.opts.SceneCooldown > 0 {
			if err := o.sleep(ctx, o.opts.SceneCooldown); err != nil {
				return err
			}
		}
		feedback := report.Shots[index].Feedback
		shot, err := o.drafter.DraftScene(ctx, p, index, refs, feedback)
		if err != nil {
			return err
		}
		shot.Version = shots[index].Version + 1
		o.store.Apply(state.ReplaceShot{Index: index, Shot: shot})
		o.log(ctx, fmt.Sprintf("scene %s refined to version %d", shot.SceneID, shot.Version))
	}
	return nil
}

// RegenerateShot redrafts a single scene out-of-band with free-text feedback
// and swaps it into the artifact list with a bumped version. It never
// re-triggers planning or asset generation.
func (o *Orchestrator) RegenerateShot(ctx context.Context, index int, feedback string) (drafting.VideoArtifact, error) {
	snapshot := o.store.Snapshot()
	p := snapshot.Artifacts.Plan
	if p == nil {
		return drafting.VideoArtifact{}, services.Wrap(services.ErrValidation, "orchestrator", "regen", "no plan on record", nil)
	}
	if index < 0 || index >= len(p.Scenes) {
		return drafting.VideoArtifact{}, services.Wrap(services.ErrValidation, "orchestrator", "regen",
			fmt.Sprintf("scene index %d out of range", index), nil)
	}
	ctx = services.WithRunID(ctx, snapshot.RunID)

	shot, err := o.drafter.DraftScene(ctx, p, index, snapshot.Artifacts.Assets, feedback)
	if err != nil {
		return drafting.VideoArtifact{}, err
	}
	if index < len(snapshot.Artifacts.Shots) {
		shot.Version = snapshot.Artifacts.Shots[index].Version + 1
	}
	o.store.Apply(state.ReplaceShot{Index: index, Shot: shot})
	o.log(ctx, fmt.Sprintf("scene %s regenerated to version %d", shot.SceneID, shot.Version))
	return shot, nil
}

// Deliver stitches the drafted shots and writes the combined file, plus a
// caption track when the plan carries dialogue, into the output directory.
// It returns the combined file's path.
func (o *Orchestrator) Deliver(ctx context.Context) (string, error) {
	snapshot := o.store.Snapshot()
	p := snapshot.Artifacts.Plan
	if p == nil {
		return "", services.Wrap(services.ErrValidation, "orchestrator", "deliver", "no plan on record", nil)
	}
	shots := snapshot.Artifacts.Shots
	if len(shots) != len(p.Scenes) {
		return "", services.Wrap(services.ErrValidation, "orchestrator", "deliver",
			fmt.Sprintf("%d shots for %d scenes", len(shots), len(p.Scenes)), nil)
	}

	clips := make([]assembly.Clip, len(shots))
	for i, shot := range shots {
		clips[i] = assembly.Clip{Name: shot.SceneID, Data: shot.Media}
	}
	transitions := o.boundaryTransitions(p)

	outputFile := filepath.Join(o.opts.OutputDir, snapshot.RunID+".mp4")
	if err := o.stitcher.Stitch(ctx, clips, transitions, outputFile); err != nil {
		return "", err
	}

	cues, err := captions.Extract(p)
	if err != nil {
		return "", err
	}
	if len(cues) > 0 {
		captionFile := filepath.Join(o.opts.OutputDir, snapshot.RunID+".srt")
		if err := writeFile(captionFile, captions.RenderSRT(cues)); err != nil {
			return "", services.Wrap(services.ErrAssembly, "orchestrator", "deliver", "write captions", err)
		}
		o.log(ctx, fmt.Sprintf("caption track written: %d cues", len(cues)))
	}
	return outputFile, nil
}

// boundaryTransitions builds the per-boundary transition list: a scene's own
// transition spec when present, the configured default otherwise.
func (o *Orchestrator) boundaryTransitions(p *plan.DirectorPlan) []assembly.Transition {
	if len(p.Scenes) < 2 {
		return nil
	}
	transitions := make([]assembly.Transition, len(p.Scenes)-1)
	for i := 0; i < len(p.Scenes)-1; i++ {
		if spec := p.Scenes[i].Transition; spec != nil {
			transitions[i] = assembly.Transition{Type: spec.Type, Seconds: spec.Seconds}
			continue
		}
		transitions[i] = o.opts.DefaultTransition
	}
	return transitions
}

func (o *Orchestrator) fail(ctx context.Context, phase string, err error) (state.ProductionState, error) {
	final := o.store.Apply(state.Fail{Message: err.Error()})
	o.logger.Error("production failed",
		logging.String("phase", phase),
		logging.Error(err),
	)
	_ = o.notifier.NotifyError(ctx, err, phase)
	return final, err
}

func (o *Orchestrator) log(ctx context.Context, message string) {
	o.store.Apply(state.AppendLog{At: time.Now(), Message: message})
	logging.WithContext(ctx, o.logger).Info(message)
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

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
