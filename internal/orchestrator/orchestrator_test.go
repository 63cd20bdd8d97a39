package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"backlot/internal/assembly"
	"backlot/internal/assets"
	"backlot/internal/critique"
	"backlot/internal/drafting"
	"backlot/internal/plan"
	"backlot/internal/services"
	"backlot/internal/state"
)

type fakeCollaborators struct {
	calls    []string
	plan     *plan.DirectorPlan
	planErr  error
	draftErr map[int]error
	evalRpt  *critique.EvalReport
}

func (f *fakeCollaborators) Plan(_ context.Context, concept string) (*plan.DirectorPlan, error) {
	f.calls = append(f.calls, "plan")
	if f.planErr != nil {
		return nil, f.planErr
	}
	return f.plan, nil
}

func (f *fakeCollaborators) Generate(_ context.Context, _ *plan.DirectorPlan) ([]assets.AssetItem, error) {
	f.calls = append(f.calls, "assets")
	return []assets.AssetItem{
		{ID: "char", Type: assets.TypeCharacter, Data: []byte("char")},
		{ID: "bg", Type: assets.TypeBackground, Data: []byte("bg")},
	}, nil
}

func (f *fakeCollaborators) DraftScene(_ context.Context, p *plan.DirectorPlan, sceneIndex int, _ []assets.AssetItem, feedback string) (drafting.VideoArtifact, error) {
	label := fmt.Sprintf("draft:%d", sceneIndex)
	if feedback != "" {
		label = fmt.Sprintf("redraft:%d", sceneIndex)
	}
	f.calls = append(f.calls, label)
	if err := f.draftErr[sceneIndex]; err != nil {
		return drafting.VideoArtifact{}, err
	}
	return drafting.VideoArtifact{
		SceneID: p.Scenes[sceneIndex].ID,
		ShotID:  fmt.Sprintf("shot-%d", sceneIndex),
		Version: 1,
		Media:   []byte("clip-" + p.Scenes[sceneIndex].ID),
	}, nil
}

func (f *fakeCollaborators) Evaluate(_ context.Context, _ *plan.DirectorPlan, shots []drafting.VideoArtifact) (*critique.EvalReport, error) {
	f.calls = append(f.calls, "critique")
	if f.evalRpt != nil {
		return f.evalRpt, nil
	}
	scores := make([]critique.ShotScore, len(shots))
	for i, shot := range shots {
		scores[i] = critique.ShotScore{SceneID: shot.SceneID, Overall: 9}
	}
	return &critique.EvalReport{Shots: scores, CharacterFidelity: 9}, nil
}

func (f *fakeCollaborators) Thresholds() critique.Thresholds { return critique.DefaultThresholds }

func (f *fakeCollaborators) Stitch(_ context.Context, clips []assembly.Clip, transitions []assembly.Transition, outputPath string) error {
	f.calls = append(f.calls, fmt.Sprintf("stitch:%d", len(clips)))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("stitched"), 0o644)
}

func twoScenePlan() *plan.DirectorPlan {
	p := &plan.DirectorPlan{
		SubjectPrompt:     "a fox",
		EnvironmentPrompt: "a harbor",
		VisualStyle:       "watercolor",
		Scenes: []plan.Scene{
			{
				ID: "scene-1", Order: 1, DurationSeconds: 5,
				Segments:   []plan.Segment{{Start: "00:00", End: "00:05", Prompt: `Fox says: "Hello!"`}},
				Transition: &plan.TransitionSpec{Type: "fade", Seconds: 0.5},
			},
			{
				ID: "scene-2", Order: 2, DurationSeconds: 5,
				Segments: []plan.Segment{{Start: "00:00", End: "00:05", Prompt: "fox leaps away"}},
			},
		},
	}
	plan.DeriveMasterPrompts(p)
	return p
}

func newTestOrchestrator(t *testing.T, fakes *fakeCollaborators, critiqueEnabled bool) (*Orchestrator, *state.Store, *[]time.Duration) {
	t.Helper()
	store := state.NewStore("run-test", nil)
	o := New(fakes, fakes, fakes, fakes, fakes, nil, store, Options{
		SceneCooldown:   8 * time.Second,
		CritiqueEnabled: critiqueEnabled,
		OutputDir:       t.TempDir(),
	}, nil)
	var slept []time.Duration
	o.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return o, store, &slept
}

func TestRunSequencesPhasesStrictly(t *testing.T) {
	fakes := &fakeCollaborators{plan: twoScenePlan()}
	o, store, slept := newTestOrchestrator(t, fakes, false)

	final, err := o.Run(context.Background(), "a fox tale")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Phase != state.PhaseComplete {
		t.Fatalf("unexpected final phase %s", final.Phase)
	}
	want := []string{"plan", "assets", "draft:0", "draft:1", "stitch:2"}
	if strings.Join(fakes.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("call order %v, want %v", fakes.calls, want)
	}
	// One inter-scene cooldown for two scenes.
	if len(*slept) != 1 || (*slept)[0] != 8*time.Second {
		t.Fatalf("unexpected cooldowns %v", *slept)
	}
	snapshot := store.Snapshot()
	if len(snapshot.Artifacts.Shots) != 2 || snapshot.Artifacts.Plan == nil {
		t.Fatalf("artifacts incomplete: %+v", snapshot.Artifacts)
	}
}

func TestRunDeliversOutputAndCaptions(t *testing.T) {
	fakes := &fakeCollaborators{plan: twoScenePlan()}
	o, store, _ := newTestOrchestrator(t, fakes, false)

	if _, err := o.Run(context.Background(), "a fox tale"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	runID := store.Snapshot().RunID
	if _, err := os.Stat(filepath.Join(o.opts.OutputDir, runID+".mp4")); err != nil {
		t.Fatalf("combined file missing: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(o.opts.OutputDir, runID+".srt"))
	if err != nil {
		t.Fatalf("caption file missing: %v", err)
	}
	if !strings.Contains(string(data), "Hello!") {
		t.Fatalf("caption content wrong: %q", data)
	}
}

func TestRunFailurePreservesArtifacts(t *testing.T) {
	boom := services.Wrap(services.ErrTransient, "gemini", "video", "provider down", nil)
	fakes := &fakeCollaborators{
		plan:     twoScenePlan(),
		draftErr: map[int]error{1: boom},
	}
	o, store, _ := newTestOrchestrator(t, fakes, false)

	final, err := o.Run(context.Background(), "a fox tale")
	if err == nil {
		t.Fatal("expected run failure")
	}
	if final.Phase != state.PhaseError {
		t.Fatalf("unexpected phase %s", final.Phase)
	}
	snapshot := store.Snapshot()
	if snapshot.Artifacts.Plan == nil || len(snapshot.Artifacts.Shots) != 1 {
		t.Fatalf("failure must keep earlier artifacts: %+v", snapshot.Artifacts)
	}
	for _, call := range fakes.calls {
		if call == "stitch:2" {
			t.Fatal("stitch must not run after a drafting failure")
		}
	}
}

func TestRunCritiquePassSkipsRefinement(t *testing.T) {
	fakes := &fakeCollaborators{plan: twoScenePlan()}
	o, store, _ := newTestOrchestrator(t, fakes, true)

	if _, err := o.Run(context.Background(), "a fox tale"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.Snapshot().Artifacts.Eval == nil {
		t.Fatal("eval report not recorded")
	}
	for _, call := range fakes.calls {
		if strings.HasPrefix(call, "redraft:") {
			t.Fatalf("no refinement expected on a passing report: %v", fakes.calls)
		}
	}
}

func TestRunRefinesFailingShots(t *testing.T) {
	fakes := &fakeCollaborators{
		plan: twoScenePlan(),
		evalRpt: &critique.EvalReport{
			Shots: []critique.ShotScore{
				{SceneID: "scene-1", Overall: 9},
				{SceneID: "scene-2", Overall: 6, Feedback: "too dark"},
			},
			CharacterFidelity: 9,
		},
	}
	o, store, _ := newTestOrchestrator(t, fakes, true)

	if _, err := o.Run(context.Background(), "a fox tale"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, call := range fakes.calls {
		if call == "redraft:1" {
			found = true
		}
		if call == "redraft:0" {
			t.Fatal("passing shot must not be redrafted")
		}
	}
	if !found {
		t.Fatalf("failing shot not refined: %v", fakes.calls)
	}
	shots := store.Snapshot().Artifacts.Shots
	if shots[1].Version != 2 {
		t.Fatalf("refined shot version = %d, want 2", shots[1].Version)
	}
	if shots[0].Version != 1 {
		t.Fatal("untouched shot must keep its version")
	}
}

func TestRegenerateShotLeavesOthersUntouched(t *testing.T) {
	fakes := &fakeCollaborators{plan: twoScenePlan()}
	o, store, _ := newTestOrchestrator(t, fakes, false)

	if _, err := o.Run(context.Background(), "a fox tale"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	before := store.Snapshot().Artifacts.Shots

	shot, err := o.RegenerateShot(context.Background(), 0, "warmer light")
	if err != nil {
		t.Fatalf("RegenerateShot: %v", err)
	}
	if shot.Version != 2 {
		t.Fatalf("version = %d, want 2", shot.Version)
	}
	after := store.Snapshot().Artifacts.Shots
	if after[1].ShotID != before[1].ShotID || after[1].Version != before[1].Version {
		t.Fatal("other shots must be untouched")
	}
	// Regeneration never re-triggers planning or assets.
	planCalls := 0
	for _, call := range fakes.calls {
		if call == "plan" || call == "assets" {
			planCalls++
		}
	}
	if planCalls != 2 {
		t.Fatalf("unexpected plan/asset calls %v", fakes.calls)
	}
}

func TestRegenerateShotWithoutPlan(t *testing.T) {
	fakes := &fakeCollaborators{plan: twoScenePlan()}
	o, _, _ := newTestOrchestrator(t, fakes, false)
	if _, err := o.RegenerateShot(context.Background(), 0, "feedback"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
