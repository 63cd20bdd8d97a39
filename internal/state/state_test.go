package state

import (
	"testing"
	"time"

	"backlot/internal/drafting"
	"backlot/internal/plan"
)

type unknownEvent struct{}

func (unknownEvent) isEvent() {}

func TestReduceStart(t *testing.T) {
	next := Reduce(NewState("run-1"), Start{Concept: "  a fox tale  "})
	if next.Phase != PhasePlanning || next.Concept != "a fox tale" {
		t.Fatalf("unexpected state %+v", next)
	}
}

func TestReduceStartDiscardsPriorRun(t *testing.T) {
	current := NewState("run-1")
	current = Reduce(current, MergeArtifacts{Artifacts: Artifacts{
		Shots: []drafting.VideoArtifact{{SceneID: "scene-1"}},
	}})
	current = Reduce(current, Fail{Message: "boom"})

	next := Reduce(current, Start{Concept: "a fresh tale"})
	if len(next.Artifacts.Shots) != 0 || next.Error != "" {
		t.Fatalf("start must discard prior artifacts: %+v", next)
	}
}

func TestReduceSetPhaseChangesNothingElse(t *testing.T) {
	current := NewState("run-1")
	current = Reduce(current, Fail{Message: "boom"})
	next := Reduce(current, SetPhase{Phase: PhaseDrafting})
	if next.Phase != PhaseDrafting {
		t.Fatalf("unexpected phase %s", next.Phase)
	}
	if next.Error != "boom" {
		t.Fatalf("phase change must not touch the recorded error, got %q", next.Error)
	}
}

func TestReduceFailPreservesArtifacts(t *testing.T) {
	current := NewState("run-1")
	current = Reduce(current, MergeArtifacts{Artifacts: Artifacts{
		Plan:  &plan.DirectorPlan{SubjectPrompt: "fox"},
		Shots: []drafting.VideoArtifact{{SceneID: "scene-1"}},
	}})

	next := Reduce(current, Fail{Message: "provider down"})
	if next.Phase != PhaseError || next.Error != "provider down" {
		t.Fatalf("unexpected state %+v", next)
	}
	if next.Artifacts.Plan == nil || len(next.Artifacts.Shots) != 1 {
		t.Fatal("failure must keep artifacts")
	}
}

func TestReduceMergeOverlaysOnlyPresentFields(t *testing.T) {
	current := NewState("run-1")
	current = Reduce(current, MergeArtifacts{Artifacts: Artifacts{
		Plan: &plan.DirectorPlan{SubjectPrompt: "fox"},
	}})
	next := Reduce(current, MergeArtifacts{Artifacts: Artifacts{
		Shots: []drafting.VideoArtifact{{SceneID: "scene-1"}},
	}})
	if next.Artifacts.Plan == nil || len(next.Artifacts.Shots) != 1 {
		t.Fatalf("merge dropped fields: %+v", next.Artifacts)
	}
}

func TestReduceReplaceShotInPlace(t *testing.T) {
	current := NewState("run-1")
	current = Reduce(current, MergeArtifacts{Artifacts: Artifacts{
		Shots: []drafting.VideoArtifact{{SceneID: "scene-1", Version: 1}, {SceneID: "scene-2", Version: 1}},
	}})

	next := Reduce(current, ReplaceShot{Index: 0, Shot: drafting.VideoArtifact{SceneID: "scene-1", Version: 2}})
	if next.Artifacts.Shots[0].Version != 2 {
		t.Fatalf("shot not replaced: %+v", next.Artifacts.Shots)
	}
	if current.Artifacts.Shots[0].Version != 1 {
		t.Fatal("input state mutated")
	}
}

func TestReduceReplaceShotExtendsPastEnd(t *testing.T) {
	current := NewState("run-1")
	next := Reduce(current, ReplaceShot{Index: 2, Shot: drafting.VideoArtifact{SceneID: "scene-3"}})
	if len(next.Artifacts.Shots) != 3 || next.Artifacts.Shots[2].SceneID != "scene-3" {
		t.Fatalf("unexpected shots %+v", next.Artifacts.Shots)
	}
}

func TestReduceReplaceShotNegativeIndexIgnored(t *testing.T) {
	current := NewState("run-1")
	next := Reduce(current, ReplaceShot{Index: -1, Shot: drafting.VideoArtifact{SceneID: "x"}})
	if len(next.Artifacts.Shots) != 0 {
		t.Fatalf("negative index must be ignored, got %+v", next.Artifacts.Shots)
	}
}

func TestReduceUnknownEventIsNoop(t *testing.T) {
	current := Reduce(NewState("run-1"), Start{Concept: "fox"})
	next := Reduce(current, unknownEvent{})
	if next.Phase != current.Phase || next.Concept != current.Concept {
		t.Fatalf("unknown event changed state: %+v", next)
	}
}

func TestReduceResetClearsEverything(t *testing.T) {
	current := NewState("run-1")
	current = Reduce(current, Start{Concept: "fox"})
	current = Reduce(current, AppendLog{At: time.Now(), Message: "planning"})
	current = Reduce(current, Fail{Message: "boom"})

	next := Reduce(current, Reset{})
	if next.Phase != PhaseIdle || next.Error != "" || len(next.Logs) != 0 || next.Concept != "" {
		t.Fatalf("reset incomplete: %+v", next)
	}
	if next.RunID != "run-1" {
		t.Fatal("reset must keep the run id")
	}
}

func TestStoreAppliesSerially(t *testing.T) {
	store := NewStore("run-1", nil)
	store.Apply(Start{Concept: "fox"})
	store.Apply(SetPhase{Phase: PhaseAssetGen})
	snapshot := store.Snapshot()
	if snapshot.Phase != PhaseAssetGen || snapshot.Concept != "fox" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}
