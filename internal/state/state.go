package state

import (
	"time"

	"backlot/internal/assets"
	"backlot/internal/critique"
	"backlot/internal/drafting"
	"backlot/internal/plan"
)

// Phase identifies where a production run currently sits in the pipeline.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhasePlanning  Phase = "PLANNING"
	PhaseAssetGen  Phase = "ASSET_GEN"
	PhaseDrafting  Phase = "DRAFTING"
	PhaseCritique  Phase = "CRITIQUE"
	PhaseRefining  Phase = "REFINING"
	PhaseRendering Phase = "RENDERING"
	PhaseComplete  Phase = "COMPLETE"
	PhaseError     Phase = "ERROR"
)

// Artifacts holds everything a run has produced so far. Failure never clears
// it; whatever was produced before the error stays available for inspection
// and selective regeneration.
type Artifacts struct {
	Plan   *plan.DirectorPlan      `json:"plan,omitempty"`
	Assets []assets.AssetItem      `json:"assets,omitempty"`
	Shots  []drafting.VideoArtifact `json:"shots,omitempty"`
	Eval   *critique.EvalReport    `json:"eval,omitempty"`
}

// LogEntry is one timestamped progress line kept on the run state.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// ProductionState is the full state of one production run. Values are treated
// as immutable; Reduce returns a fresh state for every applied event.
type ProductionState struct {
	RunID     string     `json:"run_id"`
	Phase     Phase      `json:"phase"`
	Concept   string     `json:"concept,omitempty"`
	Artifacts Artifacts  `json:"artifacts"`
	Logs      []LogEntry `json:"logs,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// NewState returns the initial idle state for a run.
func NewState(runID string) ProductionState {
	return ProductionState{RunID: runID, Phase: PhaseIdle}
}
