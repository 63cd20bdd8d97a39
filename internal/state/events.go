package state

import (
	"time"

	"backlot/internal/drafting"
)

// Event is one state transition input. Concrete event types form a closed
// set; Reduce ignores anything it does not recognize.
type Event interface {
	isEvent()
}

// Start begins a run: records the concept and moves to PLANNING.
type Start struct {
	Concept string
}

// SetPhase moves the run to the named phase.
type SetPhase struct {
	Phase Phase
}

// MergeArtifacts overlays the non-nil fields onto the current artifacts.
type MergeArtifacts struct {
	Artifacts Artifacts
}

// ReplaceShot swaps the shot at Index, extending the slice when the index
// sits past the current end.
type ReplaceShot struct {
	Index int
	Shot  drafting.VideoArtifact
}

// AppendLog adds one progress line.
type AppendLog struct {
	At      time.Time
	Message string
}

// Fail moves the run to ERROR with a message, keeping all artifacts.
type Fail struct {
	Message string
}

// Reset returns the run to IDLE, clearing artifacts and the error.
type Reset struct{}

func (Start) isEvent()          {}
func (SetPhase) isEvent()       {}
func (MergeArtifacts) isEvent() {}
func (ReplaceShot) isEvent()    {}
func (AppendLog) isEvent()      {}
func (Fail) isEvent()           {}
func (Reset) isEvent()          {}
