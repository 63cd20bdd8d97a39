package state

import (
	"strings"

	"backlot/internal/drafting"
)

// Reduce applies one event to a state and returns the successor state. It is
// pure: the input state is never mutated, and slices are copied before being
// extended. Unknown events return the input unchanged.
func Reduce(current ProductionState, event Event) ProductionState {
	switch e := event.(type) {
	case Start:
		// A new run discards everything from the previous one.
		next := NewState(current.RunID)
		next.Concept = strings.TrimSpace(e.Concept)
		next.Phase = PhasePlanning
		return next
	case SetPhase:
		// Sets the phase and nothing else; a recorded error is only
		// cleared by Start or Reset.
		next := current
		next.Phase = e.Phase
		return next
	case MergeArtifacts:
		next := current
		next.Artifacts = mergeArtifacts(current.Artifacts, e.Artifacts)
		return next
	case ReplaceShot:
		if e.Index < 0 {
			return current
		}
		next := current
		shots := current.Artifacts.Shots
		size := len(shots)
		if e.Index >= size {
			size = e.Index + 1
		}
		replaced := make([]drafting.VideoArtifact, size)
		copy(replaced, shots)
		replaced[e.Index] = e.Shot
		next.Artifacts.Shots = replaced
		return next
	case AppendLog:
		next := current
		logs := make([]LogEntry, len(current.Logs), len(current.Logs)+1)
		copy(logs, current.Logs)
		next.Logs = append(logs, LogEntry{At: e.At, Message: e.Message})
		return next
	case Fail:
		next := current
		next.Phase = PhaseError
		next.Error = e.Message
		return next
	case Reset:
		return NewState(current.RunID)
	default:
		return current
	}
}

func mergeArtifacts(base, overlay Artifacts) Artifacts {
	merged := base
	if overlay.Plan != nil {
		merged.Plan = overlay.Plan
	}
	if overlay.Assets != nil {
		merged.Assets = overlay.Assets
	}
	if overlay.Shots != nil {
		merged.Shots = overlay.Shots
	}
	if overlay.Eval != nil {
		merged.Eval = overlay.Eval
	}
	return merged
}
