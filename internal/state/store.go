package state

import (
	"log/slog"
	"sync"

	"backlot/internal/logging"
)

// Store serializes event application over a single run's state and hands out
// snapshots. All state changes in a run flow through Apply.
type Store struct {
	mu      sync.Mutex
	current ProductionState
	logger  *slog.Logger
}

// NewStore creates a store seeded with the initial idle state for runID.
func NewStore(runID string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		current: NewState(runID),
		logger:  logging.NewComponentLogger(logger, "state"),
	}
}

// Apply reduces one event into the store and returns the resulting snapshot.
func (s *Store) Apply(event Event) ProductionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.current.Phase
	s.current = Reduce(s.current, event)
	if s.current.Phase != before {
		s.logger.Info("phase transition",
			logging.String("run_id", s.current.RunID),
			logging.String("from", string(before)),
			logging.String("to", string(s.current.Phase)),
		)
	}
	return s.current
}

// Snapshot returns the current state.
func (s *Store) Snapshot() ProductionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
