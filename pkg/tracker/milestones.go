package tracker

import "sync"

// Milestone is a one-shot transition in an execution's observed status.
// The three milestones are independent flags, not a single enum: an
// execution can hit waiting and later completed, and both must fire exactly
// once each.
type Milestone string

const (
	MilestoneWaiting   Milestone = "waiting"
	MilestoneCompleted Milestone = "completed"
	MilestoneFailed    Milestone = "failed"
)

// MilestoneSet records which milestones have fired per execution. Entries
// are append-only and kept for the lifetime of the tracking session, which
// is what turns a status feed polled many times over into at most one
// notification per milestone.
type MilestoneSet struct {
	mu     sync.Mutex
	marked map[string]map[Milestone]bool
}

func NewMilestoneSet() *MilestoneSet {
	return &MilestoneSet{
		marked: make(map[string]map[Milestone]bool),
	}
}

// Mark returns true only the first time the (executionID, milestone) pair is
// seen. Every later call with the same pair returns false and changes
// nothing.
func (s *MilestoneSet) Mark(executionID string, milestone Milestone) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	byExecution, ok := s.marked[executionID]
	if !ok {
		byExecution = make(map[Milestone]bool)
		s.marked[executionID] = byExecution
	}

	if byExecution[milestone] {
		return false
	}

	byExecution[milestone] = true

	return true
}

// Marked reports whether the pair has already fired.
func (s *MilestoneSet) Marked(executionID string, milestone Milestone) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.marked[executionID][milestone]
}
