package domain

// ProcessingState tracks a document through one pipeline run.
// Within a run it only moves forward: pending, processing, then completed or failed.
type ProcessingState string

// Processing states.
const (
	StatePending    ProcessingState = "pending"
	StateProcessing ProcessingState = "processing"
	StateCompleted  ProcessingState = "completed"
	StateFailed     ProcessingState = "failed"
)

// rank orders states for the monotonic check. Terminal states share a rank.
var stateRank = map[ProcessingState]int{
	StatePending:    0,
	StateProcessing: 1,
	StateCompleted:  2,
	StateFailed:     2,
}

// IsValid returns true if the state is recognised.
func (s ProcessingState) IsValid() bool {
	_, ok := stateRank[s]
	return ok
}

// IsTerminal returns true for completed and failed.
func (s ProcessingState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransitionTo reports whether moving from s to next keeps the run monotonic.
// Failing is allowed from any non-terminal state.
func (s ProcessingState) CanTransitionTo(next ProcessingState) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == StateFailed {
		return true
	}
	return stateRank[next] == stateRank[s]+1
}

// String returns the string representation.
func (s ProcessingState) String() string {
	return string(s)
}

// Transition moves the document to next, recording errMsg when failing.
// Returns ErrInvalidTransition if the move would regress the run.
func (d *Document) Transition(next ProcessingState, errMsg string) error {
	if !d.State.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	d.State = next
	if next == StateFailed {
		d.LastError = errMsg
	}
	return nil
}

// BeginRun starts a new revision in the pending state.
// This is the only way a terminal document re-enters the pipeline.
func (d *Document) BeginRun() {
	d.Revision++
	d.State = StatePending
	d.LastError = ""
}
