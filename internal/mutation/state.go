package mutation

import (
	"github.com/bigredeye/schoolbook/internal/models"
)

type State int

const (
	StateIdle State = iota
	// StatePending means the speculative edit is applied and the remote call is in flight.
	StatePending
	StateSuccess
	StateFailure
	StateRollback
	// StateSettled is terminal, the collection has been invalidated.
	StateSettled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	case StateRollback:
		return "rollback"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Transition is reported to the hook for every invocation, latest or not.
type Transition struct {
	Seq  uint64
	Kind models.MutationKind
	Pair models.Pair
	From State
	To   State
	Err  error
}

type Hook func(t Transition)

type tracker struct {
	seq   uint64
	kind  models.MutationKind
	state State
	err   error
}

func (t *tracker) failed() bool {
	return t != nil && t.err != nil
}
