package domain

import "fmt"

// Reviewer decisions. Approved and rejected are terminal.
var statusTransitions = map[AccountStatus]map[AccountStatus]struct{}{
	StatusPending: {
		StatusApproved: {},
		StatusRejected: {},
	},
}

// CanTransition returns true when the approval workflow allows moving from current to next.
func CanTransition(current, next AccountStatus) bool {
	allowed, ok := statusTransitions[current]
	if !ok {
		return false
	}
	_, ok = allowed[next]
	return ok
}

func Transition(current, next AccountStatus) error {
	if !next.Valid() {
		return Invalid("status", fmt.Sprintf("unknown status %q", next))
	}
	if !CanTransition(current, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}
	return nil
}
