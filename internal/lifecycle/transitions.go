// Package lifecycle implements the job-application state machine.
//
// Valid status graph:
//
//	TO_ASSESS ──► ACCEPTED
//	    │
//	    └───────► REJECTED
//
// ACCEPTED and REJECTED are terminal states.
package lifecycle

import (
	"fmt"

	"hiretop/matching-service/internal/model"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.StatusToAssess: {model.StatusAccepted, model.StatusRejected},
	// ACCEPTED and REJECTED are terminal, no outgoing transitions
}

// ParseStatus converts a raw string to an ApplicationStatus, returning an
// error for unknown values.
func ParseStatus(s string) (model.ApplicationStatus, error) {
	st := model.ApplicationStatus(s)
	switch st {
	case model.StatusToAssess, model.StatusAccepted, model.StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to model.ApplicationStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.ApplicationStatus) bool {
	return len(validTransitions[s]) == 0
}
