package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"hiretop/matching-service/internal/interview"
	"hiretop/matching-service/internal/model"
	"hiretop/matching-service/internal/validation"
)

var (
	// ErrAccessDenied is returned when the caller cannot prove it owns the
	// application, including when the application does not exist.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidState is returned when the application is not in a state the
	// requested transition can leave.
	ErrInvalidState = errors.New("invalid application state")

	// ErrOfferNotFound is returned by Apply for an unknown offer.
	ErrOfferNotFound = errors.New("job offer not found")

	// ErrOfferClosed is returned by Apply once the offer has expired.
	ErrOfferClosed = errors.New("job offer is closed")

	// ErrAlreadyApplied is returned by Apply when the talent already applied.
	ErrAlreadyApplied = errors.New("already applied to this job offer")
)

func invalidState(from, to model.ApplicationStatus) error {
	return fmt.Errorf("%w: transition %s → %s is not allowed", ErrInvalidState, from, to)
}

// overlapError reports the slots an interview window collides with.
func overlapError(conflicts []model.JobInterview) *validation.ValidationError {
	slots := make([]string, 0, len(conflicts))
	for _, iv := range conflicts {
		slots = append(slots, interview.WindowOf(iv).String())
	}
	return validation.Field("startedAt", "overlaps existing interview "+strings.Join(slots, ", "))
}
