// Package interview detects scheduling conflicts between interview slots.
//
// A slot is the half-open window [StartedAt, EndedAt). Two slots overlap iff
//
//	s1 < e2 && e1 > s2
//
// so slots that only touch at an endpoint never conflict. Conflicts are scoped
// to one company: interviews booked for another company's offers are ignored.
package interview

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"hiretop/matching-service/internal/model"
	"hiretop/matching-service/internal/validation"
)

// Window is a proposed or booked interview slot.
type Window struct {
	StartedAt time.Time
	EndedAt   time.Time
}

// WindowOf returns the slot of a booked interview.
func WindowOf(iv model.JobInterview) Window {
	return Window{StartedAt: iv.StartedAt, EndedAt: iv.EndedAt}
}

// Overlaps reports whether w and other intersect. It is symmetric.
func (w Window) Overlaps(other Window) bool {
	return w.StartedAt.Before(other.EndedAt) && w.EndedAt.After(other.StartedAt)
}

// Valid reports whether the window ends strictly after it starts.
func (w Window) Valid() bool {
	return w.EndedAt.After(w.StartedAt)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.StartedAt.UTC().Format(time.RFC3339), w.EndedAt.UTC().Format(time.RFC3339))
}

// ConflictsWith returns the interviews in existing that overlap w, ordered by
// start time.
func ConflictsWith(w Window, existing []model.JobInterview) []model.JobInterview {
	out := make([]model.JobInterview, 0)
	for _, iv := range existing {
		if w.Overlaps(WindowOf(iv)) {
			out = append(out, iv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Finder is implemented by stores able to look up a company's booked
// interviews intersecting a window. Both a connection pool and an open
// transaction satisfy it.
type Finder interface {
	FindOverlappingInterviews(ctx context.Context, w Window, companyID uuid.UUID) ([]model.JobInterview, error)
}

// UpcomingLister lists interviews starting inside [from, to).
type UpcomingLister interface {
	ListInterviewsStarting(ctx context.Context, from, to time.Time) ([]model.JobInterview, error)
}

// Detector runs conflict queries against a Finder. It holds no state and is
// safe for concurrent use.
type Detector struct {
	finder Finder
}

// NewDetector returns a Detector backed by f.
func NewDetector(f Finder) *Detector {
	return &Detector{finder: f}
}

// FindOverlapping returns every interview of companyID that conflicts with w.
// An empty slice means the slot is free. An empty or inverted window is a
// validation error on endedAt.
func (d *Detector) FindOverlapping(ctx context.Context, w Window, companyID uuid.UUID) ([]model.JobInterview, error) {
	if !w.Valid() {
		return nil, validation.Field("endedAt", "must be after startedAt")
	}
	found, err := d.finder.FindOverlappingInterviews(ctx, w, companyID)
	if err != nil {
		return nil, fmt.Errorf("findOverlapping: %w", err)
	}
	// Re-check in process so a store with inclusive bounds cannot leak
	// touching slots into the result.
	return ConflictsWith(w, found), nil
}

// Upcoming lists interviews starting within horizon of from.
func Upcoming(ctx context.Context, l UpcomingLister, from time.Time, horizon time.Duration) ([]model.JobInterview, error) {
	if horizon <= 0 {
		return nil, nil
	}
	ivs, err := l.ListInterviewsStarting(ctx, from, from.Add(horizon))
	if err != nil {
		return nil, fmt.Errorf("upcoming interviews: %w", err)
	}
	return ivs, nil
}
