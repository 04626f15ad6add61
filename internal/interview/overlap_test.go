package interview_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiretop/matching-service/internal/interview"
	"hiretop/matching-service/internal/model"
	"hiretop/matching-service/internal/validation"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func slot(start, end time.Time) model.JobInterview {
	return model.JobInterview{ID: uuid.New(), JobApplicationID: uuid.New(), StartedAt: start, EndedAt: end}
}

func TestWindowOverlaps(t *testing.T) {
	booked := interview.Window{StartedAt: at(1, 0), EndedAt: at(2, 0)}

	cases := []struct {
		name string
		w    interview.Window
		want bool
	}{
		{"inside", interview.Window{StartedAt: at(1, 15), EndedAt: at(1, 45)}, true},
		{"covers", interview.Window{StartedAt: at(0, 30), EndedAt: at(2, 30)}, true},
		{"straddles start", interview.Window{StartedAt: at(0, 30), EndedAt: at(1, 30)}, true},
		{"straddles end", interview.Window{StartedAt: at(1, 30), EndedAt: at(2, 30)}, true},
		{"identical", booked, true},
		{"touches end", interview.Window{StartedAt: at(2, 0), EndedAt: at(3, 0)}, false},
		{"touches start", interview.Window{StartedAt: at(0, 0), EndedAt: at(1, 0)}, false},
		{"before", interview.Window{StartedAt: at(-2, 0), EndedAt: at(-1, 0)}, false},
		{"after", interview.Window{StartedAt: at(5, 0), EndedAt: at(6, 0)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.w.Overlaps(booked))
			assert.Equal(t, tc.want, booked.Overlaps(tc.w), "overlap must be symmetric")
		})
	}
}

func TestWindowValid(t *testing.T) {
	assert.True(t, interview.Window{StartedAt: at(0, 0), EndedAt: at(0, 1)}.Valid())
	assert.False(t, interview.Window{StartedAt: at(0, 0), EndedAt: at(0, 0)}.Valid())
	assert.False(t, interview.Window{StartedAt: at(1, 0), EndedAt: at(0, 0)}.Valid())
}

func TestConflictsWith_SortedByStart(t *testing.T) {
	late := slot(at(1, 30), at(2, 30))
	early := slot(at(0, 30), at(1, 30))
	apart := slot(at(4, 0), at(5, 0))

	got := interview.ConflictsWith(interview.Window{StartedAt: at(1, 0), EndedAt: at(2, 0)}, []model.JobInterview{late, apart, early})
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
}

func TestConflictsWith_NoneIsEmptyNotNil(t *testing.T) {
	got := interview.ConflictsWith(interview.Window{StartedAt: at(0, 0), EndedAt: at(1, 0)}, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

type fakeFinder struct {
	found     []model.JobInterview
	err       error
	companyID uuid.UUID
}

func (f *fakeFinder) FindOverlappingInterviews(_ context.Context, _ interview.Window, companyID uuid.UUID) ([]model.JobInterview, error) {
	f.companyID = companyID
	return f.found, f.err
}

func TestDetector_FiltersTouchingSlots(t *testing.T) {
	// 10:00-11:00 booked; 11:00-12:00 only touches it.
	touching := slot(at(1, 0), at(2, 0))
	f := &fakeFinder{found: []model.JobInterview{touching}}
	company := uuid.New()

	got, err := interview.NewDetector(f).FindOverlapping(context.Background(),
		interview.Window{StartedAt: at(2, 0), EndedAt: at(3, 0)}, company)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, company, f.companyID)
}

func TestDetector_ReportsConflict(t *testing.T) {
	booked := slot(at(1, 0), at(2, 0))
	f := &fakeFinder{found: []model.JobInterview{booked}}

	got, err := interview.NewDetector(f).FindOverlapping(context.Background(),
		interview.Window{StartedAt: at(1, 30), EndedAt: at(2, 30)}, uuid.New())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, booked.ID, got[0].ID)
}

func TestDetector_WrapsStoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := interview.NewDetector(&fakeFinder{err: boom}).FindOverlapping(context.Background(),
		interview.Window{StartedAt: at(0, 0), EndedAt: at(1, 0)}, uuid.New())
	assert.ErrorIs(t, err, boom)
}

func TestDetector_InvalidWindow(t *testing.T) {
	f := &fakeFinder{}
	_, err := interview.NewDetector(f).FindOverlapping(context.Background(),
		interview.Window{StartedAt: at(1, 0), EndedAt: at(1, 0)}, uuid.New())

	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "endedAt", ve.Fields[0].Field)
	assert.Equal(t, uuid.Nil, f.companyID, "store must not be queried")
}

type fakeLister struct{ from, to time.Time }

func (l *fakeLister) ListInterviewsStarting(_ context.Context, from, to time.Time) ([]model.JobInterview, error) {
	l.from, l.to = from, to
	return []model.JobInterview{slot(from, from.Add(time.Hour))}, nil
}

func TestUpcoming(t *testing.T) {
	l := &fakeLister{}
	got, err := interview.Upcoming(context.Background(), l, base, 24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, base, l.from)
	assert.Equal(t, base.Add(24*time.Hour), l.to)
}

func TestUpcoming_NonPositiveHorizon(t *testing.T) {
	l := &fakeLister{}
	got, err := interview.Upcoming(context.Background(), l, base, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, l.from.IsZero(), "lister must not be queried")
}
