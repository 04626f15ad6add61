// Package memory is an in-process implementation of the store contracts.
// It evaluates the same predicates and serves the same query plan as the
// PostgreSQL store, and backs the test suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hiretop/matching-service/internal/interview"
	"hiretop/matching-service/internal/lifecycle"
	"hiretop/matching-service/internal/matching"
	"hiretop/matching-service/internal/model"
)

// Store keeps every entity in maps guarded by one mutex. Transactions hold
// the mutex for their whole duration and commit a private copy of the
// application table only when they succeed.
type Store struct {
	mu        sync.Mutex
	companies map[uuid.UUID]model.Company
	users     map[uuid.UUID]model.User
	offers    map[uuid.UUID]model.JobOffer
	apps      map[uuid.UUID]*model.JobApplication
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		companies: make(map[uuid.UUID]model.Company),
		users:     make(map[uuid.UUID]model.User),
		offers:    make(map[uuid.UUID]model.JobOffer),
		apps:      make(map[uuid.UUID]*model.JobApplication),
	}
}

// ─── Seeding ─────────────────────────────────────────────────────────────────

// PutCompany inserts or replaces a company.
func (s *Store) PutCompany(c model.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutOffer inserts or replaces a job offer.
func (s *Store) PutOffer(o model.JobOffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[o.ID] = o
}

// PutApplication inserts or replaces an application. CompanyID is derived
// from the offer when it is known.
func (s *Store) PutApplication(a model.JobApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.offers[a.JobOfferID]; ok {
		a.CompanyID = o.CompanyID
	}
	s.apps[a.ID] = a.Clone()
}

// Counts returns the number of feedback and interview records.
func (s *Store) Counts() (feedbacks, interviews int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.Feedback != nil {
			feedbacks++
		}
		if a.Interview != nil {
			interviews++
		}
	}
	return feedbacks, interviews
}

// ─── matching.Store ──────────────────────────────────────────────────────────

// UserSkills returns the skill ids a user declared.
func (s *Store) UserSkills(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return append([]uuid.UUID(nil), u.Skills...), nil
}

// ListOpenOffers returns every offer satisfying preds with its company.
func (s *Store) ListOpenOffers(_ context.Context, preds []matching.Predicate) ([]matching.OfferCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]matching.OfferCandidate, 0)
	for _, o := range s.offers {
		c := s.companies[o.CompanyID]
		if !matching.MatchesAll(preds, offerColumns(o, c)) {
			continue
		}
		out = append(out, matching.OfferCandidate{Offer: o, CompanyName: c.Name, CompanyCategory: c.Category})
	}
	return out, nil
}

// OfferSkills returns the skill ids an offer requires.
func (s *Store) OfferSkills(_ context.Context, offerID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[offerID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return append([]uuid.UUID(nil), o.Skills...), nil
}

// ListApplicants returns every user who applied to the offer.
func (s *Store) ListApplicants(_ context.Context, offerID uuid.UUID) ([]matching.ApplicantCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]matching.ApplicantCandidate, 0)
	for _, a := range s.apps {
		if a.JobOfferID != offerID {
			continue
		}
		u, ok := s.users[a.ApplicantID]
		if !ok {
			continue
		}
		out = append(out, matching.ApplicantCandidate{
			Applicant:        u,
			JobApplicationID: a.ID,
			AppliedAt:        a.AppliedAt,
			Status:           a.Status,
		})
	}
	return out, nil
}

// CountApplicationsByStatus groups applications whose offer satisfies preds.
func (s *Store) CountApplicationsByStatus(_ context.Context, preds []matching.Predicate) (map[model.ApplicationStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.ApplicationStatus]int)
	for _, a := range s.apps {
		o, ok := s.offers[a.JobOfferID]
		if !ok {
			continue
		}
		if matching.MatchesAll(preds, offerColumns(o, s.companies[o.CompanyID])) {
			out[a.Status]++
		}
	}
	return out, nil
}

func offerColumns(o model.JobOffer, c model.Company) func(matching.Column) any {
	return func(col matching.Column) any {
		switch col {
		case matching.ColOfferExpiredAt:
			return o.ExpiredAt
		case matching.ColOfferPostedAt:
			return o.PostedAt
		case matching.ColOfferJobType:
			if o.JobType == nil {
				return nil
			}
			return *o.JobType
		case matching.ColOfferLocationType:
			if o.LocationType == nil {
				return nil
			}
			return *o.LocationType
		case matching.ColOfferCompanyID:
			return o.CompanyID
		case matching.ColCompanyCategory:
			if c.ID == uuid.Nil {
				return nil
			}
			return c.Category
		}
		return nil
	}
}

// ─── interview.Finder / UpcomingLister ──────────────────────────────────────

// FindOverlappingInterviews scans the company's booked interviews.
func (s *Store) FindOverlappingInterviews(_ context.Context, w interview.Window, companyID uuid.UUID) ([]model.JobInterview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return overlapping(s.apps, w, companyID), nil
}

// ListInterviewsStarting returns interviews with from <= start < to.
func (s *Store) ListInterviewsStarting(_ context.Context, from, to time.Time) ([]model.JobInterview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.JobInterview, 0)
	for _, a := range s.apps {
		if a.Interview == nil {
			continue
		}
		if !a.Interview.StartedAt.Before(from) && a.Interview.StartedAt.Before(to) {
			out = append(out, *a.Interview)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func overlapping(apps map[uuid.UUID]*model.JobApplication, w interview.Window, companyID uuid.UUID) []model.JobInterview {
	booked := make([]model.JobInterview, 0)
	for _, a := range apps {
		if a.CompanyID == companyID && a.Interview != nil {
			booked = append(booked, *a.Interview)
		}
	}
	return interview.ConflictsWith(w, booked)
}

// ─── lifecycle.Store ─────────────────────────────────────────────────────────

// CompanyOfUser returns the company a user represents, or nil for talents.
func (s *Store) CompanyOfUser(_ context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if u.CompanyID == nil {
		return nil, nil
	}
	id := *u.CompanyID
	return &id, nil
}

// GetOffer returns one offer.
func (s *Store) GetOffer(_ context.Context, offerID uuid.UUID) (*model.JobOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[offerID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &o, nil
}

// GetApplication returns one application with its feedback and interview.
func (s *Store) GetApplication(_ context.Context, id uuid.UUID) (*model.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return a.Clone(), nil
}

// InsertApplication stores a new application, one per (applicant, offer).
func (s *Store) InsertApplication(_ context.Context, app model.JobApplication) (*model.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.ApplicantID == app.ApplicantID && a.JobOfferID == app.JobOfferID {
			return nil, model.ErrConflict
		}
	}
	s.apps[app.ID] = app.Clone()
	return app.Clone(), nil
}

// WithinTx runs fn against a private copy of the application table and
// swaps it in only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := make(map[uuid.UUID]*model.JobApplication, len(s.apps))
	for id, a := range s.apps {
		work[id] = a.Clone()
	}
	if err := fn(&tx{apps: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.apps = work
	return nil
}

type tx struct {
	apps map[uuid.UUID]*model.JobApplication
}

func (t *tx) LockApplication(_ context.Context, id uuid.UUID) (*model.JobApplication, error) {
	a, ok := t.apps[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return a.Clone(), nil
}

func (t *tx) LockCompanySchedule(context.Context, uuid.UUID) error { return nil }

func (t *tx) FindOverlappingInterviews(_ context.Context, w interview.Window, companyID uuid.UUID) ([]model.JobInterview, error) {
	return overlapping(t.apps, w, companyID), nil
}

func (t *tx) WriteRejection(_ context.Context, appID uuid.UUID, fb model.ApplicationFeedback) (*model.JobApplication, error) {
	a, ok := t.apps[appID]
	if !ok {
		return nil, model.ErrNotFound
	}
	a.Status = model.StatusRejected
	a.Feedback = &fb
	return a.Clone(), nil
}

func (t *tx) WriteAcceptance(_ context.Context, appID uuid.UUID, fb model.ApplicationFeedback, iv model.JobInterview) (*model.JobApplication, error) {
	a, ok := t.apps[appID]
	if !ok {
		return nil, model.ErrNotFound
	}
	a.Status = model.StatusAccepted
	a.Feedback = &fb
	a.Interview = &iv
	return a.Clone(), nil
}
