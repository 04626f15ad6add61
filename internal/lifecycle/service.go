package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hiretop/matching-service/internal/interview"
	"hiretop/matching-service/internal/model"
	"hiretop/matching-service/internal/validation"
)

// Event channels published after a committed change.
const (
	EventApplicationSubmitted = "EVENT_APPLICATION_SUBMITTED"
	EventApplicationAccepted  = "EVENT_APPLICATION_ACCEPTED"
	EventApplicationRejected  = "EVENT_APPLICATION_REJECTED"
)

// Store is the persistence the state machine needs.
type Store interface {
	CompanyOfUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	GetOffer(ctx context.Context, offerID uuid.UUID) (*model.JobOffer, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*model.JobApplication, error)
	// InsertApplication returns model.ErrConflict when the applicant already
	// applied to the offer.
	InsertApplication(ctx context.Context, app model.JobApplication) (*model.JobApplication, error)
	// WithinTx runs fn in one transaction. Any error from fn rolls every
	// write back.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view used by transitions.
type Tx interface {
	interview.Finder
	// LockApplication reads the application and holds it against concurrent
	// transitions until the transaction ends.
	LockApplication(ctx context.Context, id uuid.UUID) (*model.JobApplication, error)
	// LockCompanySchedule serializes interview booking for one company.
	LockCompanySchedule(ctx context.Context, companyID uuid.UUID) error
	WriteRejection(ctx context.Context, appID uuid.UUID, fb model.ApplicationFeedback) (*model.JobApplication, error)
	WriteAcceptance(ctx context.Context, appID uuid.UUID, fb model.ApplicationFeedback, iv model.JobInterview) (*model.JobApplication, error)
}

// EventPublisher forwards lifecycle events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Actor is the caller of a transition. CompanyID is set when the caller
// represents a company.
type Actor struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
}

// Represents reports whether the actor speaks for companyID.
func (a Actor) Represents(companyID uuid.UUID) bool {
	return a.CompanyID != nil && *a.CompanyID == companyID
}

// RejectRequest closes an application with a message.
type RejectRequest struct {
	ApplicationID string `json:"jobApplicationId"`
	Message       string `json:"message" validate:"required"`
}

// AcceptRequest accepts an application and books an interview slot.
type AcceptRequest struct {
	ApplicationID string    `json:"jobApplicationId"`
	Message       string    `json:"message" validate:"required"`
	StartedAt     time.Time `json:"startedAt" validate:"required"`
	EndedAt       time.Time `json:"endedAt" validate:"required,gtfield=StartedAt"`
}

// Service runs guarded transitions. It is stateless and safe for concurrent use.
type Service struct {
	store    Store
	events   EventPublisher
	log      *zap.Logger
	validate *validation.Validator
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a configured Service. events may be nil.
func NewService(store Store, events EventPublisher, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		events:   events,
		log:      log,
		validate: validation.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActorFor resolves the caller behind a forwarded user id.
func (s *Service) ActorFor(ctx context.Context, userID string) (Actor, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return Actor{}, ErrAccessDenied
	}
	companyID, err := s.store.CompanyOfUser(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return Actor{}, ErrAccessDenied
	}
	if err != nil {
		return Actor{}, fmt.Errorf("actorFor: %w", err)
	}
	return Actor{UserID: id, CompanyID: companyID}, nil
}

// Get returns an application to its applicant or to the owning company.
func (s *Service) Get(ctx context.Context, actor Actor, applicationID string) (*model.JobApplication, error) {
	id, err := uuid.Parse(applicationID)
	if err != nil {
		return nil, ErrAccessDenied
	}
	app, err := s.store.GetApplication(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("getApplication: %w", err)
	}
	if app.ApplicantID != actor.UserID && !actor.Represents(app.CompanyID) {
		return nil, ErrAccessDenied
	}
	return app, nil
}

// AuthorizeOffer returns nil when actor represents the company owning the
// offer, ErrAccessDenied otherwise.
func (s *Service) AuthorizeOffer(ctx context.Context, actor Actor, offerID string) error {
	id, err := uuid.Parse(offerID)
	if err != nil {
		return ErrAccessDenied
	}
	offer, err := s.store.GetOffer(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return ErrAccessDenied
	}
	if err != nil {
		return fmt.Errorf("authorizeOffer: %w", err)
	}
	if !actor.Represents(offer.CompanyID) {
		return ErrAccessDenied
	}
	return nil
}

// Apply creates an application in TO_ASSESS for an open offer.
func (s *Service) Apply(ctx context.Context, actor Actor, offerID string) (*model.JobApplication, error) {
	if actor.CompanyID != nil {
		return nil, ErrAccessDenied
	}
	id, err := uuid.Parse(offerID)
	if err != nil {
		return nil, ErrOfferNotFound
	}
	now := s.now()

	offer, err := s.store.GetOffer(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}
	if !offer.IsOpen(now) {
		return nil, ErrOfferClosed
	}

	app, err := s.store.InsertApplication(ctx, model.JobApplication{
		ID:          uuid.New(),
		ApplicantID: actor.UserID,
		JobOfferID:  offer.ID,
		CompanyID:   offer.CompanyID,
		AppliedAt:   now,
		Status:      model.StatusToAssess,
	})
	if errors.Is(err, model.ErrConflict) {
		return nil, ErrAlreadyApplied
	}
	if err != nil {
		return nil, fmt.Errorf("apply insert: %w", err)
	}

	s.publish(ctx, EventApplicationSubmitted, map[string]string{
		"type":             EventApplicationSubmitted,
		"jobApplicationId": app.ID.String(),
		"jobOfferId":       offer.ID.String(),
		"userId":           actor.UserID.String(),
	})
	return app, nil
}

// Reject moves a TO_ASSESS application to REJECTED and records the feedback.
func (s *Service) Reject(ctx context.Context, actor Actor, req RejectRequest) (*model.JobApplication, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return nil, ErrAccessDenied
	}
	now := s.now()

	var out *model.JobApplication
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := s.guard(ctx, tx, actor, appID, model.StatusRejected); err != nil {
			return err
		}
		fb := model.ApplicationFeedback{
			ID:               uuid.New(),
			JobApplicationID: appID,
			Message:          req.Message,
			SentAt:           now,
		}
		app, err := tx.WriteRejection(ctx, appID, fb)
		if err != nil {
			return fmt.Errorf("writeRejection: %w", err)
		}
		out = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventApplicationRejected, map[string]string{
		"type":             EventApplicationRejected,
		"jobApplicationId": out.ID.String(),
		"userId":           out.ApplicantID.String(),
	})
	return out, nil
}

// Accept moves a TO_ASSESS application to ACCEPTED, records the feedback and
// books the interview. The slot must start now or later and must not overlap
// any interview already booked for the company.
func (s *Service) Accept(ctx context.Context, actor Actor, req AcceptRequest) (*model.JobApplication, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	now := s.now()
	if req.StartedAt.Before(now) {
		return nil, validation.Field("startedAt", "must not be in the past")
	}
	appID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		return nil, ErrAccessDenied
	}
	window := interview.Window{StartedAt: req.StartedAt, EndedAt: req.EndedAt}

	var out *model.JobApplication
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		app, err := s.guard(ctx, tx, actor, appID, model.StatusAccepted)
		if err != nil {
			return err
		}

		if err := tx.LockCompanySchedule(ctx, app.CompanyID); err != nil {
			return fmt.Errorf("lockCompanySchedule: %w", err)
		}
		conflicts, err := interview.NewDetector(tx).FindOverlapping(ctx, window, app.CompanyID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			s.log.Info("interview slot rejected",
				zap.String("jobApplicationId", appID.String()),
				zap.Stringer("window", window),
				zap.Int("conflicts", len(conflicts)),
			)
			return overlapError(conflicts)
		}

		fb := model.ApplicationFeedback{
			ID:               uuid.New(),
			JobApplicationID: appID,
			Message:          req.Message,
			SentAt:           now,
		}
		iv := model.JobInterview{
			ID:               uuid.New(),
			JobApplicationID: appID,
			StartedAt:        req.StartedAt,
			EndedAt:          req.EndedAt,
		}
		updated, err := tx.WriteAcceptance(ctx, appID, fb, iv)
		if err != nil {
			return fmt.Errorf("writeAcceptance: %w", err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventApplicationAccepted, map[string]string{
		"type":             EventApplicationAccepted,
		"jobApplicationId": out.ID.String(),
		"userId":           out.ApplicantID.String(),
		"startedAt":        req.StartedAt.UTC().Format(time.RFC3339),
		"endedAt":          req.EndedAt.UTC().Format(time.RFC3339),
	})
	return out, nil
}

// guard locks the application and checks ownership and current state.
func (s *Service) guard(ctx context.Context, tx Tx, actor Actor, appID uuid.UUID, to model.ApplicationStatus) (*model.JobApplication, error) {
	app, err := tx.LockApplication(ctx, appID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("lockApplication: %w", err)
	}
	if !actor.Represents(app.CompanyID) {
		return nil, ErrAccessDenied
	}
	if !IsTransitionAllowed(app.Status, to) {
		return nil, invalidState(app.Status, to)
	}
	return app, nil
}

// publish is best effort: the change is already committed.
func (s *Service) publish(ctx context.Context, channel string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, channel, payload); err != nil {
		s.log.Warn("publish failed", zap.String("channel", channel), zap.Error(err))
	}
}
