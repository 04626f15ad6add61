package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hiretop/matching-service/internal/lifecycle"
	"hiretop/matching-service/internal/model"
	"hiretop/matching-service/internal/store/memory"
	"hiretop/matching-service/internal/validation"
)

var clock = time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC)

type published struct {
	channel string
	payload any
}

type recorder struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (r *recorder) Publish(_ context.Context, channel string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, published{channel, payload})
	return nil
}

func (r *recorder) channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.channel)
	}
	return out
}

type env struct {
	store   *memory.Store
	events  *recorder
	svc     *lifecycle.Service
	company uuid.UUID
	recruit lifecycle.Actor
	talent  lifecycle.Actor
	offer   model.JobOffer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{store: memory.New(), events: &recorder{}, company: uuid.New()}
	e.svc = lifecycle.NewService(e.store, e.events, zap.NewNop(), lifecycle.WithClock(func() time.Time { return clock }))

	e.store.PutCompany(model.Company{ID: e.company, Name: "X", Category: model.CategorySME})
	recruiterID := uuid.New()
	e.store.PutUser(model.User{ID: recruiterID, Email: "hr@x.test", CompanyID: &e.company})
	e.recruit = lifecycle.Actor{UserID: recruiterID, CompanyID: &e.company}

	talentID := uuid.New()
	e.store.PutUser(model.User{ID: talentID, Email: "t@x.test"})
	e.talent = lifecycle.Actor{UserID: talentID}

	e.offer = model.JobOffer{
		ID:        uuid.New(),
		CompanyID: e.company,
		PostedAt:  clock.Add(-time.Hour),
		ExpiredAt: clock.Add(60 * 24 * time.Hour),
	}
	e.store.PutOffer(e.offer)
	return e
}

// application seeds an application in status for a fresh applicant.
func (e *env) application(status model.ApplicationStatus) uuid.UUID {
	applicant := uuid.New()
	e.store.PutUser(model.User{ID: applicant})
	id := uuid.New()
	e.store.PutApplication(model.JobApplication{
		ID: id, ApplicantID: applicant, JobOfferID: e.offer.ID, AppliedAt: clock, Status: status,
	})
	return id
}

func (e *env) accept(id uuid.UUID, start, end time.Time) (*model.JobApplication, error) {
	return e.svc.Accept(context.Background(), e.recruit, lifecycle.AcceptRequest{
		ApplicationID: id.String(),
		Message:       "See you soon",
		StartedAt:     start,
		EndedAt:       end,
	})
}

func jan1(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
}

// ── ActorFor ───────────────────────────────────────────────────────────────

func TestActorFor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	got, err := e.svc.ActorFor(ctx, e.recruit.UserID.String())
	require.NoError(t, err)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, e.company, *got.CompanyID)

	got, err = e.svc.ActorFor(ctx, e.talent.UserID.String())
	require.NoError(t, err)
	assert.Nil(t, got.CompanyID)

	for _, id := range []string{"garbage", uuid.NewString()} {
		_, err := e.svc.ActorFor(ctx, id)
		assert.ErrorIs(t, err, lifecycle.ErrAccessDenied, id)
	}
}

// ── Accept ─────────────────────────────────────────────────────────────────

func TestAccept_Succeeds(t *testing.T) {
	e := newEnv(t)
	id := e.application(model.StatusToAssess)

	app, err := e.accept(id, jan1(10, 0), jan1(11, 0))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, app.Status)
	require.NotNil(t, app.Feedback)
	assert.Equal(t, "See you soon", app.Feedback.Message)
	assert.Equal(t, clock, app.Feedback.SentAt)
	require.NotNil(t, app.Interview)
	assert.Equal(t, jan1(10, 0), app.Interview.StartedAt)
	assert.Equal(t, jan1(11, 0), app.Interview.EndedAt)
	assert.Equal(t, id, app.Interview.JobApplicationID)

	stored, err := e.store.GetApplication(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, stored.Status)
	assert.Equal(t, []string{lifecycle.EventApplicationAccepted}, e.events.channels())
}

func TestAccept_OverlapWithinCompany(t *testing.T) {
	e := newEnv(t)
	_, err := e.accept(e.application(model.StatusToAssess), jan1(10, 0), jan1(11, 0))
	require.NoError(t, err)

	overlapping := e.application(model.StatusToAssess)
	_, err = e.accept(overlapping, jan1(10, 30), jan1(11, 30))
	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("startedAt"))

	stored, err := e.store.GetApplication(context.Background(), overlapping)
	require.NoError(t, err)
	assert.Equal(t, model.StatusToAssess, stored.Status)
	assert.Nil(t, stored.Feedback)
	assert.Nil(t, stored.Interview)

	// Touching the end of the booked slot is not an overlap.
	app, err := e.accept(overlapping, jan1(11, 0), jan1(12, 0))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, app.Status)

	feedbacks, interviews := e.store.Counts()
	assert.Equal(t, 2, feedbacks)
	assert.Equal(t, 2, interviews)
}

func TestAccept_OtherCompanyDoesNotConflict(t *testing.T) {
	e := newEnv(t)
	_, err := e.accept(e.application(model.StatusToAssess), jan1(10, 0), jan1(11, 0))
	require.NoError(t, err)

	other := newEnvSharing(t, e)
	_, err = other.accept(other.application(model.StatusToAssess), jan1(10, 0), jan1(11, 0))
	require.NoError(t, err)
}

// newEnvSharing adds a second company with its own recruiter and offer to
// the store of e.
func newEnvSharing(t *testing.T, e *env) *env {
	t.Helper()
	o := &env{store: e.store, events: e.events, svc: e.svc, company: uuid.New()}
	e.store.PutCompany(model.Company{ID: o.company, Name: "Y", Category: model.CategoryStartup})
	rid := uuid.New()
	e.store.PutUser(model.User{ID: rid, CompanyID: &o.company})
	o.recruit = lifecycle.Actor{UserID: rid, CompanyID: &o.company}
	o.offer = model.JobOffer{ID: uuid.New(), CompanyID: o.company, PostedAt: clock, ExpiredAt: clock.Add(time.Hour)}
	e.store.PutOffer(o.offer)
	return o
}

func TestAccept_EndBeforeStart(t *testing.T) {
	e := newEnv(t)
	id := e.application(model.StatusToAssess)

	_, err := e.accept(id, jan1(11, 0), jan1(10, 0))
	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("endedAt"))

	feedbacks, interviews := e.store.Counts()
	assert.Zero(t, feedbacks)
	assert.Zero(t, interviews)
	assert.Empty(t, e.events.channels())
}

func TestAccept_Validation(t *testing.T) {
	e := newEnv(t)
	id := e.application(model.StatusToAssess)

	_, err := e.svc.Accept(context.Background(), e.recruit, lifecycle.AcceptRequest{ApplicationID: id.String()})
	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("message"))
	assert.True(t, ve.Has("startedAt"))
	assert.True(t, ve.Has("endedAt"))

	_, err = e.accept(id, clock.Add(-time.Hour), clock.Add(time.Hour))
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("startedAt"))
}

func TestAccept_AccessDenied(t *testing.T) {
	e := newEnv(t)
	id := e.application(model.StatusToAssess)
	outsider := uuid.New()
	ctx := context.Background()

	req := lifecycle.AcceptRequest{ApplicationID: id.String(), Message: "hi", StartedAt: jan1(10, 0), EndedAt: jan1(11, 0)}

	_, err := e.svc.Accept(ctx, e.talent, req)
	assert.ErrorIs(t, err, lifecycle.ErrAccessDenied)

	_, err = e.svc.Accept(ctx, lifecycle.Actor{UserID: uuid.New(), CompanyID: &outsider}, req)
	assert.ErrorIs(t, err, lifecycle.ErrAccessDenied)

	for _, bad := range []string{"not-an-id", uuid.NewString()} {
		req.ApplicationID = bad
		_, err = e.svc.Accept(ctx, e.recruit, req)
		assert.ErrorIs(t, err, lifecycle.ErrAccessDenied, bad)
	}
}

func TestAccept_Concurrent(t *testing.T) {
	e := newEnv(t)
	a, b := e.application(model.StatusToAssess), e.application(model.StatusToAssess)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{a, b} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = e.accept(id, jan1(10, 0), jan1(11, 0))
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var ve *validation.ValidationError
		assert.ErrorAs(t, err, &ve)
	}
	assert.Equal(t, 1, succeeded, "exactly one of two overlapping bookings may win")

	_, interviews := e.store.Counts()
	assert.Equal(t, 1, interviews)
}

func TestSameApplication_ConcurrentTransitions(t *testing.T) {
	reject := func(e *env, id uuid.UUID) error {
		_, err := e.svc.Reject(context.Background(), e.recruit, lifecycle.RejectRequest{ApplicationID: id.String(), Message: "no"})
		return err
	}
	acceptAt := func(h int) func(e *env, id uuid.UUID) error {
		return func(e *env, id uuid.UUID) error {
			_, err := e.accept(id, jan1(h, 0), jan1(h+1, 0))
			return err
		}
	}
	cases := []struct {
		name          string
		first, second func(e *env, id uuid.UUID) error
	}{
		{
			name:   "accept and reject",
			first:  acceptAt(10),
			second: reject,
		},
		{
			name:   "accept twice",
			first:  acceptAt(10),
			second: acceptAt(14),
		},
		{
			name:   "reject twice",
			first:  reject,
			second: reject,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for round := 0; round < 20; round++ {
				e := newEnv(t)
				id := e.application(model.StatusToAssess)

				var wg sync.WaitGroup
				errs := make([]error, 2)
				for i, op := range []func(*env, uuid.UUID) error{tc.first, tc.second} {
					wg.Add(1)
					go func(i int, op func(*env, uuid.UUID) error) {
						defer wg.Done()
						errs[i] = op(e, id)
					}(i, op)
				}
				wg.Wait()

				succeeded := 0
				for _, err := range errs {
					if err == nil {
						succeeded++
						continue
					}
					assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
				}
				require.Equal(t, 1, succeeded, "exactly one transition may leave TO_ASSESS")

				feedbacks, interviews := e.store.Counts()
				assert.Equal(t, 1, feedbacks)
				assert.LessOrEqual(t, interviews, 1)
				assert.Len(t, e.events.channels(), 1)
			}
		})
	}
}

// ── Reject ─────────────────────────────────────────────────────────────────

func TestReject_Succeeds(t *testing.T) {
	e := newEnv(t)
	id := e.application(model.StatusToAssess)

	app, err := e.svc.Reject(context.Background(), e.recruit, lifecycle.RejectRequest{ApplicationID: id.String(), Message: "Not this time"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, app.Status)
	require.NotNil(t, app.Feedback)
	assert.Equal(t, "Not this time", app.Feedback.Message)
	assert.Nil(t, app.Interview)
	assert.Equal(t, []string{lifecycle.EventApplicationRejected}, e.events.channels())
}

func TestReject_AcceptedIsInvalidState(t *testing.T) {
	e := newEnv(t)
	id := e.application(model.StatusToAssess)
	accepted, err := e.accept(id, jan1(10, 0), jan1(11, 0))
	require.NoError(t, err)

	_, err = e.svc.Reject(context.Background(), e.recruit, lifecycle.RejectRequest{ApplicationID: id.String(), Message: "changed mind"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)

	stored, err := e.store.GetApplication(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, stored.Status)
	assert.Equal(t, accepted.Feedback, stored.Feedback)
	assert.Equal(t, accepted.Interview, stored.Interview)
}

func TestTerminalStatesRejectEveryTransition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, st := range []model.ApplicationStatus{model.StatusAccepted, model.StatusRejected} {
		id := e.application(st)

		_, err := e.svc.Reject(ctx, e.recruit, lifecycle.RejectRequest{ApplicationID: id.String(), Message: "m"})
		assert.ErrorIs(t, err, lifecycle.ErrInvalidState, st)

		_, err = e.accept(id, jan1(15, 0), jan1(16, 0))
		assert.ErrorIs(t, err, lifecycle.ErrInvalidState, st)
	}
	feedbacks, interviews := e.store.Counts()
	assert.Zero(t, feedbacks)
	assert.Zero(t, interviews)
}

func TestReject_MissingMessage(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Reject(context.Background(), e.recruit, lifecycle.RejectRequest{ApplicationID: e.application(model.StatusToAssess).String()})
	var ve *validation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("message"))
}

func TestPublishFailureDoesNotUndoTransition(t *testing.T) {
	e := newEnv(t)
	e.events.err = errors.New("redis down")
	id := e.application(model.StatusToAssess)

	app, err := e.svc.Reject(context.Background(), e.recruit, lifecycle.RejectRequest{ApplicationID: id.String(), Message: "no"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, app.Status)
}

// ── Apply / Get / AuthorizeOffer ───────────────────────────────────────────

func TestApply(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	app, err := e.svc.Apply(ctx, e.talent, e.offer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusToAssess, app.Status)
	assert.Equal(t, e.talent.UserID, app.ApplicantID)
	assert.Equal(t, e.company, app.CompanyID)
	assert.Equal(t, clock, app.AppliedAt)
	assert.Equal(t, []string{lifecycle.EventApplicationSubmitted}, e.events.channels())

	_, err = e.svc.Apply(ctx, e.talent, e.offer.ID.String())
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyApplied)

	_, err = e.svc.Apply(ctx, e.recruit, e.offer.ID.String())
	assert.ErrorIs(t, err, lifecycle.ErrAccessDenied)

	_, err = e.svc.Apply(ctx, e.talent, uuid.NewString())
	assert.ErrorIs(t, err, lifecycle.ErrOfferNotFound)
}

func TestApply_ClosedOffer(t *testing.T) {
	e := newEnv(t)
	closed := e.offer
	closed.ID = uuid.New()
	closed.ExpiredAt = clock
	e.store.PutOffer(closed)

	_, err := e.svc.Apply(context.Background(), e.talent, closed.ID.String())
	assert.ErrorIs(t, err, lifecycle.ErrOfferClosed)
}

func TestGet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	app, err := e.svc.Apply(ctx, e.talent, e.offer.ID.String())
	require.NoError(t, err)

	got, err := e.svc.Get(ctx, e.talent, app.ID.String())
	require.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)

	_, err = e.svc.Get(ctx, e.recruit, app.ID.String())
	require.NoError(t, err)

	_, err = e.svc.Get(ctx, lifecycle.Actor{UserID: uuid.New()}, app.ID.String())
	assert.ErrorIs(t, err, lifecycle.ErrAccessDenied)

	_, err = e.svc.Get(ctx, e.talent, uuid.NewString())
	assert.ErrorIs(t, err, lifecycle.ErrAccessDenied)
}

func TestAuthorizeOffer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.NoError(t, e.svc.AuthorizeOffer(ctx, e.recruit, e.offer.ID.String()))
	assert.ErrorIs(t, e.svc.AuthorizeOffer(ctx, e.talent, e.offer.ID.String()), lifecycle.ErrAccessDenied)
	assert.ErrorIs(t, e.svc.AuthorizeOffer(ctx, e.recruit, uuid.NewString()), lifecycle.ErrAccessDenied)
	assert.ErrorIs(t, e.svc.AuthorizeOffer(ctx, e.recruit, "bad"), lifecycle.ErrAccessDenied)
}
