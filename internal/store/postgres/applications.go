package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hiretop/matching-service/internal/model"
)

const selectApplication = `
	SELECT a.id, a.applicant_id, a.job_offer_id, o.company_id, a.applied_at, a.status::text,
	       f.id, f.message, f.sent_at,
	       i.id, i.started_at, i.ended_at
	FROM job_applications a
	JOIN job_offers o ON o.id = a.job_offer_id
	LEFT JOIN application_feedbacks f ON f.job_application_id = a.id
	LEFT JOIN job_interviews i ON i.job_application_id = a.id
	WHERE a.id = $1`

// readApplication loads one application with feedback and interview. With
// lock set the application row stays locked until the transaction ends.
func readApplication(ctx context.Context, q querier, id uuid.UUID, lock bool) (*model.JobApplication, error) {
	sql := selectApplication
	if lock {
		sql += ` FOR UPDATE OF a`
	}

	var (
		a              model.JobApplication
		status         string
		fbID, ivID     *uuid.UUID
		fbMessage      *string
		fbSentAt       *time.Time
		ivStart, ivEnd *time.Time
	)
	err := q.QueryRow(ctx, sql, id).Scan(
		&a.ID, &a.ApplicantID, &a.JobOfferID, &a.CompanyID, &a.AppliedAt, &status,
		&fbID, &fbMessage, &fbSentAt,
		&ivID, &ivStart, &ivEnd,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("readApplication: %w", err)
	}

	a.Status = model.ApplicationStatus(status)
	if fbID != nil {
		a.Feedback = &model.ApplicationFeedback{ID: *fbID, JobApplicationID: a.ID, Message: deref(fbMessage), SentAt: derefTime(fbSentAt)}
	}
	if ivID != nil {
		a.Interview = &model.JobInterview{ID: *ivID, JobApplicationID: a.ID, StartedAt: derefTime(ivStart), EndedAt: derefTime(ivEnd)}
	}
	return &a, nil
}

// CompanyOfUser returns the company the user represents, nil for talents.
func (s *Store) CompanyOfUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	var companyID *uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT company_id FROM users WHERE id = $1`, userID).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("companyOfUser: %w", err)
	}
	return companyID, nil
}

// GetOffer returns one offer with its required skills.
func (s *Store) GetOffer(ctx context.Context, offerID uuid.UUID) (*model.JobOffer, error) {
	var (
		o                     model.JobOffer
		jobType, locationType *string
	)
	err := s.db.QueryRow(ctx,
		`SELECT o.id, o.description, o.job_type::text, o.location_type::text,
		        o.company_id, o.author_id, o.posted_at, o.expired_at,
		        `+fmt.Sprintf(skillsAgg, "jos.skill_id", "jos.skill_id")+`
		 FROM job_offers o
		 LEFT JOIN job_offer_skills jos ON jos.job_offer_id = o.id
		 WHERE o.id = $1
		 GROUP BY o.id`,
		offerID,
	).Scan(
		&o.ID, &o.Description, &jobType, &locationType,
		&o.CompanyID, &o.AuthorID, &o.PostedAt, &o.ExpiredAt, &o.Skills,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getOffer: %w", err)
	}
	o.JobType = optJobType(jobType)
	o.LocationType = optLocationType(locationType)
	return &o, nil
}

// GetApplication returns one application with feedback and interview.
func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*model.JobApplication, error) {
	return readApplication(ctx, s.db, id, false)
}

// InsertApplication creates an application; a second application by the
// same applicant to the same offer yields model.ErrConflict.
func (s *Store) InsertApplication(ctx context.Context, app model.JobApplication) (*model.JobApplication, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO job_applications (id, applicant_id, job_offer_id, applied_at, status)
		 VALUES ($1, $2, $3, $4, $5::application_status)
		 ON CONFLICT (applicant_id, job_offer_id) DO NOTHING
		 RETURNING id`,
		app.ID, app.ApplicantID, app.JobOfferID, app.AppliedAt, string(app.Status),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insertApplication: %w", err)
	}
	return app.Clone(), nil
}

// ─── lifecycle.Tx ────────────────────────────────────────────────────────────

func (t *tx) LockApplication(ctx context.Context, id uuid.UUID) (*model.JobApplication, error) {
	return readApplication(ctx, t.q, id, true)
}

func (t *tx) LockCompanySchedule(ctx context.Context, companyID uuid.UUID) error {
	var id uuid.UUID
	err := t.q.QueryRow(ctx, `SELECT id FROM companies WHERE id = $1 FOR UPDATE`, companyID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

func (t *tx) WriteRejection(ctx context.Context, appID uuid.UUID, fb model.ApplicationFeedback) (*model.JobApplication, error) {
	if err := t.setStatus(ctx, appID, model.StatusRejected); err != nil {
		return nil, err
	}
	if err := t.insertFeedback(ctx, fb); err != nil {
		return nil, err
	}
	return readApplication(ctx, t.q, appID, false)
}

func (t *tx) WriteAcceptance(ctx context.Context, appID uuid.UUID, fb model.ApplicationFeedback, iv model.JobInterview) (*model.JobApplication, error) {
	if err := t.setStatus(ctx, appID, model.StatusAccepted); err != nil {
		return nil, err
	}
	if err := t.insertFeedback(ctx, fb); err != nil {
		return nil, err
	}
	if _, err := t.q.Exec(ctx,
		`INSERT INTO job_interviews (id, job_application_id, started_at, ended_at)
		 VALUES ($1, $2, $3, $4)`,
		iv.ID, iv.JobApplicationID, iv.StartedAt, iv.EndedAt,
	); err != nil {
		return nil, fmt.Errorf("insert interview: %w", err)
	}
	return readApplication(ctx, t.q, appID, false)
}

// setStatus only leaves TO_ASSESS; the guard already checked it under lock.
func (t *tx) setStatus(ctx context.Context, appID uuid.UUID, to model.ApplicationStatus) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE job_applications
		 SET status = $1::application_status
		 WHERE id = $2 AND status = 'TO_ASSESS'`,
		string(to), appID,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return model.ErrConflict
	}
	return nil
}

func (t *tx) insertFeedback(ctx context.Context, fb model.ApplicationFeedback) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO application_feedbacks (id, job_application_id, message, sent_at)
		 VALUES ($1, $2, $3, $4)`,
		fb.ID, fb.JobApplicationID, fb.Message, fb.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
