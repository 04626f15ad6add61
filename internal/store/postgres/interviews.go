package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hiretop/matching-service/internal/interview"
	"hiretop/matching-service/internal/model"
)

// findOverlapping uses strict comparisons so touching slots never match.
func findOverlapping(ctx context.Context, q querier, w interview.Window, companyID uuid.UUID) ([]model.JobInterview, error) {
	rows, err := q.Query(ctx,
		`SELECT i.id, i.job_application_id, i.started_at, i.ended_at
		 FROM job_interviews i
		 JOIN job_applications a ON a.id = i.job_application_id
		 JOIN job_offers o ON o.id = a.job_offer_id
		 WHERE o.company_id = $1
		   AND i.started_at < $3
		   AND i.ended_at   > $2
		 ORDER BY i.started_at`,
		companyID, w.StartedAt, w.EndedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("findOverlapping query: %w", err)
	}
	return scanInterviews(rows)
}

// FindOverlappingInterviews returns the company's interviews intersecting w.
func (s *Store) FindOverlappingInterviews(ctx context.Context, w interview.Window, companyID uuid.UUID) ([]model.JobInterview, error) {
	return findOverlapping(ctx, s.db, w, companyID)
}

func (t *tx) FindOverlappingInterviews(ctx context.Context, w interview.Window, companyID uuid.UUID) ([]model.JobInterview, error) {
	return findOverlapping(ctx, t.q, w, companyID)
}

// ListInterviewsStarting returns interviews with from <= started_at < to.
func (s *Store) ListInterviewsStarting(ctx context.Context, from, to time.Time) ([]model.JobInterview, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, job_application_id, started_at, ended_at
		 FROM job_interviews
		 WHERE started_at >= $1 AND started_at < $2
		 ORDER BY started_at`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("listInterviewsStarting query: %w", err)
	}
	return scanInterviews(rows)
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func scanInterviews(rows rowsScanner) ([]model.JobInterview, error) {
	defer rows.Close()
	out := make([]model.JobInterview, 0)
	for rows.Next() {
		var iv model.JobInterview
		if err := rows.Scan(&iv.ID, &iv.JobApplicationID, &iv.StartedAt, &iv.EndedAt); err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}
