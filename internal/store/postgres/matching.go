package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hiretop/matching-service/internal/matching"
	"hiretop/matching-service/internal/model"
)

const skillsAgg = `COALESCE(array_agg(%s) FILTER (WHERE %s IS NOT NULL), '{}')`

// UserSkills returns the skill ids declared by a user.
func (s *Store) UserSkills(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var skills []uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT `+fmt.Sprintf(skillsAgg, "us.skill_id", "us.skill_id")+`
		 FROM users u
		 LEFT JOIN user_skills us ON us.user_id = u.id
		 WHERE u.id = $1
		 GROUP BY u.id`,
		userID,
	).Scan(&skills)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("userSkills: %w", err)
	}
	return skills, nil
}

// OfferSkills returns the skill ids required by an offer.
func (s *Store) OfferSkills(ctx context.Context, offerID uuid.UUID) ([]uuid.UUID, error) {
	var skills []uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT `+fmt.Sprintf(skillsAgg, "jos.skill_id", "jos.skill_id")+`
		 FROM job_offers o
		 LEFT JOIN job_offer_skills jos ON jos.job_offer_id = o.id
		 WHERE o.id = $1
		 GROUP BY o.id`,
		offerID,
	).Scan(&skills)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("offerSkills: %w", err)
	}
	return skills, nil
}

// ListOpenOffers returns every offer satisfying preds, with required skills
// and company attributes attached.
func (s *Store) ListOpenOffers(ctx context.Context, preds []matching.Predicate) ([]matching.OfferCandidate, error) {
	where, args, err := compileWhere(preds, nil)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		`SELECT o.id, o.description, o.job_type::text, o.location_type::text,
		        o.company_id, o.author_id, o.posted_at, o.expired_at,
		        `+fmt.Sprintf(skillsAgg, "jos.skill_id", "jos.skill_id")+`,
		        c.name, c.category::text
		 FROM job_offers o
		 JOIN companies c ON c.id = o.company_id
		 LEFT JOIN job_offer_skills jos ON jos.job_offer_id = o.id
		 WHERE `+where+`
		 GROUP BY o.id, c.id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listOpenOffers query: %w", err)
	}
	defer rows.Close()

	out := make([]matching.OfferCandidate, 0)
	for rows.Next() {
		var (
			c                     matching.OfferCandidate
			jobType, locationType *string
			category              string
		)
		if err := rows.Scan(
			&c.Offer.ID, &c.Offer.Description, &jobType, &locationType,
			&c.Offer.CompanyID, &c.Offer.AuthorID, &c.Offer.PostedAt, &c.Offer.ExpiredAt,
			&c.Offer.Skills, &c.CompanyName, &category,
		); err != nil {
			return nil, fmt.Errorf("listOpenOffers scan: %w", err)
		}
		c.Offer.JobType = optJobType(jobType)
		c.Offer.LocationType = optLocationType(locationType)
		c.CompanyCategory = model.CompanyCategory(category)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListApplicants returns the users who applied to an offer with their skills.
func (s *Store) ListApplicants(ctx context.Context, offerID uuid.UUID) ([]matching.ApplicantCandidate, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.address, u.birthday, u.company_id,
		        `+fmt.Sprintf(skillsAgg, "us.skill_id", "us.skill_id")+`,
		        a.id, a.applied_at, a.status::text
		 FROM job_applications a
		 JOIN users u ON u.id = a.applicant_id
		 LEFT JOIN user_skills us ON us.user_id = u.id
		 WHERE a.job_offer_id = $1
		 GROUP BY u.id, a.id`,
		offerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listApplicants query: %w", err)
	}
	defer rows.Close()

	out := make([]matching.ApplicantCandidate, 0)
	for rows.Next() {
		var (
			a      matching.ApplicantCandidate
			status string
		)
		if err := rows.Scan(
			&a.Applicant.ID, &a.Applicant.FirstName, &a.Applicant.LastName, &a.Applicant.Email,
			&a.Applicant.Phone, &a.Applicant.Address, &a.Applicant.Birthday, &a.Applicant.CompanyID,
			&a.Applicant.Skills, &a.JobApplicationID, &a.AppliedAt, &status,
		); err != nil {
			return nil, fmt.Errorf("listApplicants scan: %w", err)
		}
		a.Status = model.ApplicationStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountApplicationsByStatus groups applications whose offer satisfies preds.
func (s *Store) CountApplicationsByStatus(ctx context.Context, preds []matching.Predicate) (map[model.ApplicationStatus]int, error) {
	where, args, err := compileWhere(preds, nil)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		`SELECT a.status::text, count(*)
		 FROM job_applications a
		 JOIN job_offers o ON o.id = a.job_offer_id
		 JOIN companies c ON c.id = o.company_id
		 WHERE `+where+`
		 GROUP BY a.status`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("countApplicationsByStatus query: %w", err)
	}
	defer rows.Close()

	out := make(map[model.ApplicationStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("countApplicationsByStatus scan: %w", err)
		}
		out[model.ApplicationStatus(status)] = n
	}
	return out, rows.Err()
}

func optJobType(s *string) *model.JobType {
	if s == nil {
		return nil
	}
	t := model.JobType(*s)
	return &t
}

func optLocationType(s *string) *model.LocationType {
	if s == nil {
		return nil
	}
	l := model.LocationType(*s)
	return &l
}
