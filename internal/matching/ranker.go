// Package matching ranks talents and job offers against each other by the
// fraction of an offer's required skills a talent declares.
//
// Every ranking follows the same plan so that any store can serve it:
//
//  1. candidate set: the store returns every row satisfying the predicates,
//     with skill ids attached;
//  2. scoring: rows are scored in process and rows matching no skill dropped;
//  3. total: the exact size of the scored set;
//  4. page: the sorted set is sliced by offset/limit.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hiretop/matching-service/internal/model"
	"hiretop/matching-service/internal/validation"
)

// OfferCandidate is an open offer with its owning company's attributes.
type OfferCandidate struct {
	Offer           model.JobOffer
	CompanyName     string
	CompanyCategory model.CompanyCategory
}

// ApplicantCandidate is a user who applied to an offer.
type ApplicantCandidate struct {
	Applicant        model.User
	JobApplicationID uuid.UUID
	AppliedAt        time.Time
	Status           model.ApplicationStatus
}

// OfferMatch is one row of an offer search.
type OfferMatch struct {
	Offer           model.JobOffer
	CompanyName     string
	CompanyCategory model.CompanyCategory
	Match
}

// ApplicantMatch is one row of an applicant search.
type ApplicantMatch struct {
	Applicant        model.User
	JobApplicationID uuid.UUID
	AppliedAt        time.Time
	Status           model.ApplicationStatus
	Match
}

// Store is the read side the ranker needs. Missing subjects are reported
// with model.ErrNotFound.
type Store interface {
	UserSkills(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListOpenOffers(ctx context.Context, preds []Predicate) ([]OfferCandidate, error)
	OfferSkills(ctx context.Context, offerID uuid.UUID) ([]uuid.UUID, error)
	ListApplicants(ctx context.Context, offerID uuid.UUID) ([]ApplicantCandidate, error)
	CountApplicationsByStatus(ctx context.Context, preds []Predicate) (map[model.ApplicationStatus]int, error)
}

// Ranker computes ranked, filtered and paginated match views. It keeps no
// state between calls; every result is recomputed from the store.
type Ranker struct {
	store      Store
	log        *zap.Logger
	validate   *validation.Validator
	maxPerPage int
}

// NewRanker returns a Ranker. maxPerPage <= 0 disables the page size cap.
func NewRanker(store Store, log *zap.Logger, maxPerPage int) *Ranker {
	return &Ranker{store: store, log: log, validate: validation.New(), maxPerPage: maxPerPage}
}

func (r *Ranker) pagination(p Pagination) (Pagination, error) {
	if err := r.validate.Struct(p); err != nil {
		return p, err
	}
	if r.maxPerPage > 0 && p.PerPage > r.maxPerPage {
		p.PerPage = r.maxPerPage
	}
	return p, nil
}

// RankOffersForTalent ranks open offers by how many of their required skills
// the talent has. Offers sharing no skill with the talent are left out.
// Ties are broken by most recent posting, then offer id.
// An unknown or malformed talent id yields an empty page.
func (r *Ranker) RankOffersForTalent(ctx context.Context, talentID string, f Filter, p Pagination, now time.Time) (Page[OfferMatch], error) {
	p, err := r.pagination(p)
	if err != nil {
		return empty[OfferMatch](), err
	}
	id, err := uuid.Parse(talentID)
	if err != nil {
		return empty[OfferMatch](), nil
	}

	skills, err := r.store.UserSkills(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return empty[OfferMatch](), nil
	}
	if err != nil {
		return empty[OfferMatch](), fmt.Errorf("rankOffers user skills: %w", err)
	}
	if len(skills) == 0 {
		return empty[OfferMatch](), nil
	}

	candidates, err := r.store.ListOpenOffers(ctx, f.Predicates(now))
	if err != nil {
		return empty[OfferMatch](), fmt.Errorf("rankOffers candidates: %w", err)
	}

	ranked := make([]OfferMatch, 0, len(candidates))
	for _, c := range candidates {
		// The store already filtered; expiry is re-checked against the same now.
		if !c.Offer.IsOpen(now) {
			continue
		}
		m := Score(skills, c.Offer.Skills)
		if m.MatchedSkills == 0 {
			continue
		}
		ranked = append(ranked, OfferMatch{
			Offer:           c.Offer,
			CompanyName:     c.CompanyName,
			CompanyCategory: c.CompanyCategory,
			Match:           m,
		})
	}
	sortOffers(ranked)

	r.log.Debug("ranked offers for talent",
		zap.String("talentId", id.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("matched", len(ranked)),
		zap.Int("page", p.Page),
	)
	return paginate(ranked, p), nil
}

// RankApplicantsForOffer ranks the users who applied to an offer by how many
// of its required skills they have. Ties go to the earlier application.
// An unknown or malformed offer id yields an empty page.
func (r *Ranker) RankApplicantsForOffer(ctx context.Context, offerID string, p Pagination) (Page[ApplicantMatch], error) {
	p, err := r.pagination(p)
	if err != nil {
		return empty[ApplicantMatch](), err
	}
	id, err := uuid.Parse(offerID)
	if err != nil {
		return empty[ApplicantMatch](), nil
	}

	required, err := r.store.OfferSkills(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return empty[ApplicantMatch](), nil
	}
	if err != nil {
		return empty[ApplicantMatch](), fmt.Errorf("rankApplicants offer skills: %w", err)
	}
	if len(required) == 0 {
		return empty[ApplicantMatch](), nil
	}

	applicants, err := r.store.ListApplicants(ctx, id)
	if err != nil {
		return empty[ApplicantMatch](), fmt.Errorf("rankApplicants candidates: %w", err)
	}

	ranked := make([]ApplicantMatch, 0, len(applicants))
	for _, a := range applicants {
		m := Score(a.Applicant.Skills, required)
		if m.MatchedSkills == 0 {
			continue
		}
		ranked = append(ranked, ApplicantMatch{
			Applicant:        a.Applicant,
			JobApplicationID: a.JobApplicationID,
			AppliedAt:        a.AppliedAt,
			Status:           a.Status,
			Match:            m,
		})
	}
	sortApplicants(ranked)

	r.log.Debug("ranked applicants for offer",
		zap.String("jobOfferId", id.String()),
		zap.Int("applicants", len(applicants)),
		zap.Int("matched", len(ranked)),
	)
	return paginate(ranked, p), nil
}

// Statistics counts applications to a company's offers posted within the
// range, grouped by status. Statuses with no application are absent.
func (r *Ranker) Statistics(ctx context.Context, companyID string, dr DateRange, f StatsFilter) (map[model.ApplicationStatus]int, error) {
	if err := r.validate.Struct(dr); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(companyID)
	if err != nil {
		return map[model.ApplicationStatus]int{}, nil
	}

	counts, err := r.store.CountApplicationsByStatus(ctx, f.Predicates(id, dr))
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	out := make(map[model.ApplicationStatus]int, len(counts))
	for st, n := range counts {
		if n > 0 {
			out[st] = n
		}
	}
	return out, nil
}
