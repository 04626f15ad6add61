package matching

import (
	"sort"

	"github.com/google/uuid"
)

// Match holds the skill statistics of one (subject, target) pair.
type Match struct {
	MatchedSkills int
	TotalSkills   int
	MatchingRate  float64
}

// Score intersects the skills a subject has with the skills a target
// requires. Duplicate ids count once. A target with no required skills
// scores zero.
func Score(have, required []uuid.UUID) Match {
	haveSet := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		haveSet[id] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{}, len(required))
	var m Match
	for _, id := range required {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		m.TotalSkills++
		if _, ok := haveSet[id]; ok {
			m.MatchedSkills++
		}
	}
	if m.TotalSkills > 0 {
		m.MatchingRate = float64(m.MatchedSkills) / float64(m.TotalSkills)
	}
	return m
}

// sortOffers orders by rate desc, then most recently posted, then id.
func sortOffers(rows []OfferMatch) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.MatchingRate != b.MatchingRate {
			return a.MatchingRate > b.MatchingRate
		}
		if !a.Offer.PostedAt.Equal(b.Offer.PostedAt) {
			return a.Offer.PostedAt.After(b.Offer.PostedAt)
		}
		return a.Offer.ID.String() < b.Offer.ID.String()
	})
}

// sortApplicants orders by rate desc, then earliest application, then id.
func sortApplicants(rows []ApplicantMatch) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.MatchingRate != b.MatchingRate {
			return a.MatchingRate > b.MatchingRate
		}
		if !a.AppliedAt.Equal(b.AppliedAt) {
			return a.AppliedAt.Before(b.AppliedAt)
		}
		return a.JobApplicationID.String() < b.JobApplicationID.String()
	})
}
