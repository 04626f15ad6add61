package grpcserver

import (
	"time"

	"hiretop/matching-service/internal/matching"
	"hiretop/matching-service/internal/model"
)

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optString[T ~string](v *T) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func offerMatchToMap(m *matching.OfferMatch) map[string]any {
	return map[string]any{
		"id":              m.Offer.ID.String(),
		"description":     m.Offer.Description,
		"jobType":         optString(m.Offer.JobType),
		"locationType":    optString(m.Offer.LocationType),
		"companyId":       m.Offer.CompanyID.String(),
		"authorId":        m.Offer.AuthorID.String(),
		"postedAt":        ts(m.Offer.PostedAt),
		"expiredAt":       ts(m.Offer.ExpiredAt),
		"companyName":     m.CompanyName,
		"companyCategory": string(m.CompanyCategory),
		"matchedSkills":   m.MatchedSkills,
		"totalSkills":     m.TotalSkills,
		"matchingRate":    m.MatchingRate,
	}
}

func applicantMatchToMap(m *matching.ApplicantMatch) map[string]any {
	out := map[string]any{
		"id":               m.Applicant.ID.String(),
		"firstName":        m.Applicant.FirstName,
		"lastName":         m.Applicant.LastName,
		"email":            m.Applicant.Email,
		"phone":            optString(m.Applicant.Phone),
		"address":          optString(m.Applicant.Address),
		"birthday":         nil,
		"jobApplicationId": m.JobApplicationID.String(),
		"appliedAt":        ts(m.AppliedAt),
		"status":           string(m.Status),
		"matchedSkills":    m.MatchedSkills,
		"totalSkills":      m.TotalSkills,
		"matchingRate":     m.MatchingRate,
	}
	if m.Applicant.Birthday != nil {
		out["birthday"] = m.Applicant.Birthday.Format(time.DateOnly)
	}
	return out
}

func applicationToMap(a *model.JobApplication) map[string]any {
	out := map[string]any{
		"id":          a.ID.String(),
		"applicantId": a.ApplicantID.String(),
		"jobOfferId":  a.JobOfferID.String(),
		"appliedAt":   ts(a.AppliedAt),
		"status":      string(a.Status),
		"feedback":    nil,
		"interview":   nil,
	}
	if a.Feedback != nil {
		out["feedback"] = map[string]any{
			"id":      a.Feedback.ID.String(),
			"message": a.Feedback.Message,
			"sentAt":  ts(a.Feedback.SentAt),
		}
	}
	if a.Interview != nil {
		out["interview"] = map[string]any{
			"id":        a.Interview.ID.String(),
			"startedAt": ts(a.Interview.StartedAt),
			"endedAt":   ts(a.Interview.EndedAt),
		}
	}
	return out
}
