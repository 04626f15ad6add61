// Package model defines shared data structures for the matching service.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by stores when a uniqueness constraint would be violated.
var ErrConflict = errors.New("conflict")

// JobType mirrors the job_type enum in PostgreSQL.
type JobType string

const (
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeContract   JobType = "CONTRACT"
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeFreelance  JobType = "FREELANCE"
)

// ParseJobType converts a raw string to a JobType.
func ParseJobType(s string) (JobType, error) {
	t := JobType(s)
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeFreelance:
		return t, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// LocationType mirrors the location_type enum in PostgreSQL.
type LocationType string

const (
	LocationOnSite LocationType = "ON_SITE"
	LocationRemote LocationType = "REMOTE"
	LocationHybrid LocationType = "HYBRID"
)

// ParseLocationType converts a raw string to a LocationType.
func ParseLocationType(s string) (LocationType, error) {
	l := LocationType(s)
	switch l {
	case LocationOnSite, LocationRemote, LocationHybrid:
		return l, nil
	}
	return "", fmt.Errorf("unknown location type %q", s)
}

// CompanyCategory mirrors the company_category enum in PostgreSQL.
type CompanyCategory string

const (
	CategoryStartup         CompanyCategory = "STARTUP"
	CategorySME             CompanyCategory = "SME"
	CategoryLargeEnterprise CompanyCategory = "LARGE_ENTERPRISE"
	CategoryPublicSector    CompanyCategory = "PUBLIC_SECTOR"
	CategoryNonProfit       CompanyCategory = "NON_PROFIT"
)

// ParseCompanyCategory converts a raw string to a CompanyCategory.
func ParseCompanyCategory(s string) (CompanyCategory, error) {
	c := CompanyCategory(s)
	switch c {
	case CategoryStartup, CategorySME, CategoryLargeEnterprise, CategoryPublicSector, CategoryNonProfit:
		return c, nil
	}
	return "", fmt.Errorf("unknown company category %q", s)
}

// ApplicationStatus mirrors the application_status enum in PostgreSQL.
type ApplicationStatus string

const (
	StatusToAssess ApplicationStatus = "TO_ASSESS"
	StatusAccepted ApplicationStatus = "ACCEPTED"
	StatusRejected ApplicationStatus = "REJECTED"
)

// Skill is a named competence declared by talents and required by offers.
type Skill struct {
	ID       uuid.UUID
	Name     string
	AuthorID uuid.UUID
}

// Company owns job offers through JobOffer.CompanyID.
type Company struct {
	ID          uuid.UUID
	Name        string
	Category    CompanyCategory
	Description string
}

// User is a talent, or a company representative when CompanyID is set.
type User struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Address   *string
	Birthday  *time.Time
	CompanyID *uuid.UUID
	Skills    []uuid.UUID
}

// JobOffer is a position posted by a company. Skills holds the required skill ids.
type JobOffer struct {
	ID           uuid.UUID
	Description  string
	JobType      *JobType
	LocationType *LocationType
	CompanyID    uuid.UUID
	AuthorID     uuid.UUID
	PostedAt     time.Time
	ExpiredAt    time.Time
	Skills       []uuid.UUID
}

// IsOpen reports whether the offer still accepts applications at now.
func (o *JobOffer) IsOpen(now time.Time) bool {
	return now.Before(o.ExpiredAt)
}

// ApplicationFeedback is the message sent with a terminal decision.
type ApplicationFeedback struct {
	ID               uuid.UUID
	JobApplicationID uuid.UUID
	Message          string
	SentAt           time.Time
}

// JobInterview is the interview slot booked when an application is accepted.
type JobInterview struct {
	ID               uuid.UUID
	JobApplicationID uuid.UUID
	StartedAt        time.Time
	EndedAt          time.Time
}

// JobApplication is a talent's application to one job offer.
// CompanyID is the owning company of the offer and is read-only here.
type JobApplication struct {
	ID          uuid.UUID
	ApplicantID uuid.UUID
	JobOfferID  uuid.UUID
	CompanyID   uuid.UUID
	AppliedAt   time.Time
	Status      ApplicationStatus
	Feedback    *ApplicationFeedback
	Interview   *JobInterview
}

// Clone returns a deep copy so callers never share feedback or interview pointers.
func (a *JobApplication) Clone() *JobApplication {
	c := *a
	if a.Feedback != nil {
		f := *a.Feedback
		c.Feedback = &f
	}
	if a.Interview != nil {
		i := *a.Interview
		c.Interview = &i
	}
	return &c
}
