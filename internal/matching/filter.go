package matching

import (
	"time"

	"github.com/google/uuid"

	"hiretop/matching-service/internal/model"
)

// Column is a closed set of filterable attributes. Stores map each column to
// their own storage; values never become part of query text.
type Column string

const (
	ColOfferExpiredAt    Column = "offer.expired_at"
	ColOfferPostedAt     Column = "offer.posted_at"
	ColOfferJobType      Column = "offer.job_type"
	ColOfferLocationType Column = "offer.location_type"
	ColOfferCompanyID    Column = "offer.company_id"
	ColCompanyCategory   Column = "company.category"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLte Op = "<="
)

// Predicate is one (column, operator, value) triple. A predicate list is
// always ANDed.
type Predicate struct {
	Column Column
	Op     Op
	Value  any
}

// Holds evaluates the predicate against the actual column value. A nil actual
// value never satisfies a predicate, like NULL in SQL.
func (p Predicate) Holds(actual any) bool {
	if actual == nil {
		return false
	}
	if at, ok := actual.(time.Time); ok {
		want, ok := p.Value.(time.Time)
		if !ok {
			return false
		}
		switch p.Op {
		case OpEq:
			return at.Equal(want)
		case OpGt:
			return at.After(want)
		case OpGte:
			return !at.Before(want)
		case OpLte:
			return !at.After(want)
		}
		return false
	}
	return p.Op == OpEq && actual == p.Value
}

// MatchesAll reports whether every predicate holds for the row described by get.
func MatchesAll(preds []Predicate, get func(Column) any) bool {
	for _, p := range preds {
		if !p.Holds(get(p.Column)) {
			return false
		}
	}
	return true
}

// Filter narrows an offer search. Nil fields are not applied.
type Filter struct {
	JobType         *model.JobType
	LocationType    *model.LocationType
	CompanyCategory *model.CompanyCategory
}

// Predicates returns the open-offer predicate followed by one predicate per
// supplied filter field.
func (f Filter) Predicates(now time.Time) []Predicate {
	preds := []Predicate{{Column: ColOfferExpiredAt, Op: OpGt, Value: now}}
	if f.JobType != nil {
		preds = append(preds, Predicate{Column: ColOfferJobType, Op: OpEq, Value: *f.JobType})
	}
	if f.LocationType != nil {
		preds = append(preds, Predicate{Column: ColOfferLocationType, Op: OpEq, Value: *f.LocationType})
	}
	if f.CompanyCategory != nil {
		preds = append(preds, Predicate{Column: ColCompanyCategory, Op: OpEq, Value: *f.CompanyCategory})
	}
	return preds
}

// DateRange bounds offer posting dates, both ends inclusive.
type DateRange struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtefield=Start"`
}

// StatsFilter narrows application statistics.
type StatsFilter struct {
	JobType      *model.JobType
	LocationType *model.LocationType
}

// Predicates returns the statistics predicates for one company.
func (f StatsFilter) Predicates(companyID uuid.UUID, r DateRange) []Predicate {
	preds := []Predicate{
		{Column: ColOfferCompanyID, Op: OpEq, Value: companyID},
		{Column: ColOfferPostedAt, Op: OpGte, Value: r.Start},
		{Column: ColOfferPostedAt, Op: OpLte, Value: r.End},
	}
	if f.JobType != nil {
		preds = append(preds, Predicate{Column: ColOfferJobType, Op: OpEq, Value: *f.JobType})
	}
	if f.LocationType != nil {
		preds = append(preds, Predicate{Column: ColOfferLocationType, Op: OpEq, Value: *f.LocationType})
	}
	return preds
}
