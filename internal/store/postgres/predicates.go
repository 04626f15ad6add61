package postgres

import (
	"fmt"
	"strings"

	"hiretop/matching-service/internal/matching"
	"hiretop/matching-service/internal/model"
)

// columns maps filter columns to SQL expressions over the aliases used by
// every query in this package: o = job_offers, c = companies.
var columns = map[matching.Column]string{
	matching.ColOfferExpiredAt:    "o.expired_at",
	matching.ColOfferPostedAt:     "o.posted_at",
	matching.ColOfferJobType:      "o.job_type::text",
	matching.ColOfferLocationType: "o.location_type::text",
	matching.ColOfferCompanyID:    "o.company_id",
	matching.ColCompanyCategory:   "c.category::text",
}

var operators = map[matching.Op]string{
	matching.OpEq:  "=",
	matching.OpGt:  ">",
	matching.OpGte: ">=",
	matching.OpLte: "<=",
}

// compileWhere turns predicates into an ANDed clause with numbered
// placeholders continuing after args. Values only ever travel as arguments.
func compileWhere(preds []matching.Predicate, args []any) (string, []any, error) {
	if len(preds) == 0 {
		return "TRUE", args, nil
	}
	clauses := make([]string, 0, len(preds))
	for _, p := range preds {
		col, ok := columns[p.Column]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter column %q", p.Column)
		}
		op, ok := operators[p.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter operator %q", p.Op)
		}
		args = append(args, argValue(p.Value))
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", col, op, len(args)))
	}
	return strings.Join(clauses, " AND "), args, nil
}

// argValue unwraps enum types so they bind as plain text.
func argValue(v any) any {
	switch e := v.(type) {
	case model.JobType:
		return string(e)
	case model.LocationType:
		return string(e)
	case model.CompanyCategory:
		return string(e)
	case model.ApplicationStatus:
		return string(e)
	}
	return v
}
