package matching

// Pagination selects one page of a ranked sequence.
type Pagination struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"perPage" validate:"min=1"`
}

// Offset is the number of rows skipped before the page. It is only
// meaningful for pages that exist; paginate checks that first.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PerPage }

// Page is one slice of a ranked sequence. Total counts the whole sequence.
type Page[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

// paginate cuts rows into the requested page. Total is len(rows). The page
// bound is checked before any multiplication so huge page numbers yield an
// empty page instead of an overflowed offset.
func paginate[T any](rows []T, p Pagination) Page[T] {
	out := Page[T]{Total: len(rows), Data: make([]T, 0)}
	if len(rows) == 0 || p.Page < 1 || p.PerPage < 1 {
		return out
	}
	if p.Page-1 > (len(rows)-1)/p.PerPage {
		return out
	}
	start := p.Offset()
	end := len(rows)
	if p.PerPage < end-start {
		end = start + p.PerPage
	}
	out.Data = append(out.Data, rows[start:end]...)
	return out
}

func empty[T any]() Page[T] {
	return Page[T]{Total: 0, Data: make([]T, 0)}
}
