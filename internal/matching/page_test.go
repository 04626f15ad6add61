package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	cases := []struct {
		name string
		p    Pagination
		want []int
	}{
		{"first page", Pagination{Page: 1, PerPage: 2}, []int{1, 2}},
		{"last partial page", Pagination{Page: 3, PerPage: 2}, []int{5}},
		{"one past the end", Pagination{Page: 4, PerPage: 2}, []int{}},
		{"page fits exactly", Pagination{Page: 1, PerPage: 5}, []int{1, 2, 3, 4, 5}},
		{"huge page", Pagination{Page: 1e17, PerPage: 100}, []int{}},
		{"max page", Pagination{Page: math.MaxInt, PerPage: math.MaxInt}, []int{}},
		{"huge per page", Pagination{Page: 1, PerPage: math.MaxInt}, []int{1, 2, 3, 4, 5}},
		{"zero per page", Pagination{Page: 1, PerPage: 0}, []int{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := paginate(rows, tc.p)
			assert.Equal(t, len(rows), got.Total)
			assert.Equal(t, tc.want, got.Data)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	got := paginate([]int{}, Pagination{Page: 1, PerPage: 10})
	assert.Equal(t, 0, got.Total)
	assert.NotNil(t, got.Data)
	assert.Empty(t, got.Data)
}
