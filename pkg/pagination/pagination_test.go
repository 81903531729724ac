package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   PaginationParams
		want PaginationParams
	}{
		{name: "zero", in: PaginationParams{}, want: PaginationParams{Page: 1, PerPage: DefaultPerPage}},
		{name: "too large", in: PaginationParams{Page: 3, PerPage: 500}, want: PaginationParams{Page: 3, PerPage: MaxPerPage}},
		{name: "in range", in: PaginationParams{Page: 2, PerPage: 20}, want: PaginationParams{Page: 2, PerPage: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Validate()
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 15, 31)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(1, 15, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)

	assert.Equal(t, 30, (&PaginationParams{Page: 3, PerPage: 15}).Offset())
}

func TestNewPaginatedResultNeverNil(t *testing.T) {
	r := NewPaginatedResult[int](nil, NewPagination(1, 15, 0))
	assert.NotNil(t, r.Items)
}
