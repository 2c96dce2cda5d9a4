package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchCriteria(t *testing.T) {
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	t.Run("Defaults", func(t *testing.T) {
		c, err := NewSearchCriteria(CriteriaParams{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, SortAsc, c.SortDirection())
		assert.False(t, c.HasPriceRange())
	})

	t.Run("EqualBounds", func(t *testing.T) {
		c, err := NewSearchCriteria(CriteriaParams{
			Limit: 1, MinPrice: price("10"), MaxPrice: price("10"),
		})
		require.NoError(t, err)
		assert.True(t, c.HasPriceRange())
	})

	t.Run("BoundsCopied", func(t *testing.T) {
		lo := price("10")
		c, err := NewSearchCriteria(CriteriaParams{Limit: 1, MinPrice: lo})
		require.NoError(t, err)
		*lo = decimal.NewFromInt(99)
		assert.True(t, c.MinPrice().Equal(decimal.NewFromInt(10)))
		assert.Nil(t, c.MaxPrice())
	})

	invalid := []struct {
		name   string
		params CriteriaParams
		field  string
	}{
		{"ZeroLimit", CriteriaParams{}, "limit"},
		{"NegativeOffset", CriteriaParams{Limit: 1, Offset: -1}, "offset"},
		{"BadDirection", CriteriaParams{Limit: 1, SortDirection: "up"}, "sort_direction"},
		{"MinAboveMax", CriteriaParams{Limit: 1, MinPrice: price("200"), MaxPrice: price("100")}, "price_range"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchCriteria(tt.params)
			require.ErrorIs(t, err, ErrInvalidCriteria)

			var target *InvalidCriteriaError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, tt.field, target.Field)
		})
	}
}

func TestSearchResult(t *testing.T) {
	c, err := NewSearchCriteria(CriteriaParams{Limit: 10, Offset: 20})
	require.NoError(t, err)

	r := SearchResult{Items: make([]Product, 10), TotalCount: 35, Criteria: c}
	assert.True(t, r.HasMore())
	assert.Equal(t, 3, r.CurrentPage())
	assert.Equal(t, 4, r.TotalPages())

	r = SearchResult{Items: make([]Product, 5), TotalCount: 25, Criteria: c}
	assert.False(t, r.HasMore())

	t.Run("HugeLimit", func(t *testing.T) {
		c, err := NewSearchCriteria(CriteriaParams{Limit: math.MaxInt})
		require.NoError(t, err)

		r := SearchResult{Items: make([]Product, 5), TotalCount: 5, Criteria: c}
		assert.Equal(t, 1, r.TotalPages())
		assert.Equal(t, 1, r.CurrentPage())
		assert.False(t, r.HasMore())
	})

	t.Run("HugeOffset", func(t *testing.T) {
		c, err := NewSearchCriteria(CriteriaParams{Limit: 1, Offset: math.MaxInt})
		require.NoError(t, err)

		r := SearchResult{Items: []Product{}, TotalCount: 5, Criteria: c}
		assert.Equal(t, math.MaxInt, r.CurrentPage())
		assert.Equal(t, 5, r.TotalPages())
		assert.False(t, r.HasMore())
	})
}

func TestNotFoundError(t *testing.T) {
	var err error = &NotFoundError{ID: "MLA1"}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "MLA1")
}
