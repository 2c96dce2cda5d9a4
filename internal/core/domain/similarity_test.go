package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(t *testing.T, id, brand, category, price string, path ...string) Product {
	t.Helper()
	var attrs []Attribute
	if brand != "" {
		attrs = []Attribute{{ID: AttrBrand, ValueName: brand}}
	}
	p, err := NewProduct(ProductParams{
		ID:           id,
		Title:        id,
		CategoryID:   category,
		Price:        decimal.RequireFromString(price),
		CurrencyID:   "ARS",
		Permalink:    "https://example.com/" + id,
		Attributes:   attrs,
		CategoryPath: path,
	})
	require.NoError(t, err)
	return p
}

func TestSimilarity(t *testing.T) {
	base := product(t, "A", "X", "C1", "100", "Main")

	tests := []struct {
		name      string
		candidate Product
		want      float64
	}{
		{"AllRules", product(t, "B", "X", "C1", "120", "Main"), MaxSimilarity},
		{"BrandIsCaseSensitive", product(t, "B", "x", "C2", "1000", "Main"), 2},
		{"CategoryOnly", product(t, "B", "Y", "C1", "1000"), 1},
		{"PriceBoundary", product(t, "B", "Y", "C2", "125"), 1},
		{"PriceOutside", product(t, "B", "Y", "C2", "125.01"), 0},
		{"NoBrandNoPath", product(t, "B", "", "C2", "80"), 1},
		{"Self", base, MaxSimilarity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(base, tt.candidate)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, MaxSimilarity)
		})
	}

	t.Run("BothPricesZero", func(t *testing.T) {
		a := product(t, "A", "", "C1", "0")
		b := product(t, "B", "", "C2", "0")
		assert.Equal(t, 1.0, Similarity(a, b))
	})

	t.Run("EmptyMainCategoryIgnored", func(t *testing.T) {
		a := product(t, "A", "", "C1", "1", "")
		b := product(t, "B", "", "C2", "100", "")
		assert.Equal(t, 0.0, Similarity(a, b))
	})
}
