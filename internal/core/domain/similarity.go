package domain

import "github.com/shopspring/decimal"

const (
	brandWeight        = 3.0
	mainCategoryWeight = 2.0
	categoryIDWeight   = 1.0
	priceWeight        = 1.0

	// MaxSimilarity is the score of two products matching on every rule.
	MaxSimilarity = brandWeight + mainCategoryWeight + categoryIDWeight + priceWeight
)

var priceTolerance = decimal.NewFromFloat(0.2)

// Similarity scores how alike candidate is to base.
//
// The score is additive over four rules and lies in [0, MaxSimilarity].
// It is defined from base to candidate only. Comparing a product with
// itself is not special-cased.
func Similarity(base, candidate Product) float64 {
	var score float64

	baseBrand, ok1 := base.Brand()
	candBrand, ok2 := candidate.Brand()
	if ok1 && ok2 && baseBrand == candBrand {
		score += brandWeight
	}

	baseMain, ok1 := base.MainCategory()
	candMain, ok2 := candidate.MainCategory()
	if ok1 && ok2 && baseMain == candMain {
		score += mainCategoryWeight
	}

	if base.CategoryID() == candidate.CategoryID() {
		score += categoryIDWeight
	}

	if similarPrice(base.Price().Amount, candidate.Price().Amount) {
		score += priceWeight
	}

	return score
}

// similarPrice reports whether |a-b| / max(a,b) <= 20%.
// Two zero prices are equal and count as similar.
func similarPrice(a, b decimal.Decimal) bool {
	maxPrice := decimal.Max(a, b)
	if maxPrice.IsZero() {
		return true
	}
	diff := a.Sub(b).Abs().Div(maxPrice)
	return diff.LessThanOrEqual(priceTolerance)
}
