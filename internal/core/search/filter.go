package search

import (
	"strings"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/shopspring/decimal"
)

// A Predicate decides whether a product belongs to a result set.
type Predicate func(domain.Product) bool

// MatchesText matches q as a case-insensitive substring of the title,
// brand or model. An empty q matches every product.
func MatchesText(q string) Predicate {
	return func(p domain.Product) bool {
		return p.MatchesTerm(q)
	}
}

func InCategory(id string) Predicate {
	return func(p domain.Product) bool {
		return p.CategoryID() == id
	}
}

// HasBrand matches the brand exactly, ignoring case.
// Products without a brand never match.
func HasBrand(brand string) Predicate {
	return func(p domain.Product) bool {
		b, ok := p.Brand()
		return ok && strings.EqualFold(b, brand)
	}
}

// InPriceRange keeps prices within inclusive bounds. A nil bound is open.
func InPriceRange(min, max *decimal.Decimal) Predicate {
	return func(p domain.Product) bool {
		return p.InPriceRange(min, max)
	}
}

func Available() Predicate {
	return func(p domain.Product) bool {
		return p.IsAvailable()
	}
}

// All is the logical AND of ps. With no predicates it matches everything.
func All(ps ...Predicate) Predicate {
	return func(p domain.Product) bool {
		for _, pred := range ps {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// Apply returns a new slice with the products matching pred, in order.
func Apply(products []domain.Product, pred Predicate) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
