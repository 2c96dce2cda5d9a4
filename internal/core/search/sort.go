package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/niksmo/catalog/internal/core/domain"
)

// Sortable fields.
const (
	FieldPrice             = "price"
	FieldTitle             = "title"
	FieldAvailableQuantity = "available_quantity"
	FieldSoldQuantity      = "sold_quantity"
	FieldBrand             = "brand"
	FieldID                = "id"
	FieldCategoryID        = "category_id"
	FieldCondition         = "condition"
	FieldPermalink         = "permalink"
	FieldWarranty          = "warranty"
)

type compareFunc func(a, b domain.Product) int

var comparators = map[string]compareFunc{
	FieldPrice: func(a, b domain.Product) int {
		return a.Price().Amount.Cmp(b.Price().Amount)
	},
	FieldTitle: func(a, b domain.Product) int {
		return strings.Compare(strings.ToLower(a.Title()), strings.ToLower(b.Title()))
	},
	FieldAvailableQuantity: func(a, b domain.Product) int {
		return cmp.Compare(a.AvailableQuantity(), b.AvailableQuantity())
	},
	FieldSoldQuantity: func(a, b domain.Product) int {
		return cmp.Compare(a.SoldQuantity(), b.SoldQuantity())
	},
	FieldBrand: func(a, b domain.Product) int {
		ab, _ := a.Brand()
		bb, _ := b.Brand()
		return strings.Compare(ab, bb)
	},
	FieldID:         byString(domain.Product.ID),
	FieldCategoryID: byString(domain.Product.CategoryID),
	FieldCondition:  byString(domain.Product.Condition),
	FieldPermalink:  byString(domain.Product.Permalink),
	FieldWarranty:   byString(domain.Product.Warranty),
}

func byString(get func(domain.Product) string) compareFunc {
	return func(a, b domain.Product) int {
		return strings.Compare(get(a), get(b))
	}
}

// IsSortable reports whether field has a known ordering.
func IsSortable(field string) bool {
	_, ok := comparators[field]
	return ok
}

// SortProducts returns a stably sorted copy of products.
// An unknown field leaves the order unchanged.
func SortProducts(
	products []domain.Product, field string, dir domain.SortDirection,
) []domain.Product {
	out := slices.Clone(products)

	compare, ok := comparators[field]
	if !ok {
		return out
	}

	if dir == domain.SortDesc {
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return compare(b, a)
		})
		return out
	}

	slices.SortStableFunc(out, compare)
	return out
}
