package search

import (
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

// An Executor runs search criteria against the current catalog.
type Executor struct {
	provider port.CatalogProvider
}

func NewExecutor(provider port.CatalogProvider) Executor {
	return Executor{provider}
}

// Execute selects, filters, sorts and pages products.
//
// The base set comes from the first present of query, category
// and brand. Availability and price range narrow it further.
// TotalCount is the size of the filtered set before paging.
func (e Executor) Execute(c domain.SearchCriteria) domain.SearchResult {
	products := e.provider.Catalog().FindAll()

	products = Apply(products, All(baseFilter(c), extraFilter(c)))

	if c.SortField() != "" {
		products = SortProducts(products, c.SortField(), c.SortDirection())
	}

	return domain.SearchResult{
		Items:      page(products, c.Offset(), c.Limit()),
		TotalCount: len(products),
		Criteria:   c,
	}
}

func baseFilter(c domain.SearchCriteria) Predicate {
	switch {
	case c.Query() != "":
		return MatchesText(c.Query())
	case c.CategoryID() != "":
		return InCategory(c.CategoryID())
	case c.Brand() != "":
		return HasBrand(c.Brand())
	default:
		return All()
	}
}

func extraFilter(c domain.SearchCriteria) Predicate {
	var ps []Predicate
	if c.AvailableOnly() {
		ps = append(ps, Available())
	}
	if c.HasPriceRange() {
		ps = append(ps, InPriceRange(c.MinPrice(), c.MaxPrice()))
	}
	return All(ps...)
}

func page(products []domain.Product, offset, limit int) []domain.Product {
	if offset >= len(products) {
		return []domain.Product{}
	}
	end := offset + min(limit, len(products)-offset)
	return products[offset:end]
}
