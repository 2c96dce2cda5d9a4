package search

import (
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

// Popular returns up to limit products, best sellers first.
func Popular(provider port.CatalogProvider, limit int) []domain.Product {
	products := provider.Catalog().FindAll()
	products = SortProducts(products, FieldSoldQuantity, domain.SortDesc)
	return head(products, limit)
}

// AvailableProducts returns up to limit products in stock,
// largest stock first.
func AvailableProducts(provider port.CatalogProvider, limit int) []domain.Product {
	products := Apply(provider.Catalog().FindAll(), Available())
	products = SortProducts(products, FieldAvailableQuantity, domain.SortDesc)
	return head(products, limit)
}

func head(products []domain.Product, limit int) []domain.Product {
	if limit <= 0 {
		return []domain.Product{}
	}
	return products[:min(limit, len(products))]
}
