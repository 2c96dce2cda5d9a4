package search

import (
	"testing"

	"github.com/niksmo/catalog/internal/core/catalog"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type item struct {
	id        string
	title     string
	category  string
	price     string
	available int
	sold      int
	brand     string
	model     string
	path      []string
}

func newProduct(t *testing.T, it item) domain.Product {
	t.Helper()
	var attrs []domain.Attribute
	if it.brand != "" {
		attrs = append(attrs, domain.Attribute{
			ID: domain.AttrBrand, Name: "Marca", ValueName: it.brand,
		})
	}
	if it.model != "" {
		attrs = append(attrs, domain.Attribute{
			ID: domain.AttrModel, Name: "Modelo", ValueName: it.model,
		})
	}
	price := it.price
	if price == "" {
		price = "0"
	}
	p, err := domain.NewProduct(domain.ProductParams{
		ID:                it.id,
		Title:             it.title,
		CategoryID:        it.category,
		Price:             decimal.RequireFromString(price),
		CurrencyID:        "ARS",
		AvailableQuantity: it.available,
		SoldQuantity:      it.sold,
		Condition:         "new",
		Permalink:         "https://example.com/" + it.id,
		Attributes:        attrs,
		CategoryPath:      it.path,
	})
	require.NoError(t, err)
	return p
}

func newStore(t *testing.T, items ...item) *catalog.Store {
	t.Helper()
	products := make([]domain.Product, 0, len(items))
	for _, it := range items {
		products = append(products, newProduct(t, it))
	}
	return catalog.NewStore(catalog.NewSnapshot("test", products))
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID())
	}
	return out
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func phones() []item {
	return []item{
		{id: "MLA1", title: "Samsung Galaxy S21", category: "MLA1055", price: "150000",
			available: 10, sold: 50, brand: "Samsung", model: "Galaxy S21", path: []string{"Celulares"}},
		{id: "MLA2", title: "iPhone 13", category: "MLA1055", price: "250000",
			available: 0, sold: 120, brand: "Apple", model: "iPhone 13", path: []string{"Celulares"}},
		{id: "MLA3", title: "Samsung Galaxy A52", category: "MLA1055", price: "90000",
			available: 5, sold: 80, brand: "Samsung", model: "Galaxy A52", path: []string{"Celulares"}},
		{id: "MLA4", title: "Notebook Lenovo", category: "MLA1648", price: "300000",
			available: 3, sold: 10, brand: "Lenovo", path: []string{"Computacion"}},
		{id: "MLA5", title: "Funda silicona", category: "MLA3502", price: "1500",
			available: 100, sold: 300, path: []string{"Accesorios"}},
	}
}
