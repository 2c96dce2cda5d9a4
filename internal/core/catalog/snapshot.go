package catalog

import (
	"log/slog"
	"slices"
	"time"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.Catalog = (*Snapshot)(nil)

// A Snapshot is an immutable, indexed set of products.
//
// It is safe for concurrent use once returned by [NewSnapshot].
type Snapshot struct {
	products []domain.Product
	byID     map[string]int
	stats    domain.CatalogStats
}

// NewSnapshot indexes products keeping their order.
// Later duplicates of an already seen identifier are dropped.
func NewSnapshot(source string, products []domain.Product) *Snapshot {
	const op = "catalog.NewSnapshot"
	log := slog.With("op", op)

	s := &Snapshot{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	for _, p := range products {
		if _, dup := s.byID[p.ID()]; dup {
			log.Warn("duplicate product skipped", "id", p.ID(), "source", source)
			continue
		}
		s.byID[p.ID()] = len(s.products)
		s.products = append(s.products, p)
	}

	s.stats = s.computeStats(source)
	return s
}

// Empty returns a snapshot without products.
func Empty() *Snapshot {
	return NewSnapshot("", nil)
}

func (s *Snapshot) FindByID(id string) (domain.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// FindAll returns the products in enumeration order.
// The slice is a copy owned by the caller.
func (s *Snapshot) FindAll() []domain.Product {
	return slices.Clone(s.products)
}

func (s *Snapshot) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *Snapshot) Len() int {
	return len(s.products)
}

func (s *Snapshot) Stats() domain.CatalogStats {
	return s.stats
}

func (s *Snapshot) computeStats(source string) domain.CatalogStats {
	categories := make(map[string]struct{})
	brands := make(map[string]struct{})
	var available int

	for _, p := range s.products {
		if p.IsAvailable() {
			available++
		}
		categories[p.CategoryID()] = struct{}{}
		if b, ok := p.Brand(); ok {
			brands[b] = struct{}{}
		}
	}

	return domain.CatalogStats{
		TotalItems:     len(s.products),
		AvailableItems: available,
		Categories:     len(categories),
		Brands:         len(brands),
		Source:         source,
		LoadedAt:       time.Now(),
	}
}
