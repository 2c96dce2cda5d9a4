package search

import (
	"cmp"
	"slices"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

type Recommender struct {
	provider port.CatalogProvider
}

func NewRecommender(provider port.CatalogProvider) Recommender {
	return Recommender{provider}
}

type scored struct {
	product domain.Product
	score   float64
}

// Recommend returns up to k products most similar to the seed.
//
// The seed itself and products scoring zero are never returned.
// Equal scores are ordered by sold quantity, highest first.
// An unknown seed yields an empty slice.
func (r Recommender) Recommend(seedID string, k int) []domain.Product {
	if k <= 0 {
		return []domain.Product{}
	}

	catalog := r.provider.Catalog()
	seed, ok := catalog.FindByID(seedID)
	if !ok {
		return []domain.Product{}
	}

	var candidates []scored
	for _, p := range catalog.FindAll() {
		if p.ID() == seed.ID() {
			continue
		}
		score := domain.Similarity(seed, p)
		if score > 0 {
			candidates = append(candidates, scored{p, score})
		}
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(b.product.SoldQuantity(), a.product.SoldQuantity())
	})

	n := min(k, len(candidates))
	out := make([]domain.Product, n)
	for i := range n {
		out[i] = candidates[i].product
	}
	return out
}
