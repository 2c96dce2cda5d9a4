package port

import (
	"context"

	"github.com/niksmo/catalog/internal/core/domain"
)

type (
	runnerContext interface {
		Run(context.Context)
	}

	closer interface {
		Close()
	}
)

// Catalog is a read-only view over one loaded set of products.
type Catalog interface {
	FindByID(id string) (domain.Product, bool)
	FindAll() []domain.Product
	Exists(id string) bool
	Len() int
	Stats() domain.CatalogStats
}

// CatalogProvider hands out the catalog currently in effect.
type CatalogProvider interface {
	Catalog() Catalog
}

// CatalogLoader reads every product from an external source.
//
// Loaders skip malformed records and fail only when
// the source as a whole cannot be read.
type CatalogLoader interface {
	Name() string
	Load(context.Context) ([]domain.Product, error)
}

type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

type ProductSearcher interface {
	Search(ctx context.Context, p domain.CriteriaParams) (domain.SearchResult, error)
}

type ProductRecommender interface {
	Recommend(ctx context.Context, id string, k int) ([]domain.Product, error)
}

type ProductLister interface {
	Popular(ctx context.Context, limit int) ([]domain.Product, error)
	Available(ctx context.Context, limit int) ([]domain.Product, error)
}

type CatalogAdmin interface {
	Stats(ctx context.Context) (domain.CatalogStats, error)
	Reload(ctx context.Context) (domain.CatalogStats, error)
}

type ProductsProducer interface {
	ProduceProducts(context.Context, []domain.Product) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (domain.RateDecision, error)
}

type CatalogWatcher interface {
	runnerContext
	closer
}
