package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/catalog/internal/core/catalog"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/niksmo/catalog/internal/core/search"
)

var (
	_ port.ProductGetter      = (*Service)(nil)
	_ port.ProductSearcher    = (*Service)(nil)
	_ port.ProductRecommender = (*Service)(nil)
	_ port.ProductLister      = (*Service)(nil)
	_ port.CatalogAdmin       = (*Service)(nil)
)

type Service struct {
	store       *catalog.Store
	loader      port.CatalogLoader
	executor    search.Executor
	recommender search.Recommender

	reloadMu sync.Mutex
}

func New(store *catalog.Store, loader port.CatalogLoader) *Service {
	return &Service{
		store:       store,
		loader:      loader,
		executor:    search.NewExecutor(store),
		recommender: search.NewRecommender(store),
	}
}

// Bootstrap performs the initial catalog load.
//
// With allowEmpty set a failed load is logged and the service
// keeps serving the empty catalog it was created with.
func (s *Service) Bootstrap(ctx context.Context, allowEmpty bool) error {
	const op = "Service.Bootstrap"
	log := slog.With("op", op)

	_, err := s.Reload(ctx)
	if err == nil {
		return nil
	}
	if !allowEmpty {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Warn("starting with empty catalog", "err", err)
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	const op = "Service.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, ok := s.store.Catalog().FindByID(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%s: %w", op, &domain.NotFoundError{ID: id})
	}
	return p, nil
}

func (s *Service) Search(
	ctx context.Context, params domain.CriteriaParams,
) (domain.SearchResult, error) {
	const op = "Service.Search"

	if err := ctx.Err(); err != nil {
		return domain.SearchResult{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := domain.NewSearchCriteria(params)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.executor.Execute(c), nil
}

func (s *Service) Recommend(
	ctx context.Context, id string, k int,
) ([]domain.Product, error) {
	const op = "Service.Recommend"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.recommender.Recommend(id, k), nil
}

func (s *Service) Popular(ctx context.Context, limit int) ([]domain.Product, error) {
	const op = "Service.Popular"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return search.Popular(s.store, limit), nil
}

func (s *Service) Available(ctx context.Context, limit int) ([]domain.Product, error) {
	const op = "Service.Available"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return search.AvailableProducts(s.store, limit), nil
}

func (s *Service) Stats(ctx context.Context) (domain.CatalogStats, error) {
	const op = "Service.Stats"

	if err := ctx.Err(); err != nil {
		return domain.CatalogStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.store.Catalog().Stats(), nil
}

// Reload reads the catalog from the loader and publishes it.
// Concurrent calls run one at a time. A failed load keeps
// the current catalog in place.
func (s *Service) Reload(ctx context.Context) (domain.CatalogStats, error) {
	const op = "Service.Reload"
	log := slog.With("op", op)

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	snapshot, err := catalog.Load(ctx, s.loader)
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("%s: %w", op, err)
	}

	prev := s.store.Replace(snapshot)
	log.Info(
		"catalog replaced",
		"source", s.loader.Name(),
		"products", snapshot.Len(),
		"previous", prev.Len(),
	)
	return snapshot.Stats(), nil
}

// RunReloader reloads the catalog every interval until ctx is done.
// Errors are logged and the previous catalog stays in effect.
func (s *Service) RunReloader(ctx context.Context, interval time.Duration) {
	const op = "Service.RunReloader"
	log := slog.With("op", op)

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reload(ctx); err != nil {
				log.Error("periodic reload failed", "err", err)
			}
		}
	}
}
