package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.CatalogProvider = (*Store)(nil)

// A Store publishes the snapshot currently in effect.
//
// Readers never lock: a reload builds a new [Snapshot]
// and swaps it in with [Store.Replace].
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store publishing s, or an empty snapshot if s is nil.
func NewStore(s *Snapshot) *Store {
	if s == nil {
		s = Empty()
	}
	st := &Store{}
	st.current.Store(s)
	return st
}

func (st *Store) Catalog() port.Catalog {
	return st.current.Load()
}

func (st *Store) Snapshot() *Snapshot {
	return st.current.Load()
}

// Replace publishes s and returns the previous snapshot.
func (st *Store) Replace(s *Snapshot) *Snapshot {
	return st.current.Swap(s)
}

// Load reads every product from l and builds a snapshot out of them.
func Load(ctx context.Context, l port.CatalogLoader) (*Snapshot, error) {
	const op = "catalog.Load"
	log := slog.With("op", op, "source", l.Name())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := l.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := NewSnapshot(l.Name(), products)
	log.Info("catalog loaded", "products", s.Len())
	return s, nil
}
