package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.CatalogLoader = JSONLoader{}

// JSONLoader reads a file holding a JSON array of [Record].
type JSONLoader struct {
	path string
}

func NewJSONLoader(path string) JSONLoader {
	return JSONLoader{path}
}

func (l JSONLoader) Name() string {
	return "json"
}

func (l JSONLoader) Path() string {
	return l.path
}

func (l JSONLoader) Load(ctx context.Context) ([]domain.Product, error) {
	const op = "JSONLoader.Load"
	log := slog.With("op", op, "path", l.path)

	data, err := readSource(l.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrMalformedSource, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w: items must be a JSON array", op, domain.ErrMalformedSource)
	}

	products := make([]domain.Product, 0, len(raw))
	for i, msg := range raw {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		var r Record
		if err := json.Unmarshal(msg, &r); err != nil {
			log.Warn("record skipped", "index", i, "err", err)
			continue
		}

		p, err := r.ToProduct()
		if err != nil {
			log.Warn("record skipped", "index", i, "id", r.ID, "err", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return data, nil
}
