package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lovoo/goka"
	gokastorage "github.com/lovoo/goka/storage"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/niksmo/catalog/pkg/retry"
	"github.com/niksmo/catalog/pkg/schema"
)

var _ port.CatalogLoader = (*CatalogView)(nil)

var errNotRecovered = errors.New("view is not recovered yet")

// A productCodec used for serde [schema.ProductV1] inside goka.
type productCodec struct {
	serde Serde
}

func (c productCodec) Encode(v any) ([]byte, error) {
	const op = "productCodec.Encode"
	if _, ok := v.(schema.ProductV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productCodec) Decode(data []byte) (any, error) {
	const op = "productCodec.Decode"
	var s schema.ProductV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A CatalogViewConfig used for setup [CatalogView].
//
// SeedBrokers, Topic and Serde are required.
type CatalogViewConfig struct {
	SeedBrokers    []string
	Topic          string
	Serde          Serde
	RecoverTimeout time.Duration
}

// A CatalogView keeps the compacted catalog topic in memory
// and serves it as a catalog source.
type CatalogView struct {
	gv       *goka.View
	topic    string
	retryCfg retry.RetryConfig
}

func NewCatalogView(config CatalogViewConfig) (*CatalogView, error) {
	const op = "NewCatalogView"

	if len(config.SeedBrokers) == 0 || config.Topic == "" || config.Serde == nil {
		return nil, opErr(ErrTooFewOpts, op)
	}

	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.Table(config.Topic),
		productCodec{config.Serde},
		goka.WithViewStorageBuilder(gokastorage.MemoryBuilder()),
		goka.WithViewAutoReconnect(),
		goka.WithViewLogger(discardLogger()),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	const pollDelay = 250 * time.Millisecond
	timeout := config.RecoverTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &CatalogView{
		gv:    gv,
		topic: config.Topic,
		retryCfg: retry.RetryConfig{
			MaxAttempts: max(1, int(timeout/pollDelay)),
			Backoff:     retry.LinearBackoff(pollDelay),
			ShouldRetry: func(err error) bool {
				return errors.Is(err, errNotRecovered)
			},
		},
	}, nil
}

// Run blocks until ctx is done.
func (v *CatalogView) Run(ctx context.Context) {
	const op = "CatalogView.Run"
	log := slog.With("op", op, "topic", v.topic)

	log.Info("catalog view is running")
	if err := v.gv.Run(ctx); err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("catalog view is stopped")
}

func (v *CatalogView) Name() string {
	return "kafka"
}

// Load waits for the view to catch up with the topic
// and returns its products ordered by key.
func (v *CatalogView) Load(ctx context.Context) ([]domain.Product, error) {
	const op = "CatalogView.Load"
	log := slog.With("op", op, "topic", v.topic)

	err := retry.Do(ctx, v.retryCfg, func() error {
		if !v.gv.Recovered() {
			return errNotRecovered
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrSourceUnavailable, err)
	}

	it, err := v.gv.Iterator()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrSourceUnavailable, err)
	}
	defer it.Release()

	var products []domain.Product
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		value, err := it.Value()
		if err != nil {
			log.Warn("record skipped", "key", it.Key(), "err", err)
			continue
		}

		s, ok := value.(schema.ProductV1)
		if !ok {
			log.Warn("record skipped", "key", it.Key(), "type", fmt.Sprintf("%T", value))
			continue
		}

		p, err := schemaV1ToProduct(s)
		if err != nil {
			log.Warn("record skipped", "key", it.Key(), "err", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}
