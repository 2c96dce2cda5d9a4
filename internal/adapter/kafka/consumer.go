package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/niksmo/catalog/internal/core/port"
	"github.com/niksmo/catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

const defaultUpdatesDebounce = 3 * time.Second

var _ port.CatalogWatcher = (*CatalogUpdatesConsumer)(nil)

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	Close()
}

type ConsumerOpt func(*consumerOpts) error

// ConsumerClientOpt tails topic from its end without a consumer group,
// so every service instance sees every update.
func ConsumerClientOpt(
	seedBrokers []string, topic string, tlsConfig *tls.Config,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ConsumerAdminOpt(admin port.CatalogAdmin) ConsumerOpt {
	return func(co *consumerOpts) error {
		if admin == nil {
			return errors.New("catalog admin is nil")
		}
		co.admin = admin
		return nil
	}
}

// ConsumerDebounceOpt sets how long the consumer waits after the last
// update before reloading.
//
// The reload reads the goka view, which consumes the topic on its own.
// Nothing checks that the view has applied the records this consumer saw,
// so d must exceed the view's consume lag; a shorter one reloads stale data
// until the next burst.
func ConsumerDebounceOpt(d time.Duration) ConsumerOpt {
	return func(co *consumerOpts) error {
		if d <= 0 {
			return errors.New("debounce must be positive")
		}
		co.debounce = d
		return nil
	}
}

type consumerOpts struct {
	cl       ConsumerClient
	decoder  Decoder
	admin    port.CatalogAdmin
	debounce time.Duration
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.cl == nil || co.decoder == nil || co.admin == nil {
		return ErrTooFewOpts
	}
	if co.debounce == 0 {
		co.debounce = defaultUpdatesDebounce
	}
	return nil
}

// A CatalogUpdatesConsumer tails the catalog topic and reloads
// the catalog once updates stop arriving for the debounce interval.
// See [ConsumerDebounceOpt] for how the interval relates to the view lag.
type CatalogUpdatesConsumer struct {
	opPrefix      string
	cl            ConsumerClient
	decoder       Decoder
	admin         port.CatalogAdmin
	debounce      time.Duration
	slowDownTimer *time.Timer

	mu          sync.Mutex
	reloadTimer *time.Timer
}

func NewCatalogUpdatesConsumer(opts ...ConsumerOpt) (*CatalogUpdatesConsumer, error) {
	const op = "NewCatalogUpdatesConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return nil, opErr(err, op)
	}

	return &CatalogUpdatesConsumer{
		opPrefix:      "CatalogUpdatesConsumer",
		cl:            options.cl,
		decoder:       options.decoder,
		admin:         options.admin,
		debounce:      options.debounce,
		slowDownTimer: time.NewTimer(0),
	}, nil
}

// Run blocks until ctx is done.
func (c *CatalogUpdatesConsumer) Run(ctx context.Context) {
	const op = "Run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.slowDown()
			}
		}
	}
}

func (c *CatalogUpdatesConsumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	if n := c.processFetches(fetches); n != 0 {
		c.scheduleReload(ctx)
	}
	return nil
}

func (c *CatalogUpdatesConsumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	err := c.handleFetchesErrs(fetches)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	return fetches, nil
}

func (c *CatalogUpdatesConsumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

// processFetches returns the number of records that change the catalog.
// Tombstones count, undecodable values are logged and skipped.
func (c *CatalogUpdatesConsumer) processFetches(fetches kgo.Fetches) int {
	const op = "processFetches"
	log := slog.With("op", makeOp(c.opPrefix, op))

	var n int
	fetches.EachRecord(func(r *kgo.Record) {
		if r.Value == nil {
			n++
			return
		}

		var s schema.ProductV1
		if err := c.decoder.Decode(r.Value, &s); err != nil {
			log.Error(
				"failed to decode value",
				"key", string(r.Key),
				"err", opErr(err, c.opPrefix, op),
			)
			return
		}
		n++
	})
	return n
}

func (c *CatalogUpdatesConsumer) scheduleReload(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reloadTimer != nil {
		c.reloadTimer.Reset(c.debounce)
		return
	}
	c.reloadTimer = time.AfterFunc(c.debounce, func() { c.reload(ctx) })
}

func (c *CatalogUpdatesConsumer) reload(ctx context.Context) {
	const op = "reload"
	log := slog.With("op", makeOp(c.opPrefix, op))

	if ctx.Err() != nil {
		return
	}

	stats, err := c.admin.Reload(ctx)
	if err != nil {
		log.Error("failed to reload catalog", "err", err)
		return
	}
	log.Info("catalog reloaded from topic updates", "items", stats.TotalItems)
}

func (c *CatalogUpdatesConsumer) slowDown() {
	c.slowDownTimer.Reset(1 * time.Second)
	<-c.slowDownTimer.C
}

func (c *CatalogUpdatesConsumer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	c.slowDownTimer.Stop()

	c.mu.Lock()
	if c.reloadTimer != nil {
		c.reloadTimer.Stop()
	}
	c.mu.Unlock()

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}
