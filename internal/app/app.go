package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/catalog/config"
	"github.com/niksmo/catalog/internal/adapter"
	"github.com/niksmo/catalog/internal/adapter/httphandler"
	"github.com/niksmo/catalog/internal/adapter/kafka"
	"github.com/niksmo/catalog/internal/adapter/ratelimit"
	"github.com/niksmo/catalog/internal/adapter/source"
	"github.com/niksmo/catalog/internal/adapter/storage"
	"github.com/niksmo/catalog/internal/adapter/watcher"
	"github.com/niksmo/catalog/internal/core/catalog"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/niksmo/catalog/internal/core/service"
	"github.com/niksmo/catalog/pkg/schema"
	"github.com/niksmo/catalog/pkg/sigctx"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/sr"
)

const redisKeyPrefix = "catalog:ratelimit:"

type outbound struct {
	loader    port.CatalogLoader
	sqldb     *storage.SQLDB
	view      *kafka.CatalogView
	serde     schema.Serde
	tlsConfig *tls.Config
	redis     *redis.Client
	limiter   port.RateLimiter
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	outbound   outbound
	service    *service.Service
	watcher    port.CatalogWatcher
	updates    *kafka.CatalogUpdatesConsumer
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initLoader()
	app.initCoreService()
	app.initRateLimiter()
	app.initWatcher()
	app.initUpdatesConsumer()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initLoader() {
	const op = "App.initLoader"

	switch app.cfg.Catalog.Source {
	case config.SourceJSON:
		app.outbound.loader = source.NewJSONLoader(app.cfg.Catalog.Path)
	case config.SourceCSV:
		app.outbound.loader = source.NewCSVLoader(app.cfg.Catalog.Path)
	case config.SourcePostgres:
		app.initPostgresLoader()
	case config.SourceKafka:
		app.initKafkaLoader()
	default:
		app.fallDown(op, fmt.Errorf("unknown source %q", app.cfg.Catalog.Source))
	}
}

func (app *App) initPostgresLoader() {
	const op = "App.initPostgresLoader"

	db, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sqldb = &db
	app.outbound.loader = storage.NewProductsRepository(db)
}

func (app *App) initKafkaLoader() {
	const op = "App.initKafkaLoader"
	broker := app.cfg.Broker

	if broker.TLS.Enabled() {
		c, err := adapter.MakeTLSConfig(broker.TLS.CA, broker.TLS.Cert, broker.TLS.Key)
		if err != nil {
			app.fallDown(op, err)
		}
		app.outbound.tlsConfig = c
		kafka.ApplyTLS(c)
	}

	srClient, err := sr.NewClient(sr.URLs(broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeProductV1(
		app.ctx,
		schema.SubjectOpt(schema.Subject(broker.Topics.Catalog)),
		schema.SchemaIdentifierOpt(schema.NewRegistryIdentifier(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	view, err := kafka.NewCatalogView(kafka.CatalogViewConfig{
		SeedBrokers:    broker.SeedBrokers,
		Topic:          broker.Topics.Catalog,
		Serde:          serde,
		RecoverTimeout: broker.RecoverTimeout,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	// the view has to be running before the first load
	go view.Run(app.ctx)

	app.outbound.serde = serde
	app.outbound.view = view
	app.outbound.loader = view
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	s := service.New(catalog.NewStore(nil), app.outbound.loader)
	if err := s.Bootstrap(app.ctx, app.cfg.Catalog.AllowEmpty); err != nil {
		app.fallDown(op, err)
	}
	app.service = s
}

func (app *App) initRateLimiter() {
	const op = "App.initRateLimiter"

	rl := app.cfg.RateLimit
	if !rl.Enabled {
		return
	}
	cfg := ratelimit.Config{Requests: rl.Requests, Window: rl.Window}

	switch rl.Backend {
	case config.RateLimitRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     rl.Redis.Addr,
			Password: rl.Redis.Password,
			DB:       rl.Redis.DB,
		})
		limiter, err := ratelimit.NewRedis(client, redisKeyPrefix, cfg)
		if err != nil {
			app.fallDown(op, err)
		}
		app.outbound.redis = client
		app.outbound.limiter = limiter
	default:
		limiter, err := ratelimit.NewMemory(cfg)
		if err != nil {
			app.fallDown(op, err)
		}
		app.outbound.limiter = limiter
	}
}

func (app *App) initWatcher() {
	const op = "App.initWatcher"

	c := app.cfg.Catalog
	if !c.Watch {
		return
	}
	if c.Source != config.SourceJSON && c.Source != config.SourceCSV {
		slog.With("op", op).Warn("watch ignored for non-file source", "source", c.Source)
		return
	}

	w, err := watcher.NewFileWatcher(c.Path, c.WatchDebounce, app.service)
	if err != nil {
		app.fallDown(op, err)
	}
	app.watcher = w
}

func (app *App) initUpdatesConsumer() {
	const op = "App.initUpdatesConsumer"

	if app.cfg.Catalog.Source != config.SourceKafka {
		return
	}
	broker := app.cfg.Broker

	c, err := kafka.NewCatalogUpdatesConsumer(
		kafka.ConsumerClientOpt(
			broker.SeedBrokers, broker.Topics.Catalog, app.outbound.tlsConfig,
		),
		kafka.ConsumerDecoderOpt(app.outbound.serde),
		kafka.ConsumerAdminOpt(app.service),
		kafka.ConsumerDebounceOpt(broker.UpdatesDebounce),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.updates = c
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	proxies, err := httphandler.ParseTrustedProxies(app.cfg.Security.TrustedProxies)
	if err != nil {
		app.fallDown(op, err)
	}

	router := httphandler.NewRouter(httphandler.RouterConfig{
		Service:        app.service,
		Admin:          app.service,
		Limiter:        app.outbound.limiter,
		APIKeys:        app.cfg.APIKeyRoles(),
		PublicRoutes:   app.cfg.Security.PublicRoutes,
		AllowedOrigins: app.cfg.CORS.AllowedOrigins,
		TrustedProxies: proxies,
	})
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, router)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	if app.watcher != nil {
		go app.watcher.Run(app.ctx)
	}
	if app.updates != nil {
		go app.updates.Run(app.ctx)
	}
	if interval := app.cfg.Catalog.ReloadInterval; interval > 0 {
		go app.service.RunReloader(app.ctx, interval)
	}
	go sigctx.OnHangup(app.ctx, app.reloadOnHangup)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.updates != nil {
		app.updates.Close()
	}
	if app.outbound.redis != nil {
		if err := app.outbound.redis.Close(); err != nil {
			slog.Error("failed to close redis client", "err", err)
		}
	}
	if app.outbound.sqldb != nil {
		app.outbound.sqldb.Close()
	}

	slog.Info("application is closed")
}

func (app *App) reloadOnHangup() {
	const op = "App.reloadOnHangup"
	log := slog.With("op", op)

	stats, err := app.service.Reload(app.ctx)
	if err != nil {
		log.Error("failed to reload catalog", "err", err)
		return
	}
	log.Info("catalog reloaded on SIGHUP", "items", stats.TotalItems)
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
