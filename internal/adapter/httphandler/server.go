package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/niksmo/catalog/internal/core/port"
)

const defaultHandlerTimeout = 10 * time.Second

// RouterConfig collects the dependencies of [NewRouter].
// A nil Limiter disables rate limiting. With no TrustedProxies the
// client address is always the connection peer.
type RouterConfig struct {
	Service        CatalogService
	Admin          port.CatalogAdmin
	Limiter        port.RateLimiter
	APIKeys        map[string]string
	PublicRoutes   []string
	AllowedOrigins []string
	TrustedProxies TrustedProxies
}

// NewRouter mounts every API route behind the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	RegisterItems(mux, cfg.Service)
	RegisterAdmin(mux, cfg.Admin, RequireRole(RoleAdmin))

	mws := []Middleware{
		WithRequestID,
		WithClientIP(cfg.TrustedProxies),
		AccessLog,
		SecurityHeaders,
		CORS(cfg.AllowedOrigins),
	}
	if cfg.Limiter != nil {
		mws = append(mws, RateLimit(cfg.Limiter))
	}
	mws = append(mws, APIKeyAuth(cfg.APIKeys, cfg.PublicRoutes))

	return Chain(mux, mws...)
}

type HTTPServer struct {
	httpServer *http.Server
}

func NewHTTPServer(addr string, handler http.Handler) HTTPServer {
	handler = http.TimeoutHandler(handler, defaultHandlerTimeout, "unavailable")
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	return HTTPServer{s}
}

func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"
	log := slog.With("op", op)

	defer stopFn()
	log.Info("listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error("unexpected server shutdown", "err", err)
	}
}

func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
	}
	log.Info("http server is closed")
}
