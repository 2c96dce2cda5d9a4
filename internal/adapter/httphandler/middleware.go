package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/catalog/internal/core/port"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderAPIKey    = "X-API-Key"
	QueryAPIKey     = "api_key"
)

// Roles known to the API.
const (
	RoleAdmin    = "admin"
	RoleUser     = "user"
	RoleReadonly = "readonly"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	roleKey
	clientIPKey
)

type Middleware func(http.Handler) http.Handler

// Chain wraps h so that the first middleware is the outermost one.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for _, mw := range slices.Backward(mws) {
		h = mw(h)
	}
	return h
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func Role(ctx context.Context) string {
	v, _ := ctx.Value(roleKey).(string)
	return v
}

// WithRequestID keeps an incoming X-Request-ID or generates a new one.
func WithRequestID(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hf)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func AccessLog(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("access",
			"requestID", RequestID(r.Context()),
			"clientIP", ClientIP(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"userAgent", r.UserAgent(),
		)
	}
	return http.HandlerFunc(hf)
}

func SecurityHeaders(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// CORS allows the listed origins, "*" allows any.
// Preflight requests are answered without reaching next.
func CORS(allowedOrigins []string) Middleware {
	allowAny := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if allowAny || slices.Contains(allowedOrigins, origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers",
					"X-API-Key, Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Expose-Headers",
					"X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")
			}

			if r.Method == http.MethodOptions &&
				r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hf)
	}
}

// RateLimit rejects requests over the per-client budget with 429.
// Limiter errors let the request through.
func RateLimit(limiter port.RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			const op = "httphandler.RateLimit"

			d, err := limiter.Allow(r.Context(), ClientIP(r.Context()))
			if err != nil {
				slog.With("op", op, "requestID", RequestID(r.Context())).
					Warn("rate limiter failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retryAfter := int(time.Until(d.ResetAt).Round(time.Second) / time.Second)
				h.Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
				writeError(
					r.Context(), w, http.StatusTooManyRequests, CodeRateLimitExceeded,
					"Too many requests. Please try again later.",
				)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hf)
	}
}

// APIKeyAuth resolves the caller role from the API key.
// keys maps an API key to its role. Public routes skip the check.
func APIKeyAuth(keys map[string]string, publicRoutes []string) Middleware {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(publicRoutes, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(HeaderAPIKey)
			if key == "" {
				key = r.URL.Query().Get(QueryAPIKey)
			}
			if key == "" {
				writeError(
					r.Context(), w, http.StatusUnauthorized, CodeAuthRequired,
					"API Key required. Use X-API-Key header or api_key query parameter.",
				)
				return
			}

			role, ok := keys[key]
			if !ok {
				writeError(
					r.Context(), w, http.StatusUnauthorized,
					CodeAuthRequired, "Invalid API Key",
				)
				return
			}

			ctx := context.WithValue(r.Context(), roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hf)
	}
}

// A route is public when it is listed exactly, or when it sits below
// a listed prefix other than "/".
func isPublicRoute(publicRoutes []string, path string) bool {
	for _, route := range publicRoutes {
		if path == route {
			return true
		}
		if route != "/" && strings.HasPrefix(path, strings.TrimSuffix(route, "/")+"/") {
			return true
		}
	}
	return false
}

// RequireRole answers 403 unless the caller has one of roles.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			role := Role(r.Context())
			if !slices.Contains(roles, role) {
				writeError(
					r.Context(), w, http.StatusForbidden, CodeForbidden,
					"Role '"+strings.Join(roles, "' or '")+"' required",
				)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hf)
	}
}
