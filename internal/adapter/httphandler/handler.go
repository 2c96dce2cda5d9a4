package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/shopspring/decimal"
)

const (
	maxQueryLen = 100

	defaultSearchLimit = 10
	maxSearchLimit     = 100

	defaultListLimit = 10
	maxListLimit     = 50

	defaultRecommendK = 5
	maxRecommendK     = 20
)

// CatalogService is everything the items routes need from the core.
type CatalogService interface {
	port.ProductGetter
	port.ProductSearcher
	port.ProductRecommender
	port.ProductLister
}

type ItemsHandler struct {
	service CatalogService
}

// RegisterItems mounts the public and authenticated item routes.
func RegisterItems(mux *http.ServeMux, service CatalogService) {
	h := ItemsHandler{service}
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/items", h.Search)
	mux.HandleFunc("GET /api/v1/items/popular", h.Popular)
	mux.HandleFunc("GET /api/v1/items/available", h.Available)
	mux.HandleFunc("GET /api/v1/items/{id}", h.GetItem)
	mux.HandleFunc("GET /api/v1/items/{id}/recommendations", h.Recommendations)
}

func (h ItemsHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h ItemsHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	const op = "ItemsHandler.GetItem"

	p, err := h.service.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(r.Context(), w, op, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toItem(p))
}

func (h ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	const op = "ItemsHandler.Search"

	params, err := searchParams(r.URL.Query())
	if err != nil {
		writeValidationError(r.Context(), w, err)
		return
	}

	res, err := h.service.Search(r.Context(), params)
	if err != nil {
		writeDomainError(r.Context(), w, op, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toSearchResponse(res))
}

func (h ItemsHandler) Popular(w http.ResponseWriter, r *http.Request) {
	const op = "ItemsHandler.Popular"
	h.list(w, r, op, h.service.Popular)
}

func (h ItemsHandler) Available(w http.ResponseWriter, r *http.Request) {
	const op = "ItemsHandler.Available"
	h.list(w, r, op, h.service.Available)
}

func (h ItemsHandler) list(
	w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, int) ([]domain.Product, error),
) {
	limit, err := intParam(r.URL.Query(), "limit", defaultListLimit, 1, maxListLimit)
	if err != nil {
		writeValidationError(r.Context(), w, err)
		return
	}

	ps, err := fn(r.Context(), limit)
	if err != nil {
		writeDomainError(r.Context(), w, op, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, ItemsResponse{Data: toItems(ps)})
}

func (h ItemsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	const op = "ItemsHandler.Recommendations"

	k, err := intParam(r.URL.Query(), "k", defaultRecommendK, 1, maxRecommendK)
	if err != nil {
		writeValidationError(r.Context(), w, err)
		return
	}

	ps, err := h.service.Recommend(r.Context(), r.PathValue("id"), k)
	if err != nil {
		writeDomainError(r.Context(), w, op, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, ItemsResponse{Data: toItems(ps)})
}

type AdminHandler struct {
	admin port.CatalogAdmin
}

// RegisterAdmin mounts the catalog administration routes.
// Access control is left to [RequireRole].
func RegisterAdmin(mux *http.ServeMux, admin port.CatalogAdmin, guard Middleware) {
	h := AdminHandler{admin}
	mux.Handle("GET /api/v1/stats", guard(http.HandlerFunc(h.Stats)))
	mux.Handle("POST /api/v1/admin/reload", guard(http.HandlerFunc(h.Reload)))
}

func (h AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.Stats"

	s, err := h.admin.Stats(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, op, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, toStatsResponse(s))
}

func (h AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.Reload"
	log := slog.With("op", op)

	s, err := h.admin.Reload(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, op, err)
		return
	}
	log.Info("catalog reloaded on request", "items", s.TotalItems)
	writeJSON(r.Context(), w, http.StatusOK, toStatsResponse(s))
}

// searchParams reads and range-checks the search query string.
// Cross-field rules are left to [domain.NewSearchCriteria].
func searchParams(q url.Values) (domain.CriteriaParams, error) {
	var (
		p   domain.CriteriaParams
		err error
	)

	p.Query = q.Get("q")
	if len([]rune(p.Query)) > maxQueryLen {
		return p, fmt.Errorf("q: must be at most %d characters", maxQueryLen)
	}

	p.Limit, err = intParam(q, "limit", defaultSearchLimit, 1, maxSearchLimit)
	if err != nil {
		return p, err
	}

	p.Offset, err = intParam(q, "offset", 0, 0, -1)
	if err != nil {
		return p, err
	}

	p.SortField = q.Get("sort_field")
	p.SortDirection = q.Get("sort_direction")
	if p.SortDirection == "" {
		p.SortDirection = string(domain.SortAsc)
	}
	if p.SortDirection != string(domain.SortAsc) &&
		p.SortDirection != string(domain.SortDesc) {
		return p, errors.New("sort_direction: must be 'asc' or 'desc'")
	}

	p.CategoryID = q.Get("category_id")
	p.Brand = q.Get("brand")

	if p.MinPrice, err = priceParam(q, "min_price"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = priceParam(q, "max_price"); err != nil {
		return p, err
	}

	if p.AvailableOnly, err = boolParam(q, "available_only"); err != nil {
		return p, err
	}
	return p, nil
}

// intParam parses an integer query value within [min, max].
// A negative max leaves the upper side open.
func intParam(q url.Values, name string, def, min, max int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer", name)
	}
	if v < min {
		return 0, fmt.Errorf("%s: must be greater than or equal to %d", name, min)
	}
	if max >= 0 && v > max {
		return 0, fmt.Errorf("%s: must be less than or equal to %d", name, max)
	}
	return v, nil
}

func priceParam(q url.Values, name string) (*decimal.Decimal, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: must be a number", name)
	}
	if v.IsNegative() {
		return nil, fmt.Errorf("%s: must be greater than or equal to 0", name)
	}
	return &v, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}

	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s: must be a boolean", name)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.With("op", "httphandler.writeJSON", "requestID", RequestID(ctx)).
			Error("failed to write response body", "err", err)
	}
}

func writeError(
	ctx context.Context, w http.ResponseWriter,
	status int, code, message string, cause ...string,
) {
	if cause == nil {
		cause = []string{}
	}
	writeJSON(ctx, w, status, ErrorResponse{
		Code:    code,
		Message: message,
		Status:  status,
		Cause:   cause,
	})
}

func writeValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	writeError(
		ctx, w, http.StatusUnprocessableEntity,
		CodeValidation, "Invalid request data", err.Error(),
	)
}

func writeDomainError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	var (
		notFound *domain.NotFoundError
		invalid  *domain.InvalidCriteriaError
	)

	switch {
	case errors.As(err, &notFound):
		writeError(ctx, w, http.StatusNotFound, CodeItemNotFound, notFound.Error())
	case errors.As(err, &invalid):
		writeError(
			ctx, w, http.StatusBadRequest, CodeInvalidCriteria, invalid.Error(),
			invalid.Field+": "+invalid.Reason,
		)
	case errors.Is(err, domain.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, CodeItemNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCriteria):
		writeError(ctx, w, http.StatusBadRequest, CodeInvalidCriteria, err.Error())
	default:
		slog.With("op", op, "requestID", RequestID(ctx)).
			Error("request failed", "err", err)
		writeError(
			ctx, w, http.StatusInternalServerError,
			CodeInternal, "An unexpected error occurred",
		)
	}
}
