package domain

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// CriteriaParams carries the raw values for [NewSearchCriteria].
type CriteriaParams struct {
	Query         string
	Limit         int
	Offset        int
	SortField     string
	SortDirection string
	CategoryID    string
	Brand         string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	AvailableOnly bool
}

// SearchCriteria is a validated bundle of search, filter,
// sort and pagination parameters. Build it with [NewSearchCriteria].
type SearchCriteria struct {
	query         string
	limit         int
	offset        int
	sortField     string
	sortDirection SortDirection
	categoryID    string
	brand         string
	minPrice      *decimal.Decimal
	maxPrice      *decimal.Decimal
	availableOnly bool
}

// NewSearchCriteria validates p. An empty sort direction means ascending.
// It returns [*InvalidCriteriaError] on the first violated rule.
func NewSearchCriteria(p CriteriaParams) (SearchCriteria, error) {
	if p.Limit <= 0 {
		return SearchCriteria{}, &InvalidCriteriaError{
			Field: "limit", Value: strconv.Itoa(p.Limit), Reason: "must be positive",
		}
	}

	if p.Offset < 0 {
		return SearchCriteria{}, &InvalidCriteriaError{
			Field: "offset", Value: strconv.Itoa(p.Offset), Reason: "cannot be negative",
		}
	}

	dir := SortDirection(p.SortDirection)
	if dir == "" {
		dir = SortAsc
	}
	if dir != SortAsc && dir != SortDesc {
		return SearchCriteria{}, &InvalidCriteriaError{
			Field:  "sort_direction",
			Value:  p.SortDirection,
			Reason: "must be 'asc' or 'desc'",
		}
	}

	if p.MinPrice != nil && p.MaxPrice != nil && p.MinPrice.GreaterThan(*p.MaxPrice) {
		return SearchCriteria{}, &InvalidCriteriaError{
			Field:  "price_range",
			Value:  p.MinPrice.String() + "-" + p.MaxPrice.String(),
			Reason: "min price cannot be greater than max price",
		}
	}

	return SearchCriteria{
		query:         p.Query,
		limit:         p.Limit,
		offset:        p.Offset,
		sortField:     p.SortField,
		sortDirection: dir,
		categoryID:    p.CategoryID,
		brand:         p.Brand,
		minPrice:      copyDecimal(p.MinPrice),
		maxPrice:      copyDecimal(p.MaxPrice),
		availableOnly: p.AvailableOnly,
	}, nil
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func (c SearchCriteria) Query() string                { return c.query }
func (c SearchCriteria) Limit() int                   { return c.limit }
func (c SearchCriteria) Offset() int                  { return c.offset }
func (c SearchCriteria) SortField() string            { return c.sortField }
func (c SearchCriteria) SortDirection() SortDirection { return c.sortDirection }
func (c SearchCriteria) CategoryID() string           { return c.categoryID }
func (c SearchCriteria) Brand() string                { return c.brand }
func (c SearchCriteria) AvailableOnly() bool          { return c.availableOnly }
func (c SearchCriteria) MinPrice() *decimal.Decimal   { return copyDecimal(c.minPrice) }
func (c SearchCriteria) MaxPrice() *decimal.Decimal   { return copyDecimal(c.maxPrice) }

func (c SearchCriteria) HasPriceRange() bool {
	return c.minPrice != nil || c.maxPrice != nil
}

// SearchResult is one page of matching products.
type SearchResult struct {
	Items      []Product
	TotalCount int
	Criteria   SearchCriteria
}

func (r SearchResult) HasMore() bool {
	return r.Criteria.offset+len(r.Items) < r.TotalCount
}

func (r SearchResult) CurrentPage() int {
	page := r.Criteria.offset / r.Criteria.limit
	if page == math.MaxInt {
		return page
	}
	return page + 1
}

func (r SearchResult) TotalPages() int {
	pages := r.TotalCount / r.Criteria.limit
	if r.TotalCount%r.Criteria.limit != 0 {
		pages++
	}
	return pages
}

// CatalogStats summarizes a loaded catalog.
type CatalogStats struct {
	TotalItems     int
	AvailableItems int
	Categories     int
	Brands         int
	Source         string
	LoadedAt       time.Time
}

// RateDecision is the outcome of one rate limit check.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}
