package httphandler

import (
	"time"

	"github.com/niksmo/catalog/internal/core/domain"
)

// Error codes of the API error envelope.
const (
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeInvalidCriteria   = "INVALID_SEARCH_CRITERIA"
	CodeValidation        = "VALIDATION_ERROR"
	CodeAuthRequired      = "AUTHENTICATION_REQUIRED"
	CodeForbidden         = "FORBIDDEN"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
)

type (
	Item struct {
		ID                string      `json:"id"`
		Title             string      `json:"title"`
		CategoryID        string      `json:"category_id"`
		Price             float64     `json:"price"`
		CurrencyID        string      `json:"currency_id"`
		AvailableQuantity int         `json:"available_quantity"`
		SoldQuantity      int         `json:"sold_quantity"`
		Condition         string      `json:"condition"`
		Permalink         string      `json:"permalink"`
		Pictures          []Picture   `json:"pictures"`
		Attributes        []Attribute `json:"attributes"`
		Shipping          *Shipping   `json:"shipping"`
		Seller            *Seller     `json:"seller"`
		Warranty          *string     `json:"warranty"`
		CategoryPath      []string    `json:"category_path"`
	}

	Picture struct {
		ID        string `json:"id"`
		URL       string `json:"url"`
		SecureURL string `json:"secure_url,omitempty"`
		Size      string `json:"size,omitempty"`
		MaxSize   string `json:"max_size,omitempty"`
		Quality   string `json:"quality,omitempty"`
	}

	Attribute struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		ValueID   string `json:"value_id,omitempty"`
		ValueName string `json:"value_name,omitempty"`
		GroupID   string `json:"attribute_group_id,omitempty"`
		GroupName string `json:"attribute_group_name,omitempty"`
	}

	Shipping struct {
		FreeShipping bool   `json:"free_shipping"`
		Mode         string `json:"mode"`
		LogisticType string `json:"logistic_type"`
		StorePickUp  bool   `json:"store_pick_up"`
	}

	Seller struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname,omitempty"`
	}
)

type (
	ItemsResponse struct {
		Data []Item `json:"data"`
	}

	SearchResponse struct {
		Data []Item     `json:"data"`
		Meta SearchMeta `json:"meta"`
	}

	SearchMeta struct {
		Total       int  `json:"total"`
		Limit       int  `json:"limit"`
		Offset      int  `json:"offset"`
		HasMore     bool `json:"has_more"`
		CurrentPage int  `json:"current_page"`
		TotalPages  int  `json:"total_pages"`
	}

	StatsResponse struct {
		TotalItems     int       `json:"total_items"`
		AvailableItems int       `json:"available_items"`
		Categories     int       `json:"categories"`
		Brands         int       `json:"brands"`
		Source         string    `json:"source"`
		LoadedAt       time.Time `json:"loaded_at"`
	}

	HealthResponse struct {
		Status string `json:"status"`
	}

	ErrorResponse struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Status  int      `json:"status"`
		Cause   []string `json:"cause"`
	}
)

func toItem(p domain.Product) Item {
	price := p.Price()
	v := Item{
		ID:                p.ID(),
		Title:             p.Title(),
		CategoryID:        p.CategoryID(),
		Price:             price.Amount.InexactFloat64(),
		CurrencyID:        price.Currency,
		AvailableQuantity: p.AvailableQuantity(),
		SoldQuantity:      p.SoldQuantity(),
		Condition:         p.Condition(),
		Permalink:         p.Permalink(),
		Pictures:          make([]Picture, 0, len(p.Pictures())),
		Attributes:        make([]Attribute, 0, len(p.Attributes())),
		CategoryPath:      p.CategoryPath(),
	}

	for _, pic := range p.Pictures() {
		v.Pictures = append(v.Pictures, Picture(pic))
	}
	for _, a := range p.Attributes() {
		v.Attributes = append(v.Attributes, Attribute(a))
	}
	if s := p.Shipping(); s != nil {
		sh := Shipping(*s)
		v.Shipping = &sh
	}
	if s := p.Seller(); s != nil {
		sl := Seller(*s)
		v.Seller = &sl
	}
	if w := p.Warranty(); w != "" {
		v.Warranty = &w
	}
	if v.CategoryPath == nil {
		v.CategoryPath = []string{}
	}
	return v
}

func toItems(ps []domain.Product) []Item {
	items := make([]Item, 0, len(ps))
	for _, p := range ps {
		items = append(items, toItem(p))
	}
	return items
}

func toSearchResponse(r domain.SearchResult) SearchResponse {
	return SearchResponse{
		Data: toItems(r.Items),
		Meta: SearchMeta{
			Total:       r.TotalCount,
			Limit:       r.Criteria.Limit(),
			Offset:      r.Criteria.Offset(),
			HasMore:     r.HasMore(),
			CurrentPage: r.CurrentPage(),
			TotalPages:  r.TotalPages(),
		},
	}
}

func toStatsResponse(s domain.CatalogStats) StatsResponse {
	return StatsResponse{
		TotalItems:     s.TotalItems,
		AvailableItems: s.AvailableItems,
		Categories:     s.Categories,
		Brands:         s.Brands,
		Source:         s.Source,
		LoadedAt:       s.LoadedAt,
	}
}
