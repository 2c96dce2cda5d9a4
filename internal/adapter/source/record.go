package source

import (
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultShippingMode = "me2"
	defaultLogisticType = "drop_off"
)

type (
	// Record is the raw product layout shared by the catalog sources.
	Record struct {
		ID                string            `json:"id"`
		Title             string            `json:"title"`
		CategoryID        string            `json:"category_id"`
		Price             decimal.Decimal   `json:"price"`
		CurrencyID        string            `json:"currency_id"`
		AvailableQuantity int               `json:"available_quantity"`
		SoldQuantity      int               `json:"sold_quantity"`
		Condition         string            `json:"condition"`
		Permalink         string            `json:"permalink"`
		Pictures          []PictureRecord   `json:"pictures"`
		Attributes        []AttributeRecord `json:"attributes"`
		Shipping          *ShippingRecord   `json:"shipping,omitempty"`
		Seller            *SellerRecord     `json:"seller,omitempty"`
		Warranty          string            `json:"warranty,omitempty"`
		CategoryPath      []string          `json:"category_path"`
	}

	PictureRecord struct {
		ID        string `json:"id"`
		URL       string `json:"url"`
		SecureURL string `json:"secure_url,omitempty"`
		Size      string `json:"size,omitempty"`
		MaxSize   string `json:"max_size,omitempty"`
		Quality   string `json:"quality,omitempty"`
	}

	AttributeRecord struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		ValueID   string `json:"value_id,omitempty"`
		ValueName string `json:"value_name,omitempty"`
		GroupID   string `json:"attribute_group_id,omitempty"`
		GroupName string `json:"attribute_group_name,omitempty"`
	}

	ShippingRecord struct {
		FreeShipping bool   `json:"free_shipping"`
		Mode         string `json:"mode"`
		LogisticType string `json:"logistic_type"`
		StorePickUp  bool   `json:"store_pick_up"`
	}

	SellerRecord struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname,omitempty"`
	}
)

// ToProduct validates r through [domain.NewProduct].
func (r Record) ToProduct() (domain.Product, error) {
	params := domain.ProductParams{
		ID:                r.ID,
		Title:             r.Title,
		CategoryID:        r.CategoryID,
		Price:             r.Price,
		CurrencyID:        r.CurrencyID,
		AvailableQuantity: r.AvailableQuantity,
		SoldQuantity:      r.SoldQuantity,
		Condition:         r.Condition,
		Permalink:         r.Permalink,
		Warranty:          r.Warranty,
		CategoryPath:      r.CategoryPath,
	}

	if len(r.Pictures) != 0 {
		params.Pictures = make([]domain.Picture, len(r.Pictures))
		for i, p := range r.Pictures {
			params.Pictures[i] = domain.Picture(p)
		}
	}

	if len(r.Attributes) != 0 {
		params.Attributes = make([]domain.Attribute, len(r.Attributes))
		for i, a := range r.Attributes {
			params.Attributes[i] = domain.Attribute(a)
		}
	}

	if r.Shipping != nil {
		s := domain.Shipping(*r.Shipping)
		if s.Mode == "" {
			s.Mode = defaultShippingMode
		}
		if s.LogisticType == "" {
			s.LogisticType = defaultLogisticType
		}
		params.Shipping = &s
	}

	if r.Seller != nil {
		s := domain.Seller(*r.Seller)
		params.Seller = &s
	}

	return domain.NewProduct(params)
}

// FromProduct is the inverse of [Record.ToProduct].
func FromProduct(p domain.Product) Record {
	r := Record{
		ID:                p.ID(),
		Title:             p.Title(),
		CategoryID:        p.CategoryID(),
		Price:             p.Price().Amount,
		CurrencyID:        p.Price().Currency,
		AvailableQuantity: p.AvailableQuantity(),
		SoldQuantity:      p.SoldQuantity(),
		Condition:         p.Condition(),
		Permalink:         p.Permalink(),
		Warranty:          p.Warranty(),
		CategoryPath:      p.CategoryPath(),
	}

	for _, pic := range p.Pictures() {
		r.Pictures = append(r.Pictures, PictureRecord(pic))
	}
	for _, a := range p.Attributes() {
		r.Attributes = append(r.Attributes, AttributeRecord(a))
	}
	if s := p.Shipping(); s != nil {
		v := ShippingRecord(*s)
		r.Shipping = &v
	}
	if s := p.Seller(); s != nil {
		v := SellerRecord(*s)
		r.Seller = &v
	}
	return r
}
