package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Well-known attribute identifiers.
const (
	AttrBrand = "BRAND"
	AttrModel = "MODEL"
)

type (
	Money struct {
		Amount   decimal.Decimal
		Currency string
	}

	Picture struct {
		ID        string
		URL       string
		SecureURL string
		Size      string
		MaxSize   string
		Quality   string
	}

	Attribute struct {
		ID        string
		Name      string
		ValueID   string
		ValueName string
		GroupID   string
		GroupName string
	}

	Shipping struct {
		FreeShipping bool
		Mode         string
		LogisticType string
		StorePickUp  bool
	}

	Seller struct {
		ID       string
		Nickname string
	}
)

// NewMoney returns a validated [Money].
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount cannot be negative", ErrInvalidProduct)
	}
	if currency == "" {
		return Money{}, fmt.Errorf("%w: currency cannot be empty", ErrInvalidProduct)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// ProductParams carries the raw values for [NewProduct].
type ProductParams struct {
	ID                string
	Title             string
	CategoryID        string
	Price             decimal.Decimal
	CurrencyID        string
	AvailableQuantity int
	SoldQuantity      int
	Condition         string
	Permalink         string
	Pictures          []Picture
	Attributes        []Attribute
	Shipping          *Shipping
	Seller            *Seller
	Warranty          string
	CategoryPath      []string
}

// A Product is a catalog entry.
//
// The zero value is not a valid product, use [NewProduct].
// All slices are copied on the way in and on the way out,
// so a Product never changes after construction.
type Product struct {
	id                string
	title             string
	categoryID        string
	price             Money
	availableQuantity int
	soldQuantity      int
	condition         string
	permalink         string
	pictures          []Picture
	attributes        []Attribute
	shipping          *Shipping
	seller            *Seller
	warranty          string
	categoryPath      []string
}

// NewProduct validates p and returns the product built from it.
func NewProduct(p ProductParams) (Product, error) {
	var errs []error

	if p.ID == "" {
		errs = append(errs, errors.New("id cannot be empty"))
	}
	if p.Title == "" {
		errs = append(errs, errors.New("title cannot be empty"))
	}
	if p.Permalink == "" {
		errs = append(errs, errors.New("permalink cannot be empty"))
	}
	if p.AvailableQuantity < 0 {
		errs = append(errs, errors.New("available quantity cannot be negative"))
	}
	if p.SoldQuantity < 0 {
		errs = append(errs, errors.New("sold quantity cannot be negative"))
	}

	price, err := NewMoney(p.Price, p.CurrencyID)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) != 0 {
		return Product{}, fmt.Errorf(
			"%w: product %q: %w", ErrInvalidProduct, p.ID, errors.Join(errs...),
		)
	}

	v := Product{
		id:                p.ID,
		title:             p.Title,
		categoryID:        p.CategoryID,
		price:             price,
		availableQuantity: p.AvailableQuantity,
		soldQuantity:      p.SoldQuantity,
		condition:         p.Condition,
		permalink:         p.Permalink,
		pictures:          slices.Clone(p.Pictures),
		attributes:        slices.Clone(p.Attributes),
		warranty:          p.Warranty,
		categoryPath:      slices.Clone(p.CategoryPath),
	}

	if p.Shipping != nil {
		s := *p.Shipping
		v.shipping = &s
	}
	if p.Seller != nil {
		s := *p.Seller
		v.seller = &s
	}
	return v, nil
}

func (p Product) ID() string             { return p.id }
func (p Product) Title() string          { return p.title }
func (p Product) CategoryID() string     { return p.categoryID }
func (p Product) Price() Money           { return p.price }
func (p Product) AvailableQuantity() int { return p.availableQuantity }
func (p Product) SoldQuantity() int      { return p.soldQuantity }
func (p Product) Condition() string      { return p.condition }
func (p Product) Permalink() string      { return p.permalink }
func (p Product) Warranty() string       { return p.warranty }

func (p Product) Pictures() []Picture     { return slices.Clone(p.pictures) }
func (p Product) Attributes() []Attribute { return slices.Clone(p.attributes) }
func (p Product) CategoryPath() []string  { return slices.Clone(p.categoryPath) }

// Shipping returns a copy of the shipping info, nil if absent.
func (p Product) Shipping() *Shipping {
	if p.shipping == nil {
		return nil
	}
	s := *p.shipping
	return &s
}

// Seller returns a copy of the seller info, nil if absent.
func (p Product) Seller() *Seller {
	if p.seller == nil {
		return nil
	}
	s := *p.seller
	return &s
}

func (p Product) IsAvailable() bool {
	return p.availableQuantity > 0
}

func (p Product) TotalQuantity() int {
	return p.availableQuantity + p.soldQuantity
}

func (p Product) AttributeByID(id string) (Attribute, bool) {
	for _, a := range p.attributes {
		if a.ID == id {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttributeByName looks the attribute up by its case-insensitive name.
func (p Product) AttributeByName(name string) (Attribute, bool) {
	for _, a := range p.attributes {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Attribute{}, false
}

// Brand returns the BRAND attribute value name.
func (p Product) Brand() (string, bool) {
	return p.attrValue(AttrBrand)
}

// Model returns the MODEL attribute value name.
func (p Product) Model() (string, bool) {
	return p.attrValue(AttrModel)
}

func (p Product) attrValue(id string) (string, bool) {
	a, ok := p.AttributeByID(id)
	if !ok || a.ValueName == "" {
		return "", false
	}
	return a.ValueName, true
}

// MainCategory returns the first entry of the category path.
func (p Product) MainCategory() (string, bool) {
	if len(p.categoryPath) == 0 || p.categoryPath[0] == "" {
		return "", false
	}
	return p.categoryPath[0], true
}

// MatchesTerm reports whether term is a case-insensitive substring
// of the title, brand or model. An empty term matches every product.
func (p Product) MatchesTerm(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)

	if strings.Contains(strings.ToLower(p.title), term) {
		return true
	}
	if brand, ok := p.Brand(); ok && strings.Contains(strings.ToLower(brand), term) {
		return true
	}
	if model, ok := p.Model(); ok && strings.Contains(strings.ToLower(model), term) {
		return true
	}
	return false
}

// InPriceRange checks the price against inclusive bounds.
// A nil bound imposes no constraint on its side.
func (p Product) InPriceRange(min, max *decimal.Decimal) bool {
	amount := p.price.Amount
	if min != nil && amount.LessThan(*min) {
		return false
	}
	if max != nil && amount.GreaterThan(*max) {
		return false
	}
	return true
}
