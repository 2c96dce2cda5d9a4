package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.CatalogLoader = CSVLoader{}

const (
	defaultCurrency  = "ARS"
	defaultCondition = "new"
	defaultSellerID  = "SELLER001"
)

var listSeparators = strings.NewReplacer("|", ",", ";", ",", ">", ",")

// CSVLoader reads a CSV file with a header row.
//
// Columns are matched by name and parsed leniently: bad numbers become
// zero, list columns accept JSON arrays or separated values.
type CSVLoader struct {
	path string
}

func NewCSVLoader(path string) CSVLoader {
	return CSVLoader{path}
}

func (l CSVLoader) Name() string {
	return "csv"
}

func (l CSVLoader) Path() string {
	return l.path
}

func (l CSVLoader) Load(ctx context.Context) ([]domain.Product, error) {
	const op = "CSVLoader.Load"
	log := slog.With("op", op, "path", l.path)

	data, err := readSource(l.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: header: %w", op, domain.ErrMalformedSource, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var products []domain.Product
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warn("row skipped", "line", line, "err", err)
				continue
			}
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrMalformedSource, err)
		}

		rec := rowToRecord(makeRow(header, fields))
		p, err := rec.ToProduct()
		if err != nil {
			log.Warn("row skipped", "line", line, "id", rec.ID, "err", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

type row map[string]string

func makeRow(header, fields []string) row {
	r := make(row, len(header))
	for i, name := range header {
		if i < len(fields) {
			r[name] = strings.TrimSpace(fields[i])
		}
	}
	return r
}

// first returns the value of the first non-empty column out of names.
func (r row) first(names ...string) string {
	for _, n := range names {
		if v := r[n]; v != "" {
			return v
		}
	}
	return ""
}

func (r row) withDefault(name, def string) string {
	if v := r[name]; v != "" {
		return v
	}
	return def
}

func rowToRecord(r row) Record {
	return Record{
		ID:                r["id"],
		Title:             r["title"],
		CategoryID:        r["category_id"],
		Price:             parseDecimal(r["price"]),
		CurrencyID:        r.withDefault("currency_id", defaultCurrency),
		AvailableQuantity: parseInt(r["available_quantity"]),
		SoldQuantity:      parseInt(r["sold_quantity"]),
		Condition:         r.withDefault("condition", defaultCondition),
		Permalink:         r["permalink"],
		Pictures:          parsePictures(r.first("pictures", "picture_urls")),
		Attributes:        parseAttributes(r.first("attributes", "attributes_json")),
		Shipping:          parseShipping(r),
		Seller:            parseSeller(r),
		Warranty:          r["warranty"],
		CategoryPath:      splitList(r["category_path"]),
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err == nil {
		return n
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "t", "si", "sí":
		return true
	}
	return false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(listSeparators.Replace(s), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePictures(s string) []PictureRecord {
	if s == "" {
		return nil
	}

	var items []json.RawMessage
	if json.Unmarshal([]byte(s), &items) == nil {
		return picturesFromJSON(items)
	}
	return picturesFromURLs(splitList(s))
}

func picturesFromJSON(items []json.RawMessage) []PictureRecord {
	var out []PictureRecord
	for i, raw := range items {
		var url string
		if json.Unmarshal(raw, &url) == nil {
			out = append(out, pictureFromURL(i+1, url))
			continue
		}

		var p PictureRecord
		if json.Unmarshal(raw, &p) != nil {
			continue
		}
		if p.ID == "" {
			p.ID = pictureID(i + 1)
		}
		if p.URL == "" {
			p.URL = p.SecureURL
		}
		out = append(out, p)
	}
	return out
}

func picturesFromURLs(urls []string) []PictureRecord {
	out := make([]PictureRecord, 0, len(urls))
	for i, u := range urls {
		out = append(out, pictureFromURL(i+1, u))
	}
	return out
}

func pictureFromURL(n int, url string) PictureRecord {
	p := PictureRecord{ID: pictureID(n), URL: url}
	if strings.HasPrefix(url, "https://") {
		p.SecureURL = url
	}
	return p
}

func pictureID(n int) string {
	return "PIC-" + strconv.Itoa(n)
}

// parseAttributes accepts a JSON array or "KEY:value;KEY:value".
func parseAttributes(s string) []AttributeRecord {
	if s == "" {
		return nil
	}

	var items []AttributeRecord
	if json.Unmarshal([]byte(s), &items) == nil {
		for i := range items {
			a := &items[i]
			if a.ID == "" {
				a.ID = attributeID(a.Name)
			}
			if a.Name == "" {
				a.Name = a.ID
			}
		}
		return items
	}

	var out []AttributeRecord
	for _, pair := range splitList(s) {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		out = append(out, AttributeRecord{
			ID:        attributeID(key),
			Name:      key,
			ValueName: strings.TrimSpace(value),
		})
	}
	return out
}

func attributeID(name string) string {
	id := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if id == "" {
		return "ATTR"
	}
	return id
}

var shippingColumns = []string{
	"shipping_free_shipping",
	"shipping_mode",
	"shipping_logistic_type",
	"shipping_store_pick_up",
}

func parseShipping(r row) *ShippingRecord {
	if r.first(shippingColumns...) == "" {
		return nil
	}
	return &ShippingRecord{
		FreeShipping: parseBool(r["shipping_free_shipping"]),
		Mode:         r.withDefault("shipping_mode", defaultShippingMode),
		LogisticType: r.withDefault("shipping_logistic_type", defaultLogisticType),
		StorePickUp:  parseBool(r["shipping_store_pick_up"]),
	}
}

func parseSeller(r row) *SellerRecord {
	id, nick := r["seller_id"], r["seller_nickname"]
	if id == "" && nick == "" {
		return nil
	}
	if id == "" {
		id = defaultSellerID
	}
	return &SellerRecord{ID: id, Nickname: nick}
}
