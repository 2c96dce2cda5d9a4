package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/niksmo/catalog/internal/adapter/source"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.CatalogLoader = ProductsRepository{}

const (
	selectProductsQuery = `
		SELECT
			id, title, category_id, price_amount, price_currency,
			available_quantity, sold_quantity, condition, permalink,
			pictures, attributes, shipping, seller, warranty, category_path
		FROM products
		ORDER BY seq ASC;`

	upsertProductQuery = `
		INSERT INTO products (
			id, title, category_id, price_amount, price_currency,
			available_quantity, sold_quantity, condition, permalink,
			pictures, attributes, shipping, seller, warranty, category_path
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category_id = EXCLUDED.category_id,
			price_amount = EXCLUDED.price_amount,
			price_currency = EXCLUDED.price_currency,
			available_quantity = EXCLUDED.available_quantity,
			sold_quantity = EXCLUDED.sold_quantity,
			condition = EXCLUDED.condition,
			permalink = EXCLUDED.permalink,
			pictures = EXCLUDED.pictures,
			attributes = EXCLUDED.attributes,
			shipping = EXCLUDED.shipping,
			seller = EXCLUDED.seller,
			warranty = EXCLUDED.warranty,
			category_path = EXCLUDED.category_path,
			updated_at = now();`
)

// ProductsRepository keeps the catalog in the products table.
type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) Name() string {
	return "postgres"
}

// Load reads every product in insertion order.
// Rows failing validation are skipped.
func (r ProductsRepository) Load(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductsRepository.Load"
	log := slog.With("op", op)

	rows, err := r.sqldb.QueryContext(ctx, selectProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrSourceUnavailable, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	var products []domain.Product
	for rows.Next() {
		var pr productRow
		if err := rows.Scan(pr.dest()...); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrMalformedSource, err)
		}

		rec, err := pr.toRecord()
		if err != nil {
			log.Warn("row skipped", "id", pr.id, "err", err)
			continue
		}

		p, err := rec.ToProduct()
		if err != nil {
			log.Warn("row skipped", "id", pr.id, "err", err)
			continue
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrSourceUnavailable, err)
	}
	return products, nil
}

// StoreProducts upserts ps in one transaction.
func (r ProductsRepository) StoreProducts(
	ctx context.Context, ps []domain.Product,
) (storeErr error) {
	const op = "ProductsRepository.StoreProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}
		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertProductQuery)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, p := range ps {
		args, err := upsertArgs(p)
		if err != nil {
			return fmt.Errorf("%s: product %q: %w", op, p.ID(), err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}
	}

	log.Info("products stored", "count", len(ps))
	return nil
}

type productRow struct {
	id                string
	title             string
	categoryID        string
	priceAmount       decimal.Decimal
	priceCurrency     string
	availableQuantity int
	soldQuantity      int
	condition         string
	permalink         string
	pictures          []byte
	attributes        []byte
	shipping          []byte
	seller            []byte
	warranty          string
	categoryPath      []byte
}

func (pr *productRow) dest() []any {
	return []any{
		&pr.id, &pr.title, &pr.categoryID, &pr.priceAmount, &pr.priceCurrency,
		&pr.availableQuantity, &pr.soldQuantity, &pr.condition, &pr.permalink,
		&pr.pictures, &pr.attributes, &pr.shipping, &pr.seller, &pr.warranty,
		&pr.categoryPath,
	}
}

func (pr productRow) toRecord() (source.Record, error) {
	rec := source.Record{
		ID:                pr.id,
		Title:             pr.title,
		CategoryID:        pr.categoryID,
		Price:             pr.priceAmount,
		CurrencyID:        pr.priceCurrency,
		AvailableQuantity: pr.availableQuantity,
		SoldQuantity:      pr.soldQuantity,
		Condition:         pr.condition,
		Permalink:         pr.permalink,
		Warranty:          pr.warranty,
	}

	columns := []struct {
		name string
		data []byte
		dst  any
	}{
		{"pictures", pr.pictures, &rec.Pictures},
		{"attributes", pr.attributes, &rec.Attributes},
		{"shipping", pr.shipping, &rec.Shipping},
		{"seller", pr.seller, &rec.Seller},
		{"category_path", pr.categoryPath, &rec.CategoryPath},
	}
	for _, c := range columns {
		if len(c.data) == 0 {
			continue
		}
		if err := json.Unmarshal(c.data, c.dst); err != nil {
			return source.Record{}, fmt.Errorf("column %s: %w", c.name, err)
		}
	}
	return rec, nil
}

func upsertArgs(p domain.Product) ([]any, error) {
	rec := source.FromProduct(p)

	pictures, err := jsonColumn(rec.Pictures, "[]")
	if err != nil {
		return nil, err
	}
	attributes, err := jsonColumn(rec.Attributes, "[]")
	if err != nil {
		return nil, err
	}
	categoryPath, err := jsonColumn(rec.CategoryPath, "[]")
	if err != nil {
		return nil, err
	}

	var shipping, seller any
	if rec.Shipping != nil {
		if shipping, err = jsonColumn(rec.Shipping, ""); err != nil {
			return nil, err
		}
	}
	if rec.Seller != nil {
		if seller, err = jsonColumn(rec.Seller, ""); err != nil {
			return nil, err
		}
	}

	return []any{
		rec.ID, rec.Title, rec.CategoryID, rec.Price, rec.CurrencyID,
		rec.AvailableQuantity, rec.SoldQuantity, rec.Condition, rec.Permalink,
		pictures, attributes, shipping, seller, rec.Warranty, categoryPath,
	}, nil
}

// jsonColumn encodes v for a jsonb column, substituting empty for nil slices.
func jsonColumn(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" && empty != "" {
		return empty, nil
	}
	return string(b), nil
}
