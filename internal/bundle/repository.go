package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bundly/internal/audit"
	"bundly/pkg/db"
)

var ErrNotFound = errors.New("bundle not found")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const bundleColumns = `id, shop_id, shopify_id, title, description, image, price::text, discrepancies, created_at::text, updated_at::text`

func scanBundle(row pgx.Row) (*Bundle, error) {
	b := &Bundle{}
	var price string
	if err := row.Scan(&b.ID, &b.ShopID, &b.ShopifyID, &b.Title, &b.Description, &b.Image, &price, &b.Discrepancies, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("bundle %s price: %w", b.ID, err)
	}
	b.Price = p
	return b, nil
}

// Create inserts a bundle and its products in one transaction.
func (r *Repository) Create(ctx context.Context, shopID string, in Input) (*Bundle, error) {
	var out *Bundle
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO bundles (shop_id, title, description, image, price, discrepancies)
VALUES ($1, $2, $3, $4, $5::numeric, $6)
RETURNING ` + bundleColumns
		b, err := scanBundle(tx.QueryRow(ctx, q, shopID, in.Title, in.Description, in.Image, in.Price.String(), in.Discrepancies))
		if err != nil {
			return err
		}
		if b.Products, err = insertProducts(ctx, tx, b.ID, in.Products); err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, shopID, &b.ID, audit.BundleCreated, map[string]any{"title": b.Title, "products": len(b.Products)}); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces a bundle's fields and its product list.
func (r *Repository) Update(ctx context.Context, shopID, id string, in Input) (*Bundle, error) {
	var out *Bundle
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
UPDATE bundles SET
  title = $3, description = $4, image = $5, price = $6::numeric, discrepancies = $7,
  updated_at = NOW()
WHERE shop_id = $1 AND id = $2 AND NOT deleted
RETURNING ` + bundleColumns
		b, err := scanBundle(tx.QueryRow(ctx, q, shopID, id, in.Title, in.Description, in.Image, in.Price.String(), in.Discrepancies))
		if isMissing(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE bundle_products SET deleted = TRUE, updated_at = NOW() WHERE bundle_id = $1 AND NOT deleted`, b.ID); err != nil {
			return err
		}
		if b.Products, err = insertProducts(ctx, tx, b.ID, in.Products); err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, shopID, &b.ID, audit.BundleUpdated, map[string]any{"title": b.Title, "products": len(b.Products)}); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const insertProductQuery = `
INSERT INTO bundle_products (bundle_id, position, title, sku, vendor, price)
VALUES ($1, $2, $3, $4, $5, $6::numeric)
RETURNING id
`

// insertProducts stores in with 1-based positions in input order.
func insertProducts(ctx context.Context, tx pgx.Tx, bundleID string, in []ProductInput) ([]Product, error) {
	out := make([]Product, 0, len(in))
	for i, p := range in {
		rec := Product{Title: p.Title, SKU: p.SKU, Vendor: p.Vendor, Price: p.Price}
		if err := tx.QueryRow(ctx, insertProductQuery, bundleID, i+1, p.Title, p.SKU, p.Vendor, p.Price.String()).Scan(&rec.ID); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SetShopifyID records the store product a bundle was published as.
func (r *Repository) SetShopifyID(ctx context.Context, shopID, id string, shopifyID int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `UPDATE bundles SET shopify_id = $3, updated_at = NOW() WHERE shop_id = $1 AND id = $2`
		if _, err := tx.Exec(ctx, q, shopID, id, shopifyID); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, shopID, &id, audit.BundlePublished, map[string]any{"shopify_id": shopifyID})
	})
}

func (r *Repository) Get(ctx context.Context, shopID, id string) (*Bundle, error) {
	q := `SELECT ` + bundleColumns + ` FROM bundles WHERE shop_id = $1 AND id = $2 AND NOT deleted`
	b, err := scanBundle(r.db.QueryRow(ctx, q, shopID, id))
	if isMissing(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	byBundle, err := r.products(ctx, []string{b.ID})
	if err != nil {
		return nil, err
	}
	b.Products = byBundle[b.ID]
	return b, nil
}

func (r *Repository) List(ctx context.Context, shopID string) ([]Bundle, error) {
	q := `SELECT ` + bundleColumns + ` FROM bundles WHERE shop_id = $1 AND NOT deleted ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bundle
	var ids []string
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byBundle, err := r.products(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Products = byBundle[out[i].ID]
	}
	return out, nil
}

const productsQuery = `
SELECT bundle_id, id, title, sku, vendor, price::text
FROM bundle_products
WHERE bundle_id = ANY($1::uuid[]) AND NOT deleted
ORDER BY bundle_id, position
`

func (r *Repository) products(ctx context.Context, bundleIDs []string) (map[string][]Product, error) {
	out := map[string][]Product{}
	if len(bundleIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, productsQuery, bundleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var bundleID, price string
		var p Product
		if err := rows.Scan(&bundleID, &p.ID, &p.Title, &p.SKU, &p.Vendor, &price); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("bundle product %s price: %w", p.ID, err)
		}
		out[bundleID] = append(out[bundleID], p)
	}
	return out, rows.Err()
}

// SoftDelete marks the bundle deleted. The published store product is
// left in place.
func (r *Repository) SoftDelete(ctx context.Context, shopID, id string) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `UPDATE bundles SET deleted = TRUE, updated_at = NOW() WHERE shop_id = $1 AND id = $2 AND NOT deleted`
		tag, err := tx.Exec(ctx, q, shopID, id)
		if isMissing(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return audit.Insert(ctx, tx, shopID, &id, audit.BundleDeleted, nil)
	})
}

// isMissing treats malformed ids like unknown ones.
func isMissing(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
