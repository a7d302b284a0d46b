package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT id, sku, name, COALESCE(image_url,''), price_cents, stock, created_at, updated_at
	                           FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.ImageURL, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns only the products that still exist; missing ids are simply
// absent from the result map.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) (map[string]Product, error) {
	out := map[string]Product{}
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(ids))
	params := ""
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `SELECT id, sku, name, COALESCE(image_url,''), price_cents, stock, created_at, updated_at
	                              FROM products WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.ImageURL, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, sku, name, COALESCE(image_url,''), price_cents, stock, created_at, updated_at
	                              FROM products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.ImageURL, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
