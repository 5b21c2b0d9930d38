package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"GlowMint/internal/store"
)

const queryTimeout = 3 * time.Second

const createProductsTable = `
	CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		position    INTEGER NOT NULL,
		title       TEXT NOT NULL,
		price       BIGINT NOT NULL,
		rating      DOUBLE PRECISION NOT NULL,
		image       TEXT NOT NULL,
		short       TEXT NOT NULL,
		description TEXT NOT NULL,
		specs       TEXT NOT NULL
	)`

// LoadSQL reads the products table once and freezes it into a Catalog.
// Works with both the pgx and sqlite database/sql drivers.
func LoadSQL(ctx context.Context, db *sql.DB) (*Catalog, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, `
			SELECT id, title, price, rating, image, short, description, specs
			FROM products
			ORDER BY position ASC, id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var (
				p     Product
				specs string
			)
			if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Rating, &p.Image, &p.Short, &p.Description, &specs); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(specs), &p.Specs); err != nil {
				return fmt.Errorf("product %s specs: %w", p.ID, err)
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return New(out)
}

// SeedSQL creates the products table if needed and upserts every product,
// keeping the catalog order in the position column.
func SeedSQL(ctx context.Context, db *sql.DB, d store.Dialect, c *Catalog) error {
	return withTimeout(ctx, queryTimeout*time.Duration(1+c.Len()), func(ctx context.Context) error {
		if _, err := db.ExecContext(ctx, createProductsTable); err != nil {
			return fmt.Errorf("create products: %w", err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, d.Rebind(`
			INSERT INTO products (id, position, title, price, rating, image, short, description, specs)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				position = excluded.position,
				title = excluded.title,
				price = excluded.price,
				rating = excluded.rating,
				image = excluded.image,
				short = excluded.short,
				description = excluded.description,
				specs = excluded.specs
		`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, p := range c.products {
			specs, err := json.Marshal(p.Specs)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, p.ID, i, p.Title, p.Price, p.Rating, p.Image, p.Short, p.Description, string(specs)); err != nil {
				return fmt.Errorf("upsert %s: %w", p.ID, err)
			}
		}

		return tx.Commit()
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
