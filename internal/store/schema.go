package store

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables if they are missing. product_category has
// deliberately no uniqueness on the pair: every run re-links products to
// their category and duplicate links are tolerated.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS category (
			id          SERIAL PRIMARY KEY,
			category    TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS brands (
			id               SERIAL PRIMARY KEY,
			name             TEXT NOT NULL UNIQUE,
			number_of_tweets INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS inventory_status (
			id    SERIAL PRIMARY KEY,
			state TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS product (
			id                  SERIAL PRIMARY KEY,
			iherb_product_id    INTEGER NOT NULL UNIQUE,
			url                 TEXT NOT NULL,
			name                TEXT NOT NULL,
			rating              DOUBLE PRECISION NOT NULL DEFAULT 0,
			number_reviews      INTEGER NOT NULL DEFAULT 0,
			part_no             TEXT NOT NULL DEFAULT '',
			brand_id            INTEGER NOT NULL REFERENCES brands(id),
			discount_price      DOUBLE PRECISION NOT NULL DEFAULT 0,
			out_of_stock        TEXT NOT NULL DEFAULT '',
			inventory_status_id INTEGER NOT NULL REFERENCES inventory_status(id),
			currency            TEXT NOT NULL DEFAULT '',
			price               DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS product_category (
			product_id  INTEGER NOT NULL REFERENCES product(id),
			category_id INTEGER NOT NULL REFERENCES category(id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: EnsureSchema: %w", err)
		}
	}
	return nil
}
