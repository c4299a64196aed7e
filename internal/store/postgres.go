package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound        = errors.New("store: category not found")
	ErrBrandNotFound           = errors.New("store: brand not found")
	ErrInventoryStatusNotFound = errors.New("store: inventory status not found")
	ErrProductNotFound         = errors.New("store: product not found")
)

// PgStore implements the storer interfaces over PostgreSQL. Connections are
// pooled by database/sql; every call is its own short statement, there is no
// long-held transaction.
type PgStore struct {
	db *sql.DB
}

// NewPgStore creates a new PgStore instance.
func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: db}
}

// isUniqueViolation reports whether err is the driver's duplicate-key error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// --- DimensionStorer implementation ---

func (s *PgStore) InsertCategory(ctx context.Context, label string) (bool, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO category (category, description) VALUES ($1, '');`, label)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: InsertCategory %q: %w", label, err)
	}
	return true, nil
}

func (s *PgStore) InsertBrand(ctx context.Context, name string) (bool, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brands (name) VALUES ($1);`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: InsertBrand %q: %w", name, err)
	}
	return true, nil
}

func (s *PgStore) InsertInventoryStatus(ctx context.Context, state string) (bool, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory_status (state) VALUES ($1);`, state)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("store: InsertInventoryStatus %q: %w", state, err)
	}
	return true, nil
}

func (s *PgStore) CategoryIDByLabel(ctx context.Context, label string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM category WHERE category = $1;`, label).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCategoryNotFound
		}
		return 0, fmt.Errorf("store: CategoryIDByLabel %q: %w", label, err)
	}
	return id, nil
}

func (s *PgStore) BrandIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM brands WHERE name = $1;`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrBrandNotFound
		}
		return 0, fmt.Errorf("store: BrandIDByName %q: %w", name, err)
	}
	return id, nil
}

func (s *PgStore) InventoryStatusIDByLabel(ctx context.Context, state string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM inventory_status WHERE state = $1;`, state).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInventoryStatusNotFound
		}
		return 0, fmt.Errorf("store: InventoryStatusIDByLabel %q: %w", state, err)
	}
	return id, nil
}

// --- ProductStorer implementation ---

func (s *PgStore) ProductIDByIherbID(ctx context.Context, iherbID int) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM product WHERE iherb_product_id = $1;`, iherbID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("store: ProductIDByIherbID %d: %w", iherbID, err)
	}
	return id, nil
}

func (s *PgStore) InsertProduct(ctx context.Context, p ProductRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product
			(iherb_product_id, url, name, rating, number_reviews, part_no,
			 brand_id, discount_price, out_of_stock, inventory_status_id, currency, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		p.IherbID, p.URL, p.Name, p.Rating, p.ReviewCount, p.PartNo,
		p.BrandID, p.DiscountPrice, p.OutOfStock, p.InventoryStatusID, p.Currency, p.Price,
	)
	if err != nil {
		return fmt.Errorf("store: InsertProduct %d: %w", p.IherbID, err)
	}
	return nil
}

func (s *PgStore) UpdateProductRating(ctx context.Context, iherbID int, rating float64, reviews int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE product SET number_reviews = $1, rating = $2 WHERE iherb_product_id = $3;`,
		reviews, rating, iherbID)
	if err != nil {
		return fmt.Errorf("store: UpdateProductRating %d: %w", iherbID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: UpdateProductRating %d rows affected: %w", iherbID, err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PgStore) LinkProductCategory(ctx context.Context, productID, categoryID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_category (product_id, category_id) VALUES ($1, $2);`,
		productID, categoryID)
	if err != nil {
		return fmt.Errorf("store: LinkProductCategory %d->%d: %w", productID, categoryID, err)
	}
	return nil
}

// --- BrandStorer implementation ---

func (s *PgStore) BrandNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM brands ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("store: BrandNames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: BrandNames scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: BrandNames iteration: %w", err)
	}
	return names, nil
}

func (s *PgStore) SetBrandMentionCount(ctx context.Context, name string, count int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE brands SET number_of_tweets = $1 WHERE name = $2;`, count, name)
	if err != nil {
		return fmt.Errorf("store: SetBrandMentionCount %q: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: SetBrandMentionCount %q rows affected: %w", name, err)
	}
	if affected == 0 {
		return ErrBrandNotFound
	}
	return nil
}

func (s *PgStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
