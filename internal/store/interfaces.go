package store

import "context"

// DimensionStorer covers the lookup tables products reference by foreign key.
// The Insert methods are upsert-or-skip: inserting a value that already exists
// reports (false, nil) instead of an error, so call sites decide policy.
type DimensionStorer interface {
	InsertCategory(ctx context.Context, label string) (bool, error)
	InsertBrand(ctx context.Context, name string) (bool, error)
	InsertInventoryStatus(ctx context.Context, state string) (bool, error)

	CategoryIDByLabel(ctx context.Context, label string) (int64, error)
	BrandIDByName(ctx context.Context, name string) (int64, error)
	InventoryStatusIDByLabel(ctx context.Context, state string) (int64, error)
}

// ProductStorer covers the product rows and their category links.
type ProductStorer interface {
	// ProductIDByIherbID returns ErrProductNotFound when the scraped id has
	// never been persisted.
	ProductIDByIherbID(ctx context.Context, iherbID int) (int64, error)
	InsertProduct(ctx context.Context, p ProductRow) error
	UpdateProductRating(ctx context.Context, iherbID int, rating float64, reviews int) error
	LinkProductCategory(ctx context.Context, productID, categoryID int64) error
}

// BrandStorer covers the brand enrichment round trip.
type BrandStorer interface {
	BrandNames(ctx context.Context) ([]string, error)
	SetBrandMentionCount(ctx context.Context, name string, count int) error
}

// ProductRow is a product ready for insertion, with foreign keys resolved.
type ProductRow struct {
	IherbID           int
	URL               string
	Name              string
	Rating            float64
	ReviewCount       int
	PartNo            string
	BrandID           int64
	DiscountPrice     float64
	OutOfStock        string
	InventoryStatusID int64
	Currency          string
	Price             float64
}
