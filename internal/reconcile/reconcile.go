// Package reconcile merges scraped product records into the relational store:
// dimension upsert, product insert-or-update, category linking. Every failure
// is per-row; a bad record never aborts the rest of the batch.
package reconcile

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/nboudali/herbscrap/internal/models"
	"github.com/nboudali/herbscrap/internal/store"
)

// Store is everything the engine needs from the data store.
type Store interface {
	store.DimensionStorer
	store.ProductStorer
}

// Summary reports what one PersistBatch call did.
type Summary struct {
	Inserted int
	Updated  int
	Linked   int
	Skipped  int
}

// Engine reconciles record batches against a store handle. The handle is
// scoped to the engine's lifetime; no transaction spans more than one
// statement, so an interrupted run leaves a consistent prefix persisted.
type Engine struct {
	store Store
}

func NewEngine(st Store) *Engine {
	return &Engine{store: st}
}

// PersistBatch runs the phases in order: dimension upsert for the distinct
// category/brand/status values, then per-record product upsert and category
// link.
func (e *Engine) PersistBatch(ctx context.Context, records []models.Product) Summary {
	var sum Summary

	e.upsertDimensions(ctx, records)
	for i := range records {
		e.persistRecord(ctx, records[i], &sum)
	}
	return sum
}

// upsertDimensions inserts every distinct category, brand and inventory
// status from the batch. Values already present report inserted=false, which
// is the expected steady state on re-scrapes, not an error.
func (e *Engine) upsertDimensions(ctx context.Context, records []models.Product) {
	categories := make(map[string]struct{})
	brands := make(map[string]struct{})
	statuses := make(map[string]struct{})
	for i := range records {
		categories[records[i].Category] = struct{}{}
		brands[records[i].BrandName] = struct{}{}
		statuses[records[i].InventoryStatus] = struct{}{}
	}

	for label := range categories {
		if _, err := e.store.InsertCategory(ctx, label); err != nil {
			log.Printf("category %q: %v", label, err)
		}
	}
	for name := range brands {
		if _, err := e.store.InsertBrand(ctx, name); err != nil {
			log.Printf("brand %q: %v", name, err)
		}
	}
	for state := range statuses {
		if _, err := e.store.InsertInventoryStatus(ctx, state); err != nil {
			log.Printf("inventory status %q: %v", state, err)
		}
	}
}

func (e *Engine) persistRecord(ctx context.Context, rec models.Product, sum *Summary) {
	_, err := e.store.ProductIDByIherbID(ctx, rec.IherbID)
	switch {
	case err == nil:
		// Re-scrape of a known product: only rating and review count move,
		// every other column stays as first persisted.
		if err := e.store.UpdateProductRating(ctx, rec.IherbID, rec.Rating, rec.ReviewCount); err != nil {
			log.Printf("update failed for %d: %v", rec.IherbID, err)
			sum.Skipped++
			return
		}
		sum.Updated++
	case errors.Is(err, store.ErrProductNotFound):
		if !e.insertRecord(ctx, rec) {
			sum.Skipped++
			return
		}
		sum.Inserted++
	default:
		log.Printf("lookup failed for %d: %v", rec.IherbID, err)
		sum.Skipped++
		return
	}

	if e.linkCategory(ctx, rec) {
		sum.Linked++
	}
}

func (e *Engine) insertRecord(ctx context.Context, rec models.Product) bool {
	brandID, err := e.store.BrandIDByName(ctx, rec.BrandName)
	if err != nil {
		log.Printf("product %s not inserted: %v", rec, err)
		return false
	}
	statusID, err := e.store.InventoryStatusIDByLabel(ctx, rec.InventoryStatus)
	if err != nil {
		log.Printf("product %s not inserted: %v", rec, err)
		return false
	}

	row := store.ProductRow{
		IherbID:           rec.IherbID,
		URL:               rec.URL,
		Name:              sanitizeName(rec.Name),
		Rating:            rec.Rating,
		ReviewCount:       rec.ReviewCount,
		PartNo:            rec.PartNo,
		BrandID:           brandID,
		DiscountPrice:     rec.DiscountPrice,
		OutOfStock:        rec.OutOfStock,
		InventoryStatusID: statusID,
		Currency:          rec.Currency,
		Price:             rec.Price,
	}
	if err := e.store.InsertProduct(ctx, row); err != nil {
		log.Printf("product %s not inserted: %v", rec, err)
		return false
	}
	return true
}

// linkCategory joins the product to its category after a successful write.
// The join row is inserted unconditionally; re-runs produce duplicate links
// because the table carries no pair constraint.
func (e *Engine) linkCategory(ctx context.Context, rec models.Product) bool {
	categoryID, err := e.store.CategoryIDByLabel(ctx, rec.Category)
	if err != nil {
		log.Printf("link failed for %d: %v", rec.IherbID, err)
		return false
	}
	productID, err := e.store.ProductIDByIherbID(ctx, rec.IherbID)
	if err != nil {
		log.Printf("link failed for %d: %v", rec.IherbID, err)
		return false
	}
	if err := e.store.LinkProductCategory(ctx, productID, categoryID); err != nil {
		log.Printf("link failed for %d: %v", rec.IherbID, err)
		return false
	}
	return true
}

// sanitizeName strips apostrophes out of product names before persistence.
func sanitizeName(name string) string {
	return strings.ReplaceAll(name, "'", " ")
}
