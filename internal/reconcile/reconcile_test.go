package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/nboudali/herbscrap/internal/models"
	"github.com/nboudali/herbscrap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	insertCategoryQ = regexp.QuoteMeta(`INSERT INTO category (category, description) VALUES ($1, '');`)
	insertBrandQ    = regexp.QuoteMeta(`INSERT INTO brands (name) VALUES ($1);`)
	insertStatusQ   = regexp.QuoteMeta(`INSERT INTO inventory_status (state) VALUES ($1);`)
	productByIDQ    = regexp.QuoteMeta(`SELECT id FROM product WHERE iherb_product_id = $1;`)
	brandByNameQ    = regexp.QuoteMeta(`SELECT id FROM brands WHERE name = $1;`)
	statusByLabelQ  = regexp.QuoteMeta(`SELECT id FROM inventory_status WHERE state = $1;`)
	categoryByQ     = regexp.QuoteMeta(`SELECT id FROM category WHERE category = $1;`)
	insertProductQ  = `INSERT INTO product`
	updateProductQ  = regexp.QuoteMeta(`UPDATE product SET number_reviews = $1, rating = $2 WHERE iherb_product_id = $3;`)
	linkQ           = regexp.QuoteMeta(`INSERT INTO product_category (product_id, category_id) VALUES ($1, $2);`)
)

func newEngine(t *testing.T) (sqlmock.Sqlmock, *Engine, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return mock, NewEngine(store.NewPgStore(db)), func() { db.Close() }
}

func sampleRecord() models.Product {
	return models.Product{
		URL:             "https://www.iherb.com/pr/omega-3/11710",
		Name:            "Lucy's Omega-3",
		Rating:          4.7,
		ReviewCount:     1234,
		IherbID:         11710,
		PartNo:          "CGN-01010",
		BrandName:       "California Gold Nutrition",
		BrandID:         "13327",
		DiscountPrice:   12.34,
		OutOfStock:      "False",
		HasDiscount:     "False",
		InventoryStatus: "In Stock",
		Currency:        "USD",
		Price:           15.00,
		Category:        "sports",
	}
}

// expectDimensions queues the phase-1 upserts for one sampleRecord batch.
func expectDimensions(mock sqlmock.Sqlmock, duplicate bool) {
	if duplicate {
		dup := &pq.Error{Code: "23505"}
		mock.ExpectExec(insertCategoryQ).WithArgs("sports").WillReturnError(dup)
		mock.ExpectExec(insertBrandQ).WithArgs("California Gold Nutrition").WillReturnError(dup)
		mock.ExpectExec(insertStatusQ).WithArgs("In Stock").WillReturnError(dup)
		return
	}
	mock.ExpectExec(insertCategoryQ).WithArgs("sports").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertBrandQ).WithArgs("California Gold Nutrition").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertStatusQ).WithArgs("In Stock").WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestPersistBatch_InsertsNewProduct(t *testing.T) {
	mock, engine, done := newEngine(t)
	defer done()

	rec := sampleRecord()

	expectDimensions(mock, false)
	mock.ExpectQuery(productByIDQ).WithArgs(rec.IherbID).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(brandByNameQ).WithArgs(rec.BrandName).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(statusByLabelQ).WithArgs(rec.InventoryStatus).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	// apostrophes are stripped from the persisted name
	mock.ExpectExec(insertProductQ).
		WithArgs(rec.IherbID, rec.URL, "Lucy s Omega-3", rec.Rating, rec.ReviewCount, rec.PartNo,
			int64(7), rec.DiscountPrice, rec.OutOfStock, int64(3), rec.Currency, rec.Price).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(categoryByQ).WithArgs(rec.Category).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectQuery(productByIDQ).WithArgs(rec.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(linkQ).WithArgs(int64(42), int64(2)).WillReturnResult(sqlmock.NewResult(1, 1))

	sum := engine.PersistBatch(context.Background(), []models.Product{rec})

	assert.Equal(t, Summary{Inserted: 1, Linked: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistBatch_SecondRunUpdatesRatingOnly(t *testing.T) {
	mock, engine, done := newEngine(t)
	defer done()

	rec := sampleRecord()
	rec.Rating = 4.8
	rec.ReviewCount = 1300

	// re-scrape: dimensions already exist, product row already exists
	expectDimensions(mock, true)
	mock.ExpectQuery(productByIDQ).WithArgs(rec.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(updateProductQ).WithArgs(rec.ReviewCount, rec.Rating, rec.IherbID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(categoryByQ).WithArgs(rec.Category).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectQuery(productByIDQ).WithArgs(rec.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(linkQ).WithArgs(int64(42), int64(2)).WillReturnResult(sqlmock.NewResult(1, 1))

	sum := engine.PersistBatch(context.Background(), []models.Product{rec})

	assert.Equal(t, Summary{Updated: 1, Linked: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistBatch_DuplicateDimensionsDoNotAbort(t *testing.T) {
	mock, engine, done := newEngine(t)
	defer done()

	rec := sampleRecord()

	// every dimension value already present; the batch still proceeds to the
	// product phase
	expectDimensions(mock, true)
	mock.ExpectQuery(productByIDQ).WithArgs(rec.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(updateProductQ).WithArgs(rec.ReviewCount, rec.Rating, rec.IherbID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(categoryByQ).WithArgs(rec.Category).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectQuery(productByIDQ).WithArgs(rec.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(linkQ).WithArgs(int64(42), int64(2)).WillReturnResult(sqlmock.NewResult(1, 1))

	sum := engine.PersistBatch(context.Background(), []models.Product{rec})

	assert.Zero(t, sum.Skipped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistBatch_UnknownBrandSkipsRecord(t *testing.T) {
	mock, engine, done := newEngine(t)
	defer done()

	rec := sampleRecord()

	expectDimensions(mock, false)
	mock.ExpectQuery(productByIDQ).WithArgs(rec.IherbID).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(brandByNameQ).WithArgs(rec.BrandName).WillReturnError(sql.ErrNoRows)
	// no product insert, no link

	sum := engine.PersistBatch(context.Background(), []models.Product{rec})

	assert.Equal(t, Summary{Skipped: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

// stubStore lets tests return arbitrary errors from the lookup without going
// through the SQL layer.
type stubStore struct {
	lookupErr error
	inserted  []store.ProductRow
}

func (s *stubStore) InsertCategory(ctx context.Context, label string) (bool, error) {
	return true, nil
}
func (s *stubStore) InsertBrand(ctx context.Context, name string) (bool, error) { return true, nil }
func (s *stubStore) InsertInventoryStatus(ctx context.Context, state string) (bool, error) {
	return true, nil
}
func (s *stubStore) CategoryIDByLabel(ctx context.Context, label string) (int64, error) {
	return 2, nil
}
func (s *stubStore) BrandIDByName(ctx context.Context, name string) (int64, error) { return 7, nil }
func (s *stubStore) InventoryStatusIDByLabel(ctx context.Context, state string) (int64, error) {
	return 3, nil
}
func (s *stubStore) ProductIDByIherbID(ctx context.Context, iherbID int) (int64, error) {
	if len(s.inserted) == 0 {
		return 0, s.lookupErr
	}
	return 42, nil
}
func (s *stubStore) InsertProduct(ctx context.Context, p store.ProductRow) error {
	s.inserted = append(s.inserted, p)
	return nil
}
func (s *stubStore) UpdateProductRating(ctx context.Context, iherbID int, rating float64, reviews int) error {
	return nil
}
func (s *stubStore) LinkProductCategory(ctx context.Context, productID, categoryID int64) error {
	return nil
}

func TestPersistBatch_WrappedNotFoundStillInserts(t *testing.T) {
	st := &stubStore{lookupErr: fmt.Errorf("lookup: %w", store.ErrProductNotFound)}
	engine := NewEngine(st)

	sum := engine.PersistBatch(context.Background(), []models.Product{sampleRecord()})

	assert.Equal(t, Summary{Inserted: 1, Linked: 1}, sum)
	require.Len(t, st.inserted, 1)
}

func TestPersistBatch_RowFailureDoesNotAbortBatch(t *testing.T) {
	mock, engine, done := newEngine(t)
	defer done()

	bad := sampleRecord()
	good := sampleRecord()
	good.IherbID = 22222
	good.Name = "Second Product"

	expectDimensions(mock, false)

	// first record: update fails at the store
	mock.ExpectQuery(productByIDQ).WithArgs(bad.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectExec(updateProductQ).WithArgs(bad.ReviewCount, bad.Rating, bad.IherbID).
		WillReturnError(&pq.Error{Code: "57014"})

	// second record still processed
	mock.ExpectQuery(productByIDQ).WithArgs(good.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(43)))
	mock.ExpectExec(updateProductQ).WithArgs(good.ReviewCount, good.Rating, good.IherbID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(categoryByQ).WithArgs(good.Category).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectQuery(productByIDQ).WithArgs(good.IherbID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(43)))
	mock.ExpectExec(linkQ).WithArgs(int64(43), int64(2)).WillReturnResult(sqlmock.NewResult(1, 1))

	sum := engine.PersistBatch(context.Background(), []models.Product{bad, good})

	assert.Equal(t, Summary{Updated: 1, Linked: 1, Skipped: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}
