package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"pos-catalog-browser/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(db, nil)
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

var productColumns = []string{"id", "name", "code", "image", "price", "available_qty"}

func TestPostgresStore_ListProducts(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	rows := sqlmock.NewRows(productColumns).
		AddRow(int64(7), "Widget", "AX1", nil, "10.00", 3).
		AddRow(int64(8), "Gadget", "B2", "https://cdn.local/b2.png", "4.50", 0)
	mock.ExpectQuery(regexp.QuoteMeta(listProductsQuery)).WillReturnRows(rows)

	products, err := store.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(7), products[0].ID)
	assert.Nil(t, products[0].Image)
	assert.True(t, decimal.RequireFromString("10").Equal(products[0].Price))
	assert.Equal(t, 3, products[0].AvailableQty)
	require.NotNil(t, products[1].Image)
	assert.Equal(t, "https://cdn.local/b2.png", *products[1].Image)

	require.NoError(t, mock.ExpectationsWereMet(), "SQLmock expectations were not met")
}

func TestPostgresStore_ListProducts_Empty(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(listProductsQuery)).WillReturnRows(sqlmock.NewRows(productColumns))

	products, err := store.ListProducts(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, products, "an empty catalog is an empty slice, not nil")
	assert.Empty(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProducts_QueryError(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(listProductsQuery)).WillReturnError(errors.New("connection lost"))

	_, err := store.ListProducts(context.Background())

	assert.ErrorContains(t, err, "connection lost")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProductByID(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(getProductQuery)).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(int64(7), "Widget", "AX1", "", "10.00", 3))
	mock.ExpectQuery(regexp.QuoteMeta(getProductQuery)).WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	p, err := store.GetProductByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Nil(t, p.Image, "an empty image column is treated as absent")

	_, err = store.GetProductByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSale(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()
	now := time.Now().Truncate(time.Millisecond)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockQuery)).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow("10.00"))
	mock.ExpectQuery(regexp.QuoteMeta(insertSaleQuery)).WithArgs(int64(7), "card", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(41), now))
	mock.ExpectCommit()

	sale, err := store.RecordSale(context.Background(), 7, domain.PaymentCard)

	require.NoError(t, err)
	assert.Equal(t, int64(41), sale.ID)
	assert.Equal(t, int64(7), sale.ProductID)
	assert.Equal(t, domain.PaymentCard, sale.PaymentType)
	assert.True(t, decimal.RequireFromString("10").Equal(sale.UnitPrice))
	assert.WithinDuration(t, now, sale.CreatedAt, time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSale_OutOfStock(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockQuery)).WithArgs(int64(7)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(productExistsQuery)).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	sale, err := store.RecordSale(context.Background(), 7, domain.PaymentCash)

	assert.Nil(t, sale)
	assert.ErrorIs(t, err, ErrOutOfStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSale_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockQuery)).WithArgs(int64(5)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(productExistsQuery)).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := store.RecordSale(context.Background(), 5, domain.PaymentCash)

	assert.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSale_ForeignKeyViolation(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(decrementStockQuery)).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow("10.00"))
	mock.ExpectQuery(regexp.QuoteMeta(insertSaleQuery)).WithArgs(int64(7), "cash", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "sales_product_id_fkey"})
	mock.ExpectRollback()

	_, err := store.RecordSale(context.Background(), 7, domain.PaymentCash)

	assert.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordSale_InvalidPayment(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	_, err := store.RecordSale(context.Background(), 7, "voucher")

	assert.ErrorIs(t, err, ErrInvalidPayment)
	require.NoError(t, mock.ExpectationsWereMet(), "no query is issued for an invalid payment")
}

func TestPostgresStore_Ping(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	assert.NoError(t, store.Ping(context.Background()))
	assert.Error(t, store.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
