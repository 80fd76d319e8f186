package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"pos-catalog-browser/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound = errors.New("store: product not found")
	ErrOutOfStock      = errors.New("store: product out of stock")
	ErrInvalidPayment  = errors.New("store: invalid payment type")
)

const (
	listProductsQuery = `
		SELECT id, name, code, image, price, available_qty
		FROM products.products
		ORDER BY id ASC;
	`
	getProductQuery = `
		SELECT id, name, code, image, price, available_qty
		FROM products.products
		WHERE id = $1;
	`
	decrementStockQuery = `
		UPDATE products.products
		SET available_qty = available_qty - 1
		WHERE id = $1 AND available_qty > 0
		RETURNING price;
	`
	productExistsQuery = `SELECT EXISTS(SELECT 1 FROM products.products WHERE id = $1);`
	insertSaleQuery    = `
		INSERT INTO products.sales (product_id, payment_type, unit_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;
	`
)

// PostgresStore implements ProductStorer, SaleStorer and Pinger using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var image sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Code, &image, &p.Price, &p.AvailableQty); err != nil {
		return domain.Product{}, err
	}
	if image.Valid && image.String != "" {
		img := image.String
		p.Image = &img
	}
	return p, nil
}

// ListProducts returns the whole catalog ordered by id.
func (s *PostgresStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, getProductQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return &p, nil
}

// RecordSale decrements the stock of productID by one and inserts the sale in one transaction.
// The stock guard in the UPDATE makes a concurrent sale of the last unit fail with ErrOutOfStock.
func (s *PostgresStore) RecordSale(ctx context.Context, productID int64, payment domain.PaymentType) (*domain.Sale, error) {
	if !payment.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPayment, payment)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: RecordSale failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sale := domain.Sale{ProductID: productID, PaymentType: payment}
	err = tx.QueryRowContext(ctx, decrementStockQuery, productID).Scan(&sale.UnitPrice)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: RecordSale failed to update stock: %w", err)
		}
		// Either the product does not exist or its stock is exhausted.
		var exists bool
		if err := tx.QueryRowContext(ctx, productExistsQuery, productID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("store: RecordSale failed to check product existence: %w", err)
		}
		if !exists {
			return nil, ErrProductNotFound
		}
		return nil, ErrOutOfStock
	}

	err = tx.QueryRowContext(ctx, insertSaleQuery, productID, string(payment), sale.UnitPrice).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // Foreign key violation: product deleted meanwhile
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: RecordSale failed to insert sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: RecordSale failed to commit: %w", err)
	}
	return &sale, nil
}

// Ping checks that the database answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		s.logger.Info("closing database connection pool")
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database connection pool", zap.Error(err))
			return err
		}
		s.logger.Info("database connection pool closed")
	}
	return nil
}
