package store

import (
	"context"

	"pos-catalog-browser/internal/domain"
)

// ProductStorer defines the database operations behind the catalog API.
type ProductStorer interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
}

// SaleStorer registers sales against product stock.
type SaleStorer interface {
	// RecordSale sells one unit of productID: it decrements the stock and records the sale atomically.
	RecordSale(ctx context.Context, productID int64, payment domain.PaymentType) (*domain.Sale, error)
}

// Pinger reports database reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
