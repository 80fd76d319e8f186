package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents one sellable item of the catalog.
// The json tags correspond to the fields of the GET /api/products response.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	Image        *string         `json:"image"` // Explicit image reference, nil when absent
	Price        decimal.Decimal `json:"price"`
	AvailableQty int             `json:"available_qty"`
}

// InStock reports whether at least one unit can be sold.
// Zero and negative quantities both mean "out of stock".
func (p Product) InStock() bool {
	return p.AvailableQty > 0
}

// ImageRef returns the explicit image reference, or "" when none is set.
func (p Product) ImageRef() string {
	if p.Image == nil {
		return ""
	}
	return *p.Image
}

// Clone returns a deep copy so a pinned product shares no memory with the live snapshot.
func (p Product) Clone() Product {
	if p.Image != nil {
		img := *p.Image
		p.Image = &img
	}
	return p
}

// PaymentType is the payment method a sale is registered with.
type PaymentType string

const (
	PaymentCash PaymentType = "cash"
	PaymentCard PaymentType = "card"
)

// DefaultPayment is the most common payment method and preselected in the confirmation dialog.
const DefaultPayment = PaymentCash

// ParsePaymentType maps operator input onto a known payment method.
func ParsePaymentType(s string) (PaymentType, error) {
	switch pt := PaymentType(strings.ToLower(strings.TrimSpace(s))); pt {
	case PaymentCash, PaymentCard:
		return pt, nil
	default:
		return "", fmt.Errorf("domain: unknown payment type %q", s)
	}
}

// Valid reports whether the payment type is one of the supported methods.
func (pt PaymentType) Valid() bool {
	return pt == PaymentCash || pt == PaymentCard
}

// Sale is one registered sale of a single unit of a product.
type Sale struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	PaymentType PaymentType     `json:"payment_type"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
}
