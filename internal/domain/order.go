package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether s is one of OrderStatuses.
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseOrderStatus matches case-insensitively. "Canceled" is accepted as
// an alias of Cancelled.
func ParseOrderStatus(s string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "canceled" {
		return OrderStatusCancelled, nil
	}
	for _, known := range OrderStatuses {
		if strings.ToLower(string(known)) == normalized {
			return known, nil
		}
	}
	return "", ErrInvalidStatus
}

// Order is the header row of a placed order. Total is fixed at creation.
type Order struct {
	ID        uuid.UUID       `db:"id"`
	UserID    uuid.UUID       `db:"user_id"`
	Status    OrderStatus     `db:"status"`
	Total     decimal.Decimal `db:"total"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
	Items     []OrderItem     `db:"-"`
}

// OrderItem is a line of an order. UnitPrice is the product price captured
// when the order was placed, not a reference to the live catalog price.
type OrderItem struct {
	ID        uuid.UUID       `db:"id"`
	OrderID   uuid.UUID       `db:"order_id"`
	ProductID uuid.UUID       `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`

	// Product is filled on read paths for display only.
	Product *ProductSummary `db:"-"`
}

// Subtotal returns UnitPrice * Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductSummary is the subset of a product shown next to an order line.
type ProductSummary struct {
	ID       uuid.UUID       `db:"id"`
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	ImageURL string          `db:"image_url"`
}

// OrderLine is one requested (product, quantity) pair of a placement request.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// SumItems returns the sum of the items' subtotals.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
