package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order in status s may move to next.
// Completed and cancelled orders are terminal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	return s == OrderStatusPending
}

type OrderLineItem struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	Items       []OrderLineItem `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderItemRequest is one requested line. Price is the caller's snapshot and
// is stored as-is, never re-derived from the product's current price.
type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type PlaceOrderRequest struct {
	UserID      string             `json:"user_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []OrderItemRequest `json:"items"`
}

func (r PlaceOrderRequest) Validate() error {
	if r.UserID == "" {
		return invalidInput("user id is empty")
	}
	if r.TotalAmount.IsNegative() {
		return invalidInput("total amount must not be negative")
	}
	if err := validateAmount("total amount", r.TotalAmount); err != nil {
		return err
	}
	if len(r.Items) == 0 {
		return invalidInput("order has no items")
	}
	for _, item := range r.Items {
		if item.ProductID == "" {
			return invalidInput("item product id is empty")
		}
		if item.Quantity <= 0 {
			return invalidInput("item quantity must be positive")
		}
		if item.Quantity > maxCount {
			return invalidInput("item quantity is too large")
		}
		if item.Price.IsNegative() {
			return invalidInput("item price must not be negative")
		}
		if err := validateAmount("item price", item.Price); err != nil {
			return err
		}
	}
	return nil
}

// TotalQuantity sums the quantities of all line items.
func (o Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
