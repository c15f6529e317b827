package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Items     []CartLineItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CartLineItem carries no price of its own; Product reflects the live catalog row.
type CartLineItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Product   *Product  `json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CartItemCreate struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (c CartItemCreate) Validate() error {
	if c.ProductID == "" {
		return invalidInput("product id is empty")
	}
	if c.Quantity <= 0 {
		return invalidInput("quantity must be positive")
	}
	if c.Quantity > maxCount {
		return invalidInput("quantity is too large")
	}
	return nil
}

// Total prices the cart at the current product prices.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
