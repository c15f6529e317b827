package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c CategoryCreate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalidInput("category name is empty")
	}
	return nil
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	Categories  []Category      `json:"categories"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductCreate struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    *bool           `json:"is_active"`
	CategoryIDs []string        `json:"category_ids"`
}

func (c ProductCreate) Validate() error {
	return validateProductFields(c.Name, c.Price, c.Stock)
}

// Product builds the new product; IsActive defaults to true when omitted.
func (c ProductCreate) Product() Product {
	active := true
	if c.IsActive != nil {
		active = *c.IsActive
	}
	return Product{
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		Stock:       c.Stock,
		IsActive:    active,
	}
}

// ProductUpdate is a partial update. A nil field leaves the attribute unchanged.
type ProductUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	CategoryIDs *[]string        `json:"category_ids,omitempty"`
}

func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil &&
		u.Stock == nil && u.IsActive == nil && u.CategoryIDs == nil
}

// Apply returns a copy of p with every set field of u assigned and validates the result.
func (u ProductUpdate) Apply(p Product) (Product, error) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}

	if err := validateProductFields(p.Name, p.Price, p.Stock); err != nil {
		return Product{}, err
	}
	return p, nil
}

func validateProductFields(name string, price decimal.Decimal, stock int) error {
	if strings.TrimSpace(name) == "" {
		return invalidInput("product name is empty")
	}
	if !price.IsPositive() {
		return invalidInput("product price must be positive")
	}
	if err := validateAmount("product price", price); err != nil {
		return err
	}
	if stock < 0 {
		return invalidInput("product stock must not be negative")
	}
	if stock > maxCount {
		return invalidInput("product stock is too large")
	}
	return nil
}
