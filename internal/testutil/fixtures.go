package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsertProduct writes a product row with a generated name and price.
func InsertProduct(ctx context.Context, t *testing.T, db *sql.DB, stock int, active bool) string {
	t.Helper()

	id := uuid.New().String()
	price := decimal.NewFromFloat(gofakeit.Price(1, 500)).Round(2)
	if !price.IsPositive() {
		price = decimal.NewFromInt(1)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, gofakeit.ProductName(), gofakeit.ProductDescription(), price, stock, active)
	if err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}

	return id
}

func ProductStock(ctx context.Context, t *testing.T, db *sql.DB, id string) int {
	t.Helper()

	var stock int
	if err := db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

func CountRows(ctx context.Context, t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
