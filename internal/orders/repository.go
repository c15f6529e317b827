package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/inventory"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// PlaceOrder creates a pending order and decrements stock for every item in
// one transaction. Items are processed in request order; the first failing
// item aborts the whole order and nothing is persisted.
//
// Every referenced product row is locked before any stock is read, so two
// concurrent orders for the same product serialize on the row lock and the
// second one sees the first one's decrement.
func (r *OrderRepository) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return postgres.InTx(ctx, r.db, nil, func(tx *sql.Tx) (*domain.Order, error) {
		ids := make([]string, len(req.Items))
		for i, item := range req.Items {
			ids[i] = item.ProductID
		}

		locked, err := inventory.LockProducts(ctx, tx, ids)
		if err != nil {
			return nil, err
		}

		order := &domain.Order{
			ID:          uuid.New().String(),
			UserID:      req.UserID,
			TotalAmount: req.TotalAmount,
			Status:      domain.OrderStatusPending,
			Items:       make([]domain.OrderLineItem, 0, len(req.Items)),
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, user_id, total_amount, status)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at
		`, order.ID, order.UserID, order.TotalAmount, order.Status).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}

		for position, item := range req.Items {
			product, ok := locked[item.ProductID]
			if !ok {
				return nil, domain.NewProductError(domain.ErrProductNotFound, item.ProductID, "")
			}

			// locked tracks stock already consumed by earlier lines of this order.
			if err := inventory.OrderRule.Check(product, item.Quantity); err != nil {
				return nil, err
			}
			product.Stock -= item.Quantity

			if err := inventory.DecrementStock(ctx, tx, product.ID, item.Quantity); err != nil {
				return nil, err
			}

			line := domain.OrderLineItem{
				ID:        uuid.New().String(),
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, price, position)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, line.ID, line.OrderID, line.ProductID, line.Quantity, line.Price, position)
			if err != nil {
				return nil, fmt.Errorf("insert order item: %w", err)
			}

			order.Items = append(order.Items, line)
		}

		return order, nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	orders := map[string]*domain.Order{order.ID: order}
	if err := r.loadItems(ctx, orders, []string{order.ID}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, skip, limit int) ([]domain.Order, error) {
	skip, limit = inventory.NormalizePage(skip, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3
	`, userID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	if err := r.loadItems(ctx, orderMap, orderIDs); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// UpdateStatus moves a pending order to status. Completed and cancelled
// orders are terminal.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	_, err := postgres.InTx(ctx, r.db, nil, func(tx *sql.Tx) (struct{}, error) {
		var current domain.OrderStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return struct{}{}, domain.ErrOrderNotFound
			}
			return struct{}{}, err
		}

		if !current.CanTransition(status) {
			return struct{}{}, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current, status)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders SET status = $2, updated_at = NOW()
			WHERE id = $1
		`, id, status)
		return struct{}{}, err
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) loadItems(ctx context.Context, orders map[string]*domain.Order, orderIDs []string) error {
	for _, order := range orders {
		order.Items = []domain.OrderLineItem{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderLineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return err
		}
		order := orders[item.OrderID]
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}
