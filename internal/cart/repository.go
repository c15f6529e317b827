package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the user's cart, creating it on first use. The unique
// user_id constraint makes concurrent first calls converge on one row.
func (r *Repository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New().String(), userID)
	if err != nil {
		return nil, err
	}

	return r.header(ctx, userID)
}

func (r *Repository) InsertItem(ctx context.Context, cartID, productID string, quantity int) (*domain.CartLineItem, error) {
	item := &domain.CartLineItem{
		ID:        uuid.New().String(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, item.ID, item.CartID, item.ProductID, item.Quantity).Scan(&item.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Get returns the user's cart with every line joined to its live product row.
func (r *Repository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.header(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, ci.quantity, ci.created_at,
		       p.name, p.description, p.price, p.stock, p.is_active, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cart.Items = []domain.CartLineItem{}
	for rows.Next() {
		item := domain.CartLineItem{CartID: cart.ID, Product: &domain.Product{}}
		p := item.Product
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.CreatedAt,
			&p.Name, &p.Description, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.ID = item.ProductID
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *Repository) RemoveItem(ctx context.Context, userID, itemID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.id = $2
	`, userID, itemID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

// Clear removes every line of the user's cart. The cart row itself is kept.
// Clear removes the user's cart lines. A non-zero before keeps lines added
// after that instant.
func (r *Repository) Clear(ctx context.Context, userID string, before time.Time) error {
	cart, err := r.header(ctx, userID)
	if err != nil {
		return err
	}

	cutoff := sql.NullTime{Time: before, Valid: !before.IsZero()}
	_, err = r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND ($2::timestamptz IS NULL OR created_at <= $2)
	`, cart.ID, cutoff)
	return err
}

func (r *Repository) header(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}

	return cart, nil
}
