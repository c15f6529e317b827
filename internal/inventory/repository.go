package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

const productColumns = `id, name, description, price, stock, is_active, created_at, updated_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *domain.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := getProduct(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}

	products := []domain.Product{*p}
	if err := loadCategories(ctx, r.db, products); err != nil {
		return nil, err
	}

	return &products[0], nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, skip, limit int) ([]domain.Product, error) {
	skip, limit = NormalizePage(skip, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadCategories(ctx, r.db, products); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, c domain.ProductCreate) (*domain.Product, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return postgres.InTx(ctx, r.db, nil, func(tx *sql.Tx) (*domain.Product, error) {
		if err := checkCategories(ctx, tx, c.CategoryIDs); err != nil {
			return nil, err
		}

		p := c.Product()
		p.ID = uuid.New().String()

		err := tx.QueryRowContext(ctx, `
			INSERT INTO products (id, name, description, price, stock, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.IsActive).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert product: %w", err)
		}

		if err := linkCategories(ctx, tx, p.ID, c.CategoryIDs); err != nil {
			return nil, err
		}

		products := []domain.Product{p}
		if err := loadCategories(ctx, tx, products); err != nil {
			return nil, err
		}

		return &products[0], nil
	})
}

// UpdateProduct locks the product row, applies the set fields of u and
// replaces the category links when u.CategoryIDs is set.
func (r *ProductRepository) UpdateProduct(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	return postgres.InTx(ctx, r.db, nil, func(tx *sql.Tx) (*domain.Product, error) {
		current, err := getProduct(ctx, tx, id, true)
		if err != nil {
			return nil, err
		}

		p, err := u.Apply(*current)
		if err != nil {
			return nil, err
		}

		if !u.Empty() {
			err = tx.QueryRowContext(ctx, `
				UPDATE products
				SET name = $2, description = $3, price = $4, stock = $5, is_active = $6, updated_at = NOW()
				WHERE id = $1
				RETURNING updated_at
			`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.IsActive).Scan(&p.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("update product: %w", err)
			}
		}

		if u.CategoryIDs != nil {
			if err := checkCategories(ctx, tx, *u.CategoryIDs); err != nil {
				return nil, err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
				return nil, fmt.Errorf("unlink categories: %w", err)
			}
			if err := linkCategories(ctx, tx, p.ID, *u.CategoryIDs); err != nil {
				return nil, err
			}
		}

		products := []domain.Product{p}
		if err := loadCategories(ctx, tx, products); err != nil {
			return nil, err
		}

		return &products[0], nil
	})
}

// DeleteProduct removes the product and its cart lines. Products referenced
// by an order line cannot be deleted.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %s is referenced by existing orders", domain.ErrConflict, id)
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.NewProductError(domain.ErrProductNotFound, id, "")
	}

	return nil
}

func (r *ProductRepository) CreateCategory(ctx context.Context, c domain.CategoryCreate) (*domain.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:          uuid.New().String(),
		Name:        c.Name,
		Description: c.Description,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
	`, category.ID, category.Name, category.Description)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %q already exists", domain.ErrConflict, c.Name)
		}
		return nil, err
	}

	return category, nil
}

func (r *ProductRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// LockProducts takes row locks on every product in ids within tx and returns
// them keyed by id. Rows are locked in ascending id order so that concurrent
// callers touching overlapping products cannot deadlock. Missing ids are
// absent from the result.
func LockProducts(ctx context.Context, tx *sql.Tx, ids []string) (map[string]*domain.Product, error) {
	ids = uniqueSorted(ids)

	rows, err := tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	locked := make(map[string]*domain.Product, len(ids))
	for rows.Next() {
		p := &domain.Product{}
		if err := scanProduct(rows, p); err != nil {
			return nil, err
		}
		locked[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	return locked, nil
}

// DecrementStock subtracts quantity from the product's stock. The stock
// CHECK constraint rejects a result below zero.
func DecrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1
	`, productID, quantity)
	if err != nil {
		if postgres.IsCheckViolation(err) {
			return domain.NewProductError(domain.ErrInsufficientStock, productID, "")
		}
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

func NormalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return skip, limit
}

func getProduct(ctx context.Context, q queryer, id string, forUpdate bool) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p := &domain.Product{}
	if err := scanProduct(q.QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewProductError(domain.ErrProductNotFound, id, "")
		}
		return nil, err
	}

	return p, nil
}

func checkCategories(ctx context.Context, q queryer, ids []string) error {
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return nil
	}

	var found int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE id = ANY($1)
	`, pq.Array(ids)).Scan(&found)
	if err != nil {
		return fmt.Errorf("check categories: %w", err)
	}

	if found != len(ids) {
		return domain.ErrInvalidCategory
	}
	return nil
}

func linkCategories(ctx context.Context, q queryer, productID string, categoryIDs []string) error {
	for _, categoryID := range uniqueSorted(categoryIDs) {
		_, err := q.ExecContext(ctx, `
			INSERT INTO product_categories (product_id, category_id)
			VALUES ($1, $2)
		`, productID, categoryID)
		if err != nil {
			return fmt.Errorf("link category %s: %w", categoryID, err)
		}
	}
	return nil
}

// loadCategories fills Categories on every product with a single query.
func loadCategories(ctx context.Context, q queryer, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	index := make(map[string]int, len(products))
	ids := make([]string, len(products))
	for i := range products {
		products[i].Categories = []domain.Category{}
		index[products[i].ID] = i
		ids[i] = products[i].ID
	}

	rows, err := q.QueryContext(ctx, `
		SELECT pc.product_id, c.id, c.name, c.description
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY c.name
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var productID string
		var c domain.Category
		if err := rows.Scan(&productID, &c.ID, &c.Name, &c.Description); err != nil {
			return err
		}
		i := index[productID]
		products[i].Categories = append(products[i].Categories, c)
	}

	return rows.Err()
}

func uniqueSorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
