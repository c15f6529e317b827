package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// Rule is the set of checks a path applies before it commits to a quantity.
//
// Cart additions require an active product. Order placement does not: it only
// checks existence and stock, so a product deactivated after it was carted
// can still be ordered.
type Rule struct {
	RequireActive bool
}

var (
	CartRule  = Rule{RequireActive: true}
	OrderRule = Rule{RequireActive: false}
)

// Check evaluates p against the rule, in order: active flag, then stock.
// Callers resolve existence before calling.
func (r Rule) Check(p *domain.Product, quantity int) error {
	if r.RequireActive && !p.IsActive {
		return domain.NewProductError(domain.ErrProductInactive, p.ID, p.Name)
	}
	if quantity > p.Stock {
		return domain.NewProductError(domain.ErrInsufficientStock, p.ID, p.Name)
	}
	return nil
}

type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Guard answers whether a quantity of a product can be taken right now.
// It never writes.
type Guard struct {
	products ProductGetter
}

func NewGuard(products ProductGetter) *Guard {
	return &Guard{products: products}
}

func (g *Guard) CheckAvailability(ctx context.Context, productID string, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	p, err := g.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.NewProductError(domain.ErrProductNotFound, productID, "")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	if err := CartRule.Check(p, quantity); err != nil {
		return nil, err
	}

	return p, nil
}
