package cart

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type Store interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	InsertItem(ctx context.Context, cartID, productID string, quantity int) (*domain.CartLineItem, error)
}

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, productID string, quantity int) (*domain.Product, error)
}

// Service adds items to carts. Adding never reserves or decrements stock;
// the check only guarantees the quantity was available at that moment.
type Service struct {
	carts   Store
	guard   AvailabilityChecker
	metrics *telemetry.StoreMetrics
}

func NewService(carts Store, guard AvailabilityChecker, metrics *telemetry.StoreMetrics) *Service {
	return &Service{
		carts:   carts,
		guard:   guard,
		metrics: metrics,
	}
}

func (s *Service) AddToCart(ctx context.Context, userID string, req domain.CartItemCreate) (*domain.CartLineItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	product, err := s.guard.CheckAvailability(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}

	item, err := s.carts.InsertItem(ctx, cart.ID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}
	item.Product = product

	s.metrics.CartItemAdded(ctx)

	return item, nil
}
