package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not active")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status cannot change")
	ErrInvalidCategory   = errors.New("invalid category ids")
	ErrConflict          = errors.New("conflicting concurrent update")
	ErrInvalidInput      = errors.New("invalid input")
)

// Kind classifies a failure for the calling boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindInvalidState
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidCategory):
		return KindInvalidInput
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrCartNotFound), errors.Is(err, ErrCartItemNotFound):
		return KindNotFound
	case errors.Is(err, ErrProductInactive), errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidTransition):
		return KindInvalidState
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// ProductError is a rejection tied to one product of a request.
type ProductError struct {
	Err         error
	ProductID   string
	ProductName string
}

func (e *ProductError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInsufficientStock) && e.ProductName != "":
		return fmt.Sprintf("not enough stock for product %s", e.ProductName)
	case errors.Is(e.Err, ErrProductNotFound):
		return fmt.Sprintf("product %s not found", e.ProductID)
	case e.ProductName != "":
		return fmt.Sprintf("%s: %s", e.Err, e.ProductName)
	default:
		return fmt.Sprintf("%s: %s", e.Err, e.ProductID)
	}
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

func NewProductError(err error, productID, productName string) *ProductError {
	return &ProductError{Err: err, ProductID: productID, ProductName: productName}
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
