// Package httperr translates domain failures into HTTP responses.
package httperr

import (
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func Status(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Message is safe to return to clients: internal errors are not echoed.
func Message(err error) string {
	if domain.KindOf(err) == domain.KindInternal {
		return "internal server error"
	}
	return err.Error()
}
