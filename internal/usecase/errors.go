package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/cart"
	repo "storefront/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// カートの業務エラーをHTTPに変換
func cartError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cart.ErrInvalidQuantity):
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	case errors.Is(err, cart.ErrInvalidProduct):
		return NewHTTPError(http.StatusBadRequest, "invalid product")
	case errors.Is(err, cart.ErrStockExceeded):
		return NewHTTPError(http.StatusBadRequest, "stock exceeded")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// カタログのエラーをHTTPに変換
func catalogError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	default:
		return NewHTTPError(http.StatusBadGateway, "catalog unavailable")
	}
}
