package dto

import (
	"net/http"

	"github.com/dinecart/backend/internal/domain/cart"
)

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "internal_error"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "bad_request"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "unauthorized"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "not_found"
)

// ErrorCodeHTTPStatus maps wire error codes to HTTP status codes. The cart
// codes are stable: clients match on them, so cart_not_found must stay a
// 404 (it drives stale-cart recovery) and the terminal checkout codes must
// stay 400s.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,

	cart.CodeUserIDRequired: http.StatusBadRequest,
	cart.CodeCartNotFound:   http.StatusNotFound,
	cart.CodeCartEmpty:      http.StatusBadRequest,
	cart.CodeCartNotOpen:    http.StatusBadRequest,

	cart.CodeCartCreateFailed:     http.StatusInternalServerError,
	cart.CodeItemsSetFailed:       http.StatusInternalServerError,
	cart.CodeItemsIncrementFailed: http.StatusInternalServerError,
	cart.CodeItemsRemoveFailed:    http.StatusInternalServerError,
	cart.CodeItemsListFailed:      http.StatusInternalServerError,
	cart.CodeStatusUpdateFailed:   http.StatusInternalServerError,
	cart.CodeOrderCreateFailed:    http.StatusInternalServerError,

	"invalid_tenant":    http.StatusBadRequest,
	"invalid_menu_item": http.StatusBadRequest,
	"invalid_price":     http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status for a wire error code, defaulting
// to 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
