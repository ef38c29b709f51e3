package cart

import "github.com/dinecart/backend/internal/domain/shared"

// Wire error codes for the cart engine. These are stable: clients match on
// them for stale-cart recovery and terminal checkout handling.
const (
	CodeUserIDRequired       = "user_id_required"
	CodeCartNotFound         = "cart_not_found"
	CodeCartCreateFailed     = "cart_create_failed"
	CodeItemsSetFailed       = "cart_items_set_failed"
	CodeItemsIncrementFailed = "cart_items_increment_failed"
	CodeItemsRemoveFailed    = "cart_items_remove_failed"
	CodeItemsListFailed      = "cart_items_list_failed"
	CodeStatusUpdateFailed   = "cart_status_update_failed"
	CodeCartEmpty            = "cart_empty"
	CodeCartNotOpen          = "cart_not_open"
	CodeOrderCreateFailed    = "order_create_failed"
)

var (
	// ErrUserIDRequired means no explicit actor and no table code to derive one from
	ErrUserIDRequired = shared.NewDomainError(CodeUserIDRequired, "A user ID or table code is required")

	// ErrCartNotFound is recoverable: clients treat it as a stale-cart signal,
	// not a user-facing error.
	ErrCartNotFound = shared.NewDomainError(CodeCartNotFound, "Cart not found")

	// ErrCartEmpty is terminal for checkout
	ErrCartEmpty = shared.NewDomainError(CodeCartEmpty, "Cart has no items")

	// ErrCartNotOpen is terminal for checkout
	ErrCartNotOpen = shared.NewDomainError(CodeCartNotOpen, "Cart is not open")
)

// NewCreateFailed wraps a storage failure during cart creation
func NewCreateFailed(cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeCartCreateFailed, "Failed to create cart", cause)
}

// NewSetItemsFailed wraps a storage failure during an absolute item set
func NewSetItemsFailed(cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeItemsSetFailed, "Failed to set cart items", cause)
}

// NewIncrementItemsFailed wraps a storage failure during a batched increment
func NewIncrementItemsFailed(cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeItemsIncrementFailed, "Failed to increment cart items", cause)
}

// NewRemoveItemsFailed wraps a storage failure during item removal
func NewRemoveItemsFailed(cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeItemsRemoveFailed, "Failed to remove cart items", cause)
}

// NewListItemsFailed wraps a storage failure while reading items
func NewListItemsFailed(cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeItemsListFailed, "Failed to list cart items", cause)
}

// NewStatusUpdateFailed wraps a storage failure during a status transition
func NewStatusUpdateFailed(cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeStatusUpdateFailed, "Failed to update cart status", cause)
}

// NewOrderCreateFailed wraps a failure from the order creation collaborator
func NewOrderCreateFailed(cause error) *shared.DomainError {
	return shared.WrapDomainError(CodeOrderCreateFailed, "Failed to create order", cause)
}
