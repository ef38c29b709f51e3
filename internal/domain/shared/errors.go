package shared

// DomainError represents a domain-level error with a stable wire code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that carries the underlying cause.
// The cause is preserved for logging and errors.Is checks but is never
// serialized to clients.
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("not_found", "Resource not found")
	ErrInvalidInput = NewDomainError("invalid_input", "Invalid input provided")
	ErrInvalidState = NewDomainError("invalid_state", "Operation not allowed in current state")
	ErrUnauthorized = NewDomainError("unauthorized", "Not authorized to perform this action")
)
