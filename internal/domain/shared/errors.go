package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is works against the sentinel instances below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy of the error carrying structured context
// (line index, box id, variant id, amounts) for the caller to surface.
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithMessagef returns a copy of the error with a formatted message,
// keeping the code so errors.Is still matches the sentinel.
func (e *DomainError) WithMessagef(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Details: e.Details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrValidation            = NewDomainError("VALIDATION_FAILED", "Invalid input provided")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock     = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInsufficientBalance   = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient balance available")
	ErrNoDefaultCashBox      = NewDomainError("NO_DEFAULT_CASH_BOX", "No default cash box for holder in company")
	ErrConsistencyConflict   = NewDomainError("CONSISTENCY_CONFLICT", "Resource was modified by another process, retry the operation")
	ErrReconciliationFailure = NewDomainError("RECONCILIATION_FAILURE", "Derived aggregate could not be reconciled")
)
