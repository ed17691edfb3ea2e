package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service-level taxonomy. Handlers map these to
// HTTP statuses in exactly one place.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not authorized")
	ErrEmptyCart         = errors.New("cart has no items")
	ErrAlreadyPaid       = errors.New("order has already been paid")
	ErrAlreadyDelivered  = errors.New("order has already been delivered")
	ErrNotPaid           = errors.New("order has not been paid")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrProviderLookup    = errors.New("payment provider lookup failed")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidation builds a ValidationError.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StockError reports an insufficient-stock rejection with enough detail
// for the buyer to act on.
type StockError struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

// NewStock builds a StockError.
func NewStock(productID, name string, requested, available int) *StockError {
	return &StockError{ProductID: productID, Name: name, Requested: requested, Available: available}
}

// IsStock reports whether err is a StockError.
func IsStock(err error) bool {
	var se *StockError
	return errors.As(err, &se)
}
