package billing

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrServiceNotFound = fmt.Errorf("service %w", ErrNotFound)
	ErrInvoiceNotFound = fmt.Errorf("invoice %w", ErrNotFound)

	// ErrInvoiceExists guards the one-invoice-per-booking rule.
	ErrInvoiceExists = errors.New("an invoice already exists for this booking")

	ErrInvoiceCancelled  = errors.New("invoice is cancelled")
	ErrInvalidTransition = errors.New("invoice status cannot be changed")

	// ErrConcurrentUpdate is returned when the invoice kept changing under the writer.
	ErrConcurrentUpdate = errors.New("invoice is being updated by another request, try again")

	ErrUnauthorized = errors.New("unauthorized")
	ErrPersistence  = errors.New("storage unavailable")
)

// ValidationError carries a caller-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
