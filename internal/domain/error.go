package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBridgeUnavailable  = errors.New("host bridge unavailable")
	ErrPurchaseInProgress = errors.New("purchase already in progress")

	// Purchase flow
	ErrAlreadyUsedTrial      = errors.New("trial already used")
	ErrMissingIdentity       = errors.New("user identity is missing")
	ErrInvoiceCreationFailed = errors.New("invoice creation failed")
	ErrPaymentCancelled      = errors.New("payment cancelled")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrPaymentTimeout        = fmt.Errorf("payment confirmation timed out: %w", ErrPaymentFailed)
)

// DefaultInvoiceDetail is used when the invoice endpoint gives no detail of its own.
const DefaultInvoiceDetail = "could not create invoice"

// InvoiceError carries the invoice endpoint's detail message. Status is 0 for
// transport failures.
type InvoiceError struct {
	Status int
	Detail string
}

func (e *InvoiceError) Error() string {
	if e.Detail == "" {
		return DefaultInvoiceDetail
	}
	return e.Detail
}

func (e *InvoiceError) Unwrap() error { return ErrInvoiceCreationFailed }

// NewInvoiceError builds an InvoiceError, falling back to the generic detail.
func NewInvoiceError(status int, detail string) *InvoiceError {
	if detail == "" {
		detail = DefaultInvoiceDetail
	}
	return &InvoiceError{Status: status, Detail: detail}
}
