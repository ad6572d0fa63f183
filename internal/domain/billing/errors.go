package billing

import "errors"

var (
	// Not found
	ErrInvoiceNotFound = errors.New("invoice not found")

	// Domain conflicts
	ErrDuplicatePeriod         = errors.New("a non-cancelled invoice already exists for this guardian and period")
	ErrNoBillableChildren      = errors.New("guardian has no active children to bill")
	ErrInvalidTransition       = errors.New("invalid invoice status transition")
	ErrInvoiceNotDeletable     = errors.New("invoice can only be deleted while pending and unpaid")
	ErrPaymentAlreadyProcessed = errors.New("payment with this external reference was already reconciled")

	// Validation
	ErrInvalidPeriod = errors.New("billing period must be a month between 1 and 12 and a plausible year")
	ErrInvalidAmount = errors.New("amount must be a positive value")

	// External dependency
	ErrGatewayUnavailable = errors.New("payment gateway request failed or timed out")
)
