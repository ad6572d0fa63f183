package credit

import "errors"

var (
	ErrInsufficientCredit       = errors.New("credit balance is lower than the amount to apply")
	ErrCreditAccountNotFound    = errors.New("credit account not found")
	ErrCreditExceedsOutstanding = errors.New("credit applied may not exceed the invoice's outstanding amount")
)
