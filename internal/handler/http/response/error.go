package response

import (
	"errors"
	"net/http"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/club"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/credit"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Validation
	case errors.Is(err, billing.ErrInvalidPeriod),
		errors.Is(err, billing.ErrInvalidAmount),
		errors.Is(err, billing.ErrNoBillableChildren):
		BadRequest(w, err.Error(), nil)

	// Domain conflicts
	case errors.Is(err, billing.ErrDuplicatePeriod):
		Conflict(w, "An invoice already exists for this guardian and period")
	case errors.Is(err, billing.ErrInvalidTransition):
		Conflict(w, "Invoice status does not allow this operation")
	case errors.Is(err, billing.ErrInvoiceNotDeletable):
		Conflict(w, "Only pending, unpaid invoices can be deleted")
	case errors.Is(err, billing.ErrPaymentAlreadyProcessed):
		Conflict(w, "This payment was already processed")
	case errors.Is(err, credit.ErrInsufficientCredit):
		Conflict(w, "Insufficient credit balance")
	case errors.Is(err, credit.ErrCreditExceedsOutstanding):
		Conflict(w, "Credit applied may not exceed the outstanding amount")

	// Not found
	case errors.Is(err, billing.ErrInvoiceNotFound):
		NotFound(w, "Invoice not found")
	case errors.Is(err, member.ErrGuardianNotFound):
		NotFound(w, "Guardian not found")
	case errors.Is(err, member.ErrChildNotFound):
		NotFound(w, "Child not found")
	case errors.Is(err, club.ErrClubNotFound):
		NotFound(w, "Club not found")
	case errors.Is(err, credit.ErrCreditAccountNotFound):
		NotFound(w, "Credit account not found")

	// External dependency
	case errors.Is(err, billing.ErrGatewayUnavailable):
		ServiceUnavailable(w, "Payment gateway is unavailable, try again later")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
