package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/response"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/xendit"
)

// WebhookHandler ingests payment gateway callbacks
type WebhookHandler interface {
	HandleXenditCallback(w http.ResponseWriter, r *http.Request)
}

type webhookHandlerImpl struct {
	reconcileService billing.ReconcileService
	invoiceRepo      billing.InvoiceRepository
	verifier         *xendit.WebhookVerifier
}

func NewWebhookHandler(
	reconcileService billing.ReconcileService,
	invoiceRepo billing.InvoiceRepository,
	verifier *xendit.WebhookVerifier,
) WebhookHandler {
	return &webhookHandlerImpl{
		reconcileService: reconcileService,
		invoiceRepo:      invoiceRepo,
		verifier:         verifier,
	}
}

// HandleXenditCallback processes an invoice callback from Xendit
// POST /api/v1/webhooks/xendit - Public, token-verified
func (h *webhookHandlerImpl) HandleXenditCallback(w http.ResponseWriter, r *http.Request) {
	if !h.verifier.VerifyToken(r.Header.Get("x-callback-token")) {
		response.Unauthorized(w, "invalid callback token")
		return
	}

	var payload xendit.InvoiceCallback
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.BadRequest(w, "invalid callback payload", nil)
		return
	}

	// ExternalID carries our invoice id; the callback has no tenant claim.
	clubID, err := h.invoiceRepo.LookupClub(r.Context(), payload.ExternalID)
	if err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			// Acknowledge so the gateway stops retrying an id we will
			// never know.
			log.Printf("Webhook: unknown invoice id %s", payload.ExternalID)
			response.Success(w, nil)
			return
		}
		response.HandleError(w, err)
		return
	}

	ev := billing.PaymentEvent{
		InvoiceID:   payload.ExternalID,
		ExternalRef: payload.Reference(),
		Amount:      decimal.NewFromFloat(payload.PaidAmount),
		Method:      payload.PaymentMethod,
	}
	if ev.Amount.IsZero() {
		ev.Amount = decimal.NewFromFloat(payload.Amount)
	}

	switch payload.Status {
	case xendit.CallbackStatusPaid, xendit.CallbackStatusSettled:
		inv, err := h.reconcileService.ProcessPayment(r.Context(), clubID, ev)
		if err != nil {
			if errors.Is(err, billing.ErrPaymentAlreadyProcessed) {
				// Duplicate delivery; acknowledge without reapplying.
				response.Success(w, nil)
				return
			}
			response.HandleError(w, err)
			return
		}
		response.Success(w, inv)

	case xendit.CallbackStatusExpired, xendit.CallbackStatusFailed:
		if err := h.reconcileService.RecordFailure(r.Context(), clubID, ev); err != nil && !errors.Is(err, billing.ErrPaymentAlreadyProcessed) {
			response.HandleError(w, err)
			return
		}
		response.Success(w, nil)

	default:
		log.Printf("Webhook: unhandled status %s for invoice %s", payload.Status, payload.ExternalID)
		response.Success(w, nil)
	}
}
