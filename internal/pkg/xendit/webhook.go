package xendit

import (
	"strings"
)

// WebhookVerifier checks the x-callback-token header Xendit sends with every
// callback.
type WebhookVerifier struct {
	callbackToken string
}

func NewWebhookVerifier(callbackToken string) *WebhookVerifier {
	return &WebhookVerifier{callbackToken: callbackToken}
}

func (v *WebhookVerifier) VerifyToken(token string) bool {
	return strings.TrimSpace(token) == strings.TrimSpace(v.callbackToken)
}

// Callback statuses Xendit reports for hosted invoices.
const (
	CallbackStatusPaid    = "PAID"
	CallbackStatusSettled = "SETTLED"
	CallbackStatusExpired = "EXPIRED"
	CallbackStatusFailed  = "FAILED"
)

// InvoiceCallback is the payload of an invoice webhook. ExternalID carries
// our invoice id; PaymentID is the gateway's transaction reference used for
// reconciliation idempotency.
type InvoiceCallback struct {
	ID             string  `json:"id"`
	ExternalID     string  `json:"external_id"`
	Status         string  `json:"status"`
	Amount         float64 `json:"amount"`
	PaidAmount     float64 `json:"paid_amount"`
	PaymentID      string  `json:"payment_id"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentChannel string  `json:"payment_channel"`
	PaidAt         string  `json:"paid_at"`
	PayerEmail     string  `json:"payer_email"`
	Currency       string  `json:"currency"`
}

// Reference returns the idempotency reference for this callback. Xendit
// omits payment_id on some channels; the invoice id is stable per payment
// attempt and serves as fallback.
func (c *InvoiceCallback) Reference() string {
	if c.PaymentID != "" {
		return c.PaymentID
	}
	return c.ID
}
