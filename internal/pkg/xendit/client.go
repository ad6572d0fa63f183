// Package xendit adapts the official Xendit SDK to the billing gateway
// boundary.
package xendit

import (
	"context"
	"fmt"
	"time"

	xenditSDK "github.com/xendit/xendit-go/v7"
	"github.com/xendit/xendit-go/v7/invoice"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/config"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
)

const requestTimeout = 15 * time.Second

// Client implements billing.Gateway on top of the official Xendit SDK.
type Client struct {
	invoiceAPI invoice.InvoiceApi
	currency   string
	successURL string
	failureURL string
}

func NewClient(cfg config.XenditConfig, currency string) *Client {
	sdk := xenditSDK.NewClient(cfg.APIKey)
	return &Client{
		invoiceAPI: sdk.InvoiceApi,
		currency:   currency,
		successURL: cfg.SuccessURL,
		failureURL: cfg.FailureURL,
	}
}

// CreatePaymentIntent creates a hosted Xendit invoice for the amount due.
// The call is bounded by a timeout; any SDK failure surfaces as
// ErrGatewayUnavailable so the caller can retry later.
func (c *Client) CreatePaymentIntent(ctx context.Context, req billing.PaymentIntentRequest) (billing.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	amount, _ := req.Amount.Float64()
	sdkReq := *invoice.NewCreateInvoiceRequest(req.ExternalID, amount)
	sdkReq.SetCurrency(c.currency)
	if req.PayerEmail != "" {
		sdkReq.SetPayerEmail(req.PayerEmail)
	}
	if req.Description != "" {
		sdkReq.SetDescription(req.Description)
	}
	if req.Duration > 0 {
		sdkReq.SetInvoiceDuration(float32(req.Duration / time.Second))
	}
	if c.successURL != "" {
		sdkReq.SetSuccessRedirectUrl(c.successURL)
	}
	if c.failureURL != "" {
		sdkReq.SetFailureRedirectUrl(c.failureURL)
	}

	resp, _, err := c.invoiceAPI.CreateInvoice(ctx).
		CreateInvoiceRequest(sdkReq).
		Execute()
	if err != nil {
		return billing.PaymentIntent{}, fmt.Errorf("create xendit invoice: %w: %v", billing.ErrGatewayUnavailable, err)
	}

	return billing.PaymentIntent{
		ID:        resp.GetId(),
		URL:       resp.GetInvoiceUrl(),
		ExpiresAt: resp.GetExpiryDate(),
	}, nil
}

// ExpirePaymentIntent expires a hosted invoice, e.g. after cancellation.
func (c *Client) ExpirePaymentIntent(ctx context.Context, intentID string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	_, _, err := c.invoiceAPI.ExpireInvoice(ctx, intentID).Execute()
	if err != nil {
		return fmt.Errorf("expire xendit invoice: %w: %v", billing.ErrGatewayUnavailable, err)
	}
	return nil
}
