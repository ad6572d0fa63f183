package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	creditdomain "github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/credit"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/fixtures"
	creditsvc "github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/credit"
)

type reconcileEnv struct {
	svc      billing.ReconcileService
	credits  creditdomain.Service
	invoices *fixtures.InvoiceRepo
	payments *fixtures.PaymentRepo
}

func newReconcileEnv(t *testing.T) *reconcileEnv {
	t.Helper()

	invoices := fixtures.NewInvoiceRepo()
	payments := fixtures.NewPaymentRepo()
	audit := fixtures.NewAuditRepo()
	credits := creditsvc.NewCreditService(fixtures.NewCreditRepo(), invoices, audit, fixtures.TxManager{})

	return &reconcileEnv{
		svc:      NewReconcileService(invoices, payments, audit, credits, fixtures.TxManager{}),
		credits:  credits,
		invoices: invoices,
		payments: payments,
	}
}

func (e *reconcileEnv) seedInvoice(t *testing.T, total string) billing.Invoice {
	t.Helper()
	amount := decimal.RequireFromString(total)
	inv, err := e.invoices.Create(context.Background(), billing.Invoice{
		ClubID:     "club-1",
		GuardianID: "g-1",
		Month:      6,
		Year:       2026,
		Subtotal:   amount,
		Tax:        decimal.Zero,
		Total:      amount,
		PaidAmount: decimal.Zero,
		Status:     billing.InvoiceStatusPending,
		DueDate:    time.Now().AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	return inv
}

func event(invoiceID, ref, amount string) billing.PaymentEvent {
	return billing.PaymentEvent{
		InvoiceID:   invoiceID,
		ExternalRef: ref,
		Amount:      decimal.RequireFromString(amount),
		Method:      "card",
	}
}

func TestProcessPaymentExactAmount(t *testing.T) {
	t.Parallel()
	env := newReconcileEnv(t)
	inv := env.seedInvoice(t, "500")

	resp, err := env.svc.ProcessPayment(context.Background(), "club-1", event(inv.ID, "ref-1", "500"))
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, resp.Status)
	assert.True(t, resp.PaidAmount.Equal(decimal.RequireFromString("500")))
	require.NotNil(t, resp.PaidAt)
}

func TestProcessPaymentPartialLeavesPending(t *testing.T) {
	t.Parallel()
	env := newReconcileEnv(t)
	inv := env.seedInvoice(t, "500")

	resp, err := env.svc.ProcessPayment(context.Background(), "club-1", event(inv.ID, "ref-1", "200"))
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPending, resp.Status)
	assert.True(t, resp.PaidAmount.Equal(decimal.RequireFromString("200")))

	// A second partial payment tops it up to paid.
	resp, err = env.svc.ProcessPayment(context.Background(), "club-1", event(inv.ID, "ref-2", "300"))
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, resp.Status)
}

func TestProcessPaymentOverpaymentBecomesCredit(t *testing.T) {
	t.Parallel()
	env := newReconcileEnv(t)
	inv := env.seedInvoice(t, "500")

	resp, err := env.svc.ProcessPayment(context.Background(), "club-1", event(inv.ID, "ref-1", "700"))
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, resp.Status)
	assert.True(t, resp.PaidAmount.Equal(decimal.RequireFromString("500")))

	balance, err := env.credits.Balance(context.Background(), "club-1", "g-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("200")), balance.String())

	history, err := env.credits.History(context.Background(), "club-1", "g-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, creditdomain.TransactionDeposit, history[0].Type)
}

func TestProcessPaymentDuplicateReference(t *testing.T) {
	t.Parallel()
	env := newReconcileEnv(t)
	inv := env.seedInvoice(t, "500")

	_, err := env.svc.ProcessPayment(context.Background(), "club-1", event(inv.ID, "ref-1", "200"))
	require.NoError(t, err)

	_, err = env.svc.ProcessPayment(context.Background(), "club-1", event(inv.ID, "ref-1", "200"))
	assert.ErrorIs(t, err, billing.ErrPaymentAlreadyProcessed)

	// The duplicate delivery did not double-apply.
	stored, err := env.invoices.GetByID(context.Background(), "club-1", inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(decimal.RequireFromString("200")))
}

func TestProcessPaymentUnknownInvoice(t *testing.T) {
	t.Parallel()
	env := newReconcileEnv(t)

	_, err := env.svc.ProcessPayment(context.Background(), "club-1", event("missing", "ref-1", "100"))
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
}

func TestProcessPaymentCancelledInvoice(t *testing.T) {
	t.Parallel()
	env := newReconcileEnv(t)
	inv := env.seedInvoice(t, "500")
	require.NoError(t, env.invoices.UpdateStatus(context.Background(), inv.ID, billing.InvoiceStatusCancelled))

	_, err := env.svc.ProcessPayment(context.Background(), "club-1", event(inv.ID, "ref-1", "100"))
	assert.ErrorIs(t, err, billing.ErrInvalidTransition)
}

func TestRecordFailureLeavesInvoiceUntouched(t *testing.T) {
	t.Parallel()
	env := newReconcileEnv(t)
	inv := env.seedInvoice(t, "500")

	require.NoError(t, env.svc.RecordFailure(context.Background(), "club-1", event(inv.ID, "ref-1", "500")))

	stored, err := env.invoices.GetByID(context.Background(), "club-1", inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.Equal(t, billing.InvoiceStatusPending, stored.Status)

	require.Len(t, env.payments.Payments, 1)
	assert.Equal(t, billing.PaymentStatusFailed, env.payments.Payments[0].Status)
}
