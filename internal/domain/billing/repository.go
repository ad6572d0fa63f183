package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice list reads. Nil fields are ignored.
type InvoiceFilter struct {
	Status     *InvoiceStatus
	Month      *int
	Year       *int
	GuardianID *string
	ChildID    *string
}

type InvoiceRepository interface {
	// Create persists the invoice together with its items. A violation of
	// the (club, guardian, month, year, non-cancelled) uniqueness constraint
	// is returned as ErrDuplicatePeriod.
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	GetByID(ctx context.Context, clubID, id string) (Invoice, error)
	// GetForUpdate locks the invoice row for the duration of the current
	// transaction. Reconciliation is a read-modify-write on paid_amount and
	// must be serialized per invoice.
	GetForUpdate(ctx context.Context, clubID, id string) (Invoice, error)
	ExistsForPeriod(ctx context.Context, clubID, guardianID string, month, year int) (bool, error)
	UpdateStatus(ctx context.Context, id string, status InvoiceStatus) error
	// UpdatePayment sets paid_amount and status (and paid_at when paid).
	UpdatePayment(ctx context.Context, id string, paidAmount decimal.Decimal, status InvoiceStatus, paidAt *time.Time) error
	SetGatewayIntent(ctx context.Context, id, intentID, intentURL string) error
	// LookupClub resolves the owning club of an invoice. Webhook ingestion
	// arrives without a tenant claim and only carries the invoice id.
	LookupClub(ctx context.Context, invoiceID string) (string, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, clubID string, f InvoiceFilter) ([]Invoice, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p Payment) (Payment, error)
	ExistsByExternalRef(ctx context.Context, clubID, externalRef string) (bool, error)
}

// FeeConfigRepository reads fee configuration authored elsewhere. This engine
// never mutates adjustments; one-time items only move pending -> billed when
// they land on an invoice.
type FeeConfigRepository interface {
	ListAdjustmentsByChild(ctx context.Context, childID string) ([]FeeAdjustment, error)
	ListPendingOneTimeItems(ctx context.Context, childID string, month, year int) ([]OneTimeItem, error)
	MarkOneTimeItemsBilled(ctx context.Context, ids []string) error
}

type AuditRepository interface {
	Record(ctx context.Context, rec AuditRecord) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]AuditRecord, error)
}

// TxManager runs fn inside one database transaction. Repositories called with
// the ctx passed to fn participate in that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentIntentRequest asks the gateway to host a payable invoice.
type PaymentIntentRequest struct {
	ExternalID  string
	Amount      decimal.Decimal
	PayerEmail  string
	Description string
	Duration    time.Duration
}

// PaymentIntent is the gateway's handle for an intent.
type PaymentIntent struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// Gateway is the external payment processor boundary. Calls are bounded by a
// timeout and failures surface as ErrGatewayUnavailable so callers can retry.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error)
	ExpirePaymentIntent(ctx context.Context, intentID string) error
}
