package billing

import "context"

// FeeResolver computes the billable line items for one child and period.
// Output is deterministic: same inputs and fee data yield the same ordered
// lines and amounts.
type FeeResolver interface {
	Resolve(ctx context.Context, childID string, period BillingPeriod) ([]LineItem, error)
}

type InvoiceService interface {
	Create(ctx context.Context, clubID, actor string, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetByID(ctx context.Context, clubID, invoiceID string) (InvoiceResponse, error)
	List(ctx context.Context, clubID string, f InvoiceFilter) ([]InvoiceResponse, error)
	Cancel(ctx context.Context, clubID, invoiceID, actor string) error
	Delete(ctx context.Context, clubID, invoiceID, actor string) error
	// MarkPaid is the administrative override for cash/manual reconciliation:
	// paid_amount is forced to total and status to paid, bypassing the
	// payment ledger but still audited.
	MarkPaid(ctx context.Context, clubID, invoiceID, actor string) (InvoiceResponse, error)
	Preview(ctx context.Context, clubID, childID string, period BillingPeriod) (FeePreviewResponse, error)
}

type BulkService interface {
	Generate(ctx context.Context, clubID, actor string, req BulkGenerateRequest) (BatchReport, error)
}

type ReconcileService interface {
	// ProcessPayment applies a confirmed payment to its invoice,
	// depositing any overpayment into the guardian's credit account.
	ProcessPayment(ctx context.Context, clubID string, ev PaymentEvent) (InvoiceResponse, error)
	// RecordFailure records a failed gateway payment without touching the
	// invoice.
	RecordFailure(ctx context.Context, clubID string, ev PaymentEvent) error
}
