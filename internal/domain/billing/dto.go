package billing

import (
	"time"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the direct (non-bulk) creation request.
type CreateInvoiceRequest struct {
	GuardianID string  `json:"guardian_id"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	DueDate    *string `json:"due_date,omitempty"` // YYYY-MM-DD, defaults to the configured rule
}

func (r *CreateInvoiceRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.GuardianID) {
		errs = append(errs, validator.ValidationError{Field: "guardian_id", Message: "guardian_id is required"})
	}
	if !(BillingPeriod{Month: r.Month, Year: r.Year}).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "month must be 1-12 and year plausible"})
	}
	if r.DueDate != nil {
		if _, ok := validator.IsValidDate(*r.DueDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "due_date", Message: "due_date must be YYYY-MM-DD"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// BulkGenerateRequest asks for invoices for every billable guardian of a club.
type BulkGenerateRequest struct {
	Month  int  `json:"month"`
	Year   int  `json:"year"`
	DueDay *int `json:"due_day,omitempty"` // overrides the configured due-date rule
}

func (r *BulkGenerateRequest) Validate() error {
	var errs validator.ValidationErrors
	if !(BillingPeriod{Month: r.Month, Year: r.Year}).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "month must be 1-12 and year plausible"})
	}
	if r.DueDay != nil && (*r.DueDay < 1 || *r.DueDay > 31) {
		errs = append(errs, validator.ValidationError{Field: "due_day", Message: "due_day must be 1-31"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PaymentEvent is a confirmed payment from the gateway adapter.
type PaymentEvent struct {
	InvoiceID   string
	ExternalRef string
	Amount      decimal.Decimal
	Method      string
}

func (e *PaymentEvent) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(e.InvoiceID) {
		errs = append(errs, validator.ValidationError{Field: "invoice_id", Message: "invoice_id is required"})
	}
	if validator.IsEmpty(e.ExternalRef) {
		errs = append(errs, validator.ValidationError{Field: "external_ref", Message: "external reference is required"})
	}
	if !e.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "amount must be positive"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// InvoiceItemResponse mirrors one invoice line.
type InvoiceItemResponse struct {
	ChildID     string          `json:"child_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse is the API shape of an invoice. Status is the effective
// (overdue-aware) status at read time.
type InvoiceResponse struct {
	ID         string                `json:"id"`
	GuardianID string                `json:"guardian_id"`
	Month      int                   `json:"month"`
	Year       int                   `json:"year"`
	Items      []InvoiceItemResponse `json:"items,omitempty"`
	Subtotal   decimal.Decimal       `json:"subtotal"`
	Tax        decimal.Decimal       `json:"tax"`
	Total      decimal.Decimal       `json:"total"`
	PaidAmount decimal.Decimal       `json:"paid_amount"`
	Status     InvoiceStatus         `json:"status"`
	DueDate    string                `json:"due_date"`
	PaymentURL *string               `json:"payment_url,omitempty"`
	PaidAt     *string               `json:"paid_at,omitempty"`
	CreatedAt  string                `json:"created_at"`
}

// ToResponse derives the API shape at now.
func (i *Invoice) ToResponse(now time.Time) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(i.Items))
	for idx, it := range i.Items {
		items[idx] = InvoiceItemResponse{ChildID: it.ChildID, Description: it.Description, Amount: it.Amount}
	}

	var paidAt *string
	if i.PaidAt != nil {
		s := i.PaidAt.Format(time.RFC3339)
		paidAt = &s
	}

	return InvoiceResponse{
		ID:         i.ID,
		GuardianID: i.GuardianID,
		Month:      i.Month,
		Year:       i.Year,
		Items:      items,
		Subtotal:   i.Subtotal,
		Tax:        i.Tax,
		Total:      i.Total,
		PaidAmount: i.PaidAmount,
		Status:     i.EffectiveStatus(now),
		DueDate:    i.DueDate.Format("2006-01-02"),
		PaymentURL: i.GatewayIntentURL,
		PaidAt:     paidAt,
		CreatedAt:  i.CreatedAt.Format(time.RFC3339),
	}
}

// FeePreviewResponse is the resolver output for one child and period.
type FeePreviewResponse struct {
	ChildID string              `json:"child_id"`
	Month   int                 `json:"month"`
	Year    int                 `json:"year"`
	Lines   []LineItem          `json:"lines"`
	Total   decimal.Decimal     `json:"total"`
}
