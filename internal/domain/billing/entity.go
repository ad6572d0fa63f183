package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the stored status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// AdjustmentType classifies a fee adjustment. Permanent and schedule changes
// redefine the base fee, discounts and scholarships reduce it, temporary
// changes apply last.
type AdjustmentType string

const (
	AdjustmentPermanentChange AdjustmentType = "permanent_change"
	AdjustmentScheduleChange  AdjustmentType = "schedule_change"
	AdjustmentDiscount        AdjustmentType = "discount"
	AdjustmentScholarship     AdjustmentType = "scholarship"
	AdjustmentTemporaryChange AdjustmentType = "temporary_change"
)

// OneTimeCategory classifies a non-recurring charge
type OneTimeCategory string

const (
	OneTimeCompetitionFee OneTimeCategory = "competition_fee"
	OneTimeEquipment      OneTimeCategory = "equipment"
	OneTimeRegistration   OneTimeCategory = "registration"
	OneTimePrivateLesson  OneTimeCategory = "private_lesson"
	OneTimeOther          OneTimeCategory = "other"
)

// OneTimeItemStatus represents the lifecycle of a one-time charge
type OneTimeItemStatus string

const (
	OneTimeStatusPending   OneTimeItemStatus = "pending"
	OneTimeStatusBilled    OneTimeItemStatus = "billed"
	OneTimeStatusPaid      OneTimeItemStatus = "paid"
	OneTimeStatusCancelled OneTimeItemStatus = "cancelled"
)

// PaymentStatus represents the status of a payment event
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// BillingPeriod identifies one invoicing cycle.
type BillingPeriod struct {
	Month int `json:"month"` // 1-12
	Year  int `json:"year"`
}

// Start returns midnight UTC on the first day of the period.
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns midnight UTC on the last day of the period.
func (p BillingPeriod) End() time.Time {
	return time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the period.
func (p BillingPeriod) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

func (p BillingPeriod) IsValid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000 && p.Year <= 2200
}

// DueDateRule derives an invoice due date from a billing period.
// Day is clamped to the last day of the month (a rule of 31 in February
// yields the 28th/29th).
type DueDateRule struct {
	Day int
}

func (r DueDateRule) Apply(p BillingPeriod) time.Time {
	last := p.End().Day()
	day := r.Day
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC)
}

// FeeAdjustment modifies one child's fee. Amount is signed; for discounts and
// scholarships the magnitude is what gets subtracted. A recurring adjustment
// applies to every period inside its validity window, a non-recurring one
// only to the period its EffectiveFrom falls in.
type FeeAdjustment struct {
	ID          string         `json:"id"`
	ClubID      string         `json:"club_id"`
	ChildID     string         `json:"child_id"`
	Type        AdjustmentType `json:"type"`
	Description string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	EffectiveFrom time.Time    `json:"effective_from"`
	EffectiveTo   *time.Time   `json:"effective_to,omitempty"`
	Recurring     bool         `json:"recurring"`
	CreatedAt     time.Time    `json:"created_at"`
}

// WindowValid reports whether the validity window is well formed.
// A window that ends before it starts is a data error, not a fatal one.
func (a *FeeAdjustment) WindowValid() bool {
	return a.EffectiveTo == nil || !a.EffectiveTo.Before(a.EffectiveFrom)
}

// AppliesTo reports whether the adjustment is in force for the period.
func (a *FeeAdjustment) AppliesTo(p BillingPeriod) bool {
	if !a.WindowValid() {
		return false
	}
	if a.Recurring {
		if a.EffectiveFrom.After(p.Start()) {
			return false
		}
		return a.EffectiveTo == nil || !a.EffectiveTo.Before(p.End())
	}
	return p.Contains(a.EffectiveFrom)
}

// OneTimeItem is a non-recurring charge tied to a child. It becomes an
// invoice line only while pending and only for its target period.
type OneTimeItem struct {
	ID          string            `json:"id"`
	ClubID      string            `json:"club_id"`
	ChildID     string            `json:"child_id"`
	Category    OneTimeCategory   `json:"category"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Month       int               `json:"month"`
	Year        int               `json:"year"`
	Status      OneTimeItemStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// LineItem is one resolved fee line for a child. The fee resolver output is
// an ordered list of these, reused verbatim for previews and invoices.
type LineItem struct {
	ChildID     string          `json:"child_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	// OneTimeItemID is set when the line bills a one-time item, so invoice
	// creation can mark the item billed in the same transaction.
	OneTimeItemID *string `json:"one_time_item_id,omitempty"`
}

// InvoiceItem is one persisted invoice line. Items are immutable once the
// invoice is created; corrections go through adjustments on a later period.
type InvoiceItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	ChildID     string          `json:"child_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Position    int             `json:"position"`
}

// Invoice bills one guardian for one period. At most one non-cancelled
// invoice may exist per (club, guardian, month, year); that uniqueness is the
// idempotency invariant bulk generation relies on.
type Invoice struct {
	ID         string          `json:"id"`
	ClubID     string          `json:"club_id"`
	GuardianID string          `json:"guardian_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Items      []InvoiceItem   `json:"items,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     InvoiceStatus   `json:"status"`
	DueDate    time.Time       `json:"due_date"`
	// Gateway payment intent, when one was created
	GatewayIntentID  *string    `json:"gateway_intent_id,omitempty"`
	GatewayIntentURL *string    `json:"gateway_intent_url,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Outstanding returns total minus paid, never negative.
func (i *Invoice) Outstanding() decimal.Decimal {
	due := i.Total.Sub(i.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Period returns the invoice's billing period.
func (i *Invoice) Period() BillingPeriod {
	return BillingPeriod{Month: i.Month, Year: i.Year}
}

// EffectiveStatus derives the externally visible status. Overdue is a view,
// not a stored transition: a pending invoice past its due date reads as
// overdue without any background clock touching the row. Write paths that
// guard on status must call this rather than trust the stored value.
func EffectiveStatus(status InvoiceStatus, dueDate time.Time, now time.Time) InvoiceStatus {
	if status == InvoiceStatusPending && now.After(dueDate) {
		return InvoiceStatusOverdue
	}
	return status
}

// EffectiveStatus derives the invoice's visible status at now.
func (i *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	return EffectiveStatus(i.Status, i.DueDate, now)
}

// IsDeletable reports whether the invoice may be hard-removed: only while
// pending and untouched by money.
func (i *Invoice) IsDeletable(now time.Time) bool {
	return i.EffectiveStatus(now) == InvoiceStatusPending && i.PaidAmount.IsZero()
}

// Payment is a monetary event against one invoice. ExternalRef is the
// gateway's transaction reference and is unique per club; it is the
// idempotency guard against duplicate webhook delivery.
type Payment struct {
	ID          string          `json:"id"`
	ClubID      string          `json:"club_id"`
	InvoiceID   string          `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Status      PaymentStatus   `json:"status"`
	ExternalRef string          `json:"external_ref"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuditRecord captures one invoice status transition.
type AuditRecord struct {
	ID         string        `json:"id"`
	InvoiceID  string        `json:"invoice_id"`
	Actor      string        `json:"actor"`
	PrevStatus InvoiceStatus `json:"prev_status"`
	NextStatus InvoiceStatus `json:"next_status"`
	Note       string        `json:"note,omitempty"`
	At         time.Time     `json:"at"`
}

// BatchResult is one guardian's outcome inside a bulk-generation run.
type BatchResult struct {
	GuardianID string  `json:"guardian_id"`
	Success    bool    `json:"success"`
	Skipped    bool    `json:"skipped"`
	InvoiceID  *string `json:"invoice_id,omitempty"`
	Error      *string `json:"error,omitempty"`
}

// BatchReport summarises a bulk-generation run. A guardian whose period
// invoice already exists counts as skipped, not failed; failures never abort
// the batch.
type BatchReport struct {
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Results    []BatchResult `json:"results"`
}
