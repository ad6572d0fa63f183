package credit

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a credit ledger entry
type TransactionType string

const (
	// TransactionDeposit adds credit, typically from an overpayment.
	TransactionDeposit TransactionType = "deposit"
	// TransactionApplication spends credit against an invoice.
	TransactionApplication TransactionType = "application"
	// TransactionAdjustment is a manual correction by an administrator.
	TransactionAdjustment TransactionType = "adjustment"
)

// CreditAccount is the per-(club, guardian) stored-credit account. The
// balance is never stored as a counter; it is always the sum of the signed
// transactions, which keeps the ledger auditable.
type CreditAccount struct {
	ID         string    `json:"id"`
	ClubID     string    `json:"club_id"`
	GuardianID string    `json:"guardian_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreditTransaction is one immutable ledger entry. Amount is signed: deposits
// are positive, applications negative.
type CreditTransaction struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	InvoiceID *string         `json:"invoice_id,omitempty"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
