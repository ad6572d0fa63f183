package credit

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	GetOrCreateAccount(ctx context.Context, clubID, guardianID string) (CreditAccount, error)
	// GetAccountForUpdate locks the account row for the current transaction,
	// creating it first if necessary. The lock serializes balance
	// check-then-apply so concurrent applications cannot overdraw.
	GetAccountForUpdate(ctx context.Context, clubID, guardianID string) (CreditAccount, error)
	// Balance sums the signed transactions inside the current snapshot.
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	Append(ctx context.Context, txn CreditTransaction) (CreditTransaction, error)
	ListTransactions(ctx context.Context, accountID string) ([]CreditTransaction, error)
}

type Service interface {
	// Apply spends stored credit against an invoice: one APPLICATION
	// transaction plus the matching paid_amount increase, atomically.
	Apply(ctx context.Context, clubID, guardianID, invoiceID string, amount decimal.Decimal, actor string) error
	// Deposit adds credit (overpayment remainder or manual adjustment).
	Deposit(ctx context.Context, clubID, guardianID string, amount decimal.Decimal, reference string, invoiceID *string) error
	Balance(ctx context.Context, clubID, guardianID string) (decimal.Decimal, error)
	History(ctx context.Context, clubID, guardianID string) ([]CreditTransaction, error)
}
