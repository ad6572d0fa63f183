package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/credit"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
)

type creditRepository struct {
	db *database.DB
}

func NewCreditRepository(db *database.DB) credit.Repository {
	return &creditRepository{db: db}
}

func (r *creditRepository) GetOrCreateAccount(ctx context.Context, clubID, guardianID string) (credit.CreditAccount, error) {
	return r.getOrCreate(ctx, clubID, guardianID, false)
}

func (r *creditRepository) GetAccountForUpdate(ctx context.Context, clubID, guardianID string) (credit.CreditAccount, error) {
	return r.getOrCreate(ctx, clubID, guardianID, true)
}

func (r *creditRepository) getOrCreate(ctx context.Context, clubID, guardianID string, forUpdate bool) (credit.CreditAccount, error) {
	q := GetQuerier(ctx, r.db)

	// Insert first so the row exists to lock. ON CONFLICT keeps this safe
	// under concurrent first touches of the same guardian.
	insert := `
		INSERT INTO credit_accounts (club_id, guardian_id)
		VALUES ($1, $2)
		ON CONFLICT (club_id, guardian_id) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, clubID, guardianID); err != nil {
		return credit.CreditAccount{}, err
	}

	query := `
		SELECT id, club_id, guardian_id, created_at
		FROM credit_accounts
		WHERE club_id = $1 AND guardian_id = $2
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var acc credit.CreditAccount
	err := q.QueryRow(ctx, query, clubID, guardianID).Scan(
		&acc.ID, &acc.ClubID, &acc.GuardianID, &acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return credit.CreditAccount{}, credit.ErrCreditAccountNotFound
		}
		return credit.CreditAccount{}, err
	}
	return acc, nil
}

func (r *creditRepository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM credit_transactions
		WHERE account_id = $1
	`

	var balance decimal.Decimal
	err := q.QueryRow(ctx, query, accountID).Scan(&balance)
	return balance, err
}

func (r *creditRepository) Append(ctx context.Context, txn credit.CreditTransaction) (credit.CreditTransaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO credit_transactions (account_id, type, amount, invoice_id, reference)
		VALUES ($1, $2::credit_transaction_type, $3, $4, $5)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		txn.AccountID, string(txn.Type), txn.Amount, txn.InvoiceID, txn.Reference,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return credit.CreditTransaction{}, err
	}
	return txn, nil
}

func (r *creditRepository) ListTransactions(ctx context.Context, accountID string) ([]credit.CreditTransaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, account_id, type, amount, invoice_id, reference, created_at
		FROM credit_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := q.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []credit.CreditTransaction
	for rows.Next() {
		var t credit.CreditTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.InvoiceID, &t.Reference, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
