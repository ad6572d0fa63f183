package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
)

type invoiceRepository struct {
	db *database.DB
}

func NewInvoiceRepository(db *database.DB) billing.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, club_id, guardian_id, month, year, subtotal, tax, total, paid_amount,
	   status, due_date, gateway_intent_id, gateway_intent_url, paid_at, created_at, updated_at`

func (r *invoiceRepository) Create(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO invoices (club_id, guardian_id, month, year, subtotal, tax, total, paid_amount, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::invoice_status, $10)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		inv.ClubID, inv.GuardianID, inv.Month, inv.Year,
		inv.Subtotal, inv.Tax, inv.Total, inv.PaidAmount, string(inv.Status), inv.DueDate,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return billing.Invoice{}, billing.ErrDuplicatePeriod
		}
		return billing.Invoice{}, err
	}

	itemQuery := `
		INSERT INTO invoice_items (invoice_id, child_id, description, amount, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for i := range inv.Items {
		item := &inv.Items[i]
		item.InvoiceID = inv.ID
		if err := q.QueryRow(ctx, itemQuery,
			inv.ID, item.ChildID, item.Description, item.Amount, item.Position,
		).Scan(&item.ID); err != nil {
			return billing.Invoice{}, fmt.Errorf("insert invoice item: %w", err)
		}
	}

	return inv, nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, clubID, id string) (billing.Invoice, error) {
	return r.get(ctx, clubID, id, false)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, clubID, id string) (billing.Invoice, error) {
	return r.get(ctx, clubID, id, true)
}

func (r *invoiceRepository) get(ctx context.Context, clubID, id string, forUpdate bool) (billing.Invoice, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices
		WHERE id = $1 AND club_id = $2
	`, invoiceColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	var inv billing.Invoice
	err := q.QueryRow(ctx, query, id, clubID).Scan(
		&inv.ID, &inv.ClubID, &inv.GuardianID, &inv.Month, &inv.Year,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.PaidAmount,
		&inv.Status, &inv.DueDate, &inv.GatewayIntentID, &inv.GatewayIntentURL,
		&inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.Invoice{}, billing.ErrInvoiceNotFound
		}
		return billing.Invoice{}, err
	}

	items, err := r.listItems(ctx, inv.ID)
	if err != nil {
		return billing.Invoice{}, err
	}
	inv.Items = items
	return inv, nil
}

func (r *invoiceRepository) listItems(ctx context.Context, invoiceID string) ([]billing.InvoiceItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, invoice_id, child_id, description, amount, position
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position
	`

	rows, err := q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []billing.InvoiceItem
	for rows.Next() {
		var it billing.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ChildID, &it.Description, &it.Amount, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *invoiceRepository) ExistsForPeriod(ctx context.Context, clubID, guardianID string, month, year int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE club_id = $1 AND guardian_id = $2 AND month = $3 AND year = $4
			  AND status <> 'cancelled'
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, clubID, guardianID, month, year).Scan(&exists)
	return exists, err
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id string, status billing.InvoiceStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE invoices SET status = $2::invoice_status, updated_at = NOW() WHERE id = $1`
	tag, err := q.Exec(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepository) UpdatePayment(ctx context.Context, id string, paidAmount decimal.Decimal, status billing.InvoiceStatus, paidAt *time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE invoices
		SET paid_amount = $2, status = $3::invoice_status, paid_at = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id, paidAmount, string(status), paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepository) SetGatewayIntent(ctx context.Context, id, intentID, intentURL string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE invoices
		SET gateway_intent_id = $2, gateway_intent_url = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := q.Exec(ctx, query, id, intentID, intentURL)
	return err
}

func (r *invoiceRepository) LookupClub(ctx context.Context, invoiceID string) (string, error) {
	q := GetQuerier(ctx, r.db)

	var clubID string
	err := q.QueryRow(ctx, `SELECT club_id FROM invoices WHERE id = $1`, invoiceID).Scan(&clubID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", billing.ErrInvoiceNotFound
		}
		return "", err
	}
	return clubID, nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	// invoice_items rows go with the invoice via ON DELETE CASCADE
	query := `DELETE FROM invoices WHERE id = $1`
	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, clubID string, f billing.InvoiceFilter) ([]billing.Invoice, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE club_id = $1`, invoiceColumns)
	args := []interface{}{clubID}

	if f.Status != nil {
		// The stored column never reads 'overdue'; it is derived from a
		// pending invoice past its due date. Translate the filter the same
		// way EffectiveStatus does so both views of pending stay disjoint.
		switch *f.Status {
		case billing.InvoiceStatusOverdue:
			query += " AND status = 'pending'::invoice_status AND due_date < NOW()"
		case billing.InvoiceStatusPending:
			query += " AND status = 'pending'::invoice_status AND due_date >= NOW()"
		default:
			args = append(args, string(*f.Status))
			query += fmt.Sprintf(" AND status = $%d::invoice_status", len(args))
		}
	}
	if f.Month != nil {
		args = append(args, *f.Month)
		query += fmt.Sprintf(" AND month = $%d", len(args))
	}
	if f.Year != nil {
		args = append(args, *f.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if f.GuardianID != nil {
		args = append(args, *f.GuardianID)
		query += fmt.Sprintf(" AND guardian_id = $%d", len(args))
	}
	if f.ChildID != nil {
		args = append(args, *f.ChildID)
		query += fmt.Sprintf(" AND id IN (SELECT invoice_id FROM invoice_items WHERE child_id = $%d)", len(args))
	}
	query += " ORDER BY year DESC, month DESC, created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []billing.Invoice
	for rows.Next() {
		var inv billing.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.ClubID, &inv.GuardianID, &inv.Month, &inv.Year,
			&inv.Subtotal, &inv.Tax, &inv.Total, &inv.PaidAmount,
			&inv.Status, &inv.DueDate, &inv.GatewayIntentID, &inv.GatewayIntentURL,
			&inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}
