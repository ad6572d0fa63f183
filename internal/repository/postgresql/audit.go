package postgresql

import (
	"context"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) billing.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, rec billing.AuditRecord) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO invoice_audit (invoice_id, actor, prev_status, next_status, note)
		VALUES ($1, $2, $3::invoice_status, $4::invoice_status, $5)
	`
	// Creation and deletion records have no previous/next status.
	var prev, next *string
	if rec.PrevStatus != "" {
		s := string(rec.PrevStatus)
		prev = &s
	}
	if rec.NextStatus != "" {
		s := string(rec.NextStatus)
		next = &s
	}
	_, err := q.Exec(ctx, query, rec.InvoiceID, rec.Actor, prev, next, rec.Note)
	return err
}

func (r *auditRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]billing.AuditRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, invoice_id, actor, prev_status, next_status, note, created_at
		FROM invoice_audit
		WHERE invoice_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []billing.AuditRecord
	for rows.Next() {
		var rec billing.AuditRecord
		var prev, next *string
		if err := rows.Scan(&rec.ID, &rec.InvoiceID, &rec.Actor, &prev, &next, &rec.Note, &rec.At); err != nil {
			return nil, err
		}
		if prev != nil {
			rec.PrevStatus = billing.InvoiceStatus(*prev)
		}
		if next != nil {
			rec.NextStatus = billing.InvoiceStatus(*next)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
