package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
)

type paymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) billing.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p billing.Payment) (billing.Payment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payments (club_id, invoice_id, amount, method, status, external_ref)
		VALUES ($1, $2, $3, $4, $5::payment_status, $6)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		p.ClubID, p.InvoiceID, p.Amount, p.Method, string(p.Status), p.ExternalRef,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return billing.Payment{}, billing.ErrPaymentAlreadyProcessed
		}
		return billing.Payment{}, err
	}
	return p, nil
}

func (r *paymentRepository) ExistsByExternalRef(ctx context.Context, clubID, externalRef string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM payments WHERE club_id = $1 AND external_ref = $2
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, clubID, externalRef).Scan(&exists)
	return exists, err
}
