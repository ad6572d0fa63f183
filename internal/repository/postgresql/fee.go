package postgresql

import (
	"context"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
)

type feeConfigRepository struct {
	db *database.DB
}

func NewFeeConfigRepository(db *database.DB) billing.FeeConfigRepository {
	return &feeConfigRepository{db: db}
}

func (r *feeConfigRepository) ListAdjustmentsByChild(ctx context.Context, childID string) ([]billing.FeeAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, club_id, child_id, type, description, amount, effective_from, effective_to, recurring, created_at
		FROM fee_adjustments
		WHERE child_id = $1
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []billing.FeeAdjustment
	for rows.Next() {
		var a billing.FeeAdjustment
		if err := rows.Scan(
			&a.ID, &a.ClubID, &a.ChildID, &a.Type, &a.Description, &a.Amount,
			&a.EffectiveFrom, &a.EffectiveTo, &a.Recurring, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

func (r *feeConfigRepository) ListPendingOneTimeItems(ctx context.Context, childID string, month, year int) ([]billing.OneTimeItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, club_id, child_id, category, description, amount, month, year, status, created_at
		FROM one_time_items
		WHERE child_id = $1 AND month = $2 AND year = $3 AND status = 'pending'
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, childID, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []billing.OneTimeItem
	for rows.Next() {
		var it billing.OneTimeItem
		if err := rows.Scan(
			&it.ID, &it.ClubID, &it.ChildID, &it.Category, &it.Description, &it.Amount,
			&it.Month, &it.Year, &it.Status, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *feeConfigRepository) MarkOneTimeItemsBilled(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE one_time_items
		SET status = 'billed'
		WHERE id = ANY($1) AND status = 'pending'
	`
	_, err := q.Exec(ctx, query, ids)
	return err
}
