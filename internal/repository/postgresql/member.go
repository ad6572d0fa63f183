package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
)

// ==================== Guardian Repository ====================

type guardianRepository struct {
	db *database.DB
}

func NewGuardianRepository(db *database.DB) member.GuardianRepository {
	return &guardianRepository{db: db}
}

func (r *guardianRepository) GetByID(ctx context.Context, id string) (member.Guardian, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, club_id, first_name, last_name, email, phone, created_at, updated_at
		FROM guardians
		WHERE id = $1
	`

	var g member.Guardian
	err := q.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.ClubID, &g.FirstName, &g.LastName, &g.Email, &g.Phone, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Guardian{}, member.ErrGuardianNotFound
		}
		return member.Guardian{}, err
	}
	return g, nil
}

func (r *guardianRepository) ListBillable(ctx context.Context, clubID string) ([]member.Guardian, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT g.id, g.club_id, g.first_name, g.last_name, g.email, g.phone, g.created_at, g.updated_at
		FROM guardians g
		JOIN guardian_children gc ON gc.guardian_id = g.id
		JOIN children c ON c.id = gc.child_id
		WHERE g.club_id = $1 AND c.status = $2::child_status
		ORDER BY g.last_name, g.first_name, g.id
	`

	rows, err := q.Query(ctx, query, clubID, member.ChildStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guardians []member.Guardian
	for rows.Next() {
		var g member.Guardian
		if err := rows.Scan(&g.ID, &g.ClubID, &g.FirstName, &g.LastName, &g.Email, &g.Phone, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		guardians = append(guardians, g)
	}
	return guardians, rows.Err()
}

// ==================== Child Repository ====================

type childRepository struct {
	db *database.DB
}

func NewChildRepository(db *database.DB) member.ChildRepository {
	return &childRepository{db: db}
}

func (r *childRepository) GetByID(ctx context.Context, id string) (member.Child, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, club_id, first_name, last_name, level, status, monthly_fee, created_at, updated_at
		FROM children
		WHERE id = $1
	`

	var c member.Child
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.ClubID, &c.FirstName, &c.LastName, &c.Level, &c.Status, &c.MonthlyFee, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member.Child{}, member.ErrChildNotFound
		}
		return member.Child{}, err
	}
	return c, nil
}

func (r *childRepository) ListActiveByGuardian(ctx context.Context, guardianID string) ([]member.Child, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT c.id, c.club_id, c.first_name, c.last_name, c.level, c.status, c.monthly_fee, c.created_at, c.updated_at
		FROM children c
		JOIN guardian_children gc ON gc.child_id = c.id
		WHERE gc.guardian_id = $1 AND c.status = $2::child_status
		ORDER BY c.last_name, c.first_name, c.id
	`

	rows, err := q.Query(ctx, query, guardianID, member.ChildStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []member.Child
	for rows.Next() {
		var c member.Child
		if err := rows.Scan(&c.ID, &c.ClubID, &c.FirstName, &c.LastName, &c.Level, &c.Status, &c.MonthlyFee, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, rows.Err()
}
