package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/club"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/database"
)

type clubRepository struct {
	db *database.DB
}

func NewClubRepository(db *database.DB) club.Repository {
	return &clubRepository{db: db}
}

func (r *clubRepository) GetByID(ctx context.Context, id string) (club.Club, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, slug, tax_rate, created_at, updated_at
		FROM clubs
		WHERE id = $1
	`

	var c club.Club
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Slug, &c.TaxRate, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return club.Club{}, club.ErrClubNotFound
		}
		return club.Club{}, err
	}
	return c, nil
}

func (r *clubRepository) List(ctx context.Context) ([]club.Club, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, slug, tax_rate, created_at, updated_at
		FROM clubs
		ORDER BY name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clubs []club.Club
	for rows.Next() {
		var c club.Club
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.TaxRate, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}
