package club

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (Club, error)
	List(ctx context.Context) ([]Club, error)
}
