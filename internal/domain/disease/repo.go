package disease

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Disease, error)
	List(ctx context.Context, category string, limit, offset int) ([]*Disease, int, error)
	ListAll(ctx context.Context) ([]*Disease, error)
	Insert(ctx context.Context, d *Disease) error
	Count(ctx context.Context) (int, error)
}
