package testimonial

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Testimonial) error
	GetByID(ctx context.Context, id uuid.UUID) (*Testimonial, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Testimonial, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
