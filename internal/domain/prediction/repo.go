package prediction

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prediction, error)
	ListByChild(ctx context.Context, childID uuid.UUID, limit, offset int) ([]*Prediction, int, error)
	ListByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Prediction, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkReportDownloaded(ctx context.Context, id uuid.UUID) error
}
