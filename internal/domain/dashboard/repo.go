package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	ParentStats(ctx context.Context, parentID uuid.UUID, now time.Time) (*ParentStats, error)
	UpcomingForParent(ctx context.Context, parentID uuid.UUID, now time.Time, limit int) ([]*AppointmentSummary, error)

	DoctorStats(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) (*DoctorStats, error)
	TodayForDoctor(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*AppointmentSummary, error)
}
