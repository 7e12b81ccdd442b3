package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/prediction"
)

const (
	upcomingLimit          = 5
	recentPredictionsLimit = 5
)

type Service struct {
	repo        Repository
	predictions *prediction.Service
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(repo Repository, predictions *prediction.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		predictions: predictions,
		logger:      logger,
		now:         time.Now,
	}
}

// Parent assembles the parent home screen.
func (s *Service) Parent(ctx context.Context, parentID uuid.UUID) (*ParentDashboard, error) {
	now := s.now().UTC()

	stats, err := s.repo.ParentStats(ctx, parentID, now)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.UpcomingForParent(ctx, parentID, now, upcomingLimit)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.predictions.ListMine(ctx, parentID, recentPredictionsLimit, 0)
	if err != nil {
		return nil, err
	}

	if upcoming == nil {
		upcoming = []*AppointmentSummary{}
	}
	if recent == nil {
		recent = []*prediction.Prediction{}
	}
	return &ParentDashboard{
		Stats:                *stats,
		UpcomingAppointments: upcoming,
		RecentPredictions:    recent,
	}, nil
}

// Doctor assembles the doctor home screen for the current UTC day.
func (s *Service) Doctor(ctx context.Context, doctorID uuid.UUID) (*DoctorDashboard, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats, err := s.repo.DoctorStats(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.TodayForDoctor(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if today == nil {
		today = []*AppointmentSummary{}
	}
	return &DoctorDashboard{Stats: *stats, TodayAppointments: today}, nil
}
