package testimonial

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/identity"
)

type Service struct {
	repo     Repository
	profiles identity.ProfileRepository
	logger   zerolog.Logger
}

func NewService(repo Repository, profiles identity.ProfileRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, logger: logger}
}

// Submit queues a testimonial for moderation under the author's display
// name.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, req *SubmitRequest) (*Testimonial, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	t := &Testimonial{
		UserID:   userID,
		FullName: p.FirstName + " " + p.LastName,
		Content:  strings.TrimSpace(req.Content),
		Rating:   req.Rating,
		Location: req.Location,
		Status:   StatusPending,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("testimonial_id", t.ID.String()).Msg("testimonial submitted for review")
	return t, nil
}

// ListApproved is the public listing, newest first, with the average
// rating across the returned page.
func (s *Service) ListApproved(ctx context.Context, limit, offset int) ([]*Testimonial, int, float64, error) {
	testimonials, total, err := s.repo.ListByStatus(ctx, StatusApproved, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}
	var sum int
	for _, t := range testimonials {
		sum += t.Rating
	}
	var average float64
	if len(testimonials) > 0 {
		average = float64(sum) / float64(len(testimonials))
	}
	return testimonials, total, average, nil
}

// ListPending is the moderation queue.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*Testimonial, int, error) {
	testimonials, total, err := s.repo.ListByStatus(ctx, StatusPending, limit, offset)
	return testimonials, total, err
}

// Moderate approves or rejects a pending testimonial.
func (s *Service) Moderate(ctx context.Context, id uuid.UUID, status string) (*Testimonial, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, fmt.Errorf("status must be approved or rejected")
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	t.Status = status
	return t, nil
}
