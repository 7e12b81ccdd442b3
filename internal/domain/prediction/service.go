package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/domain/disease"
)

type Service struct {
	repo     Repository
	engine   Engine
	children *child.Service
	catalog  *disease.Service
	logger   zerolog.Logger
}

func NewService(repo Repository, engine Engine, children *child.Service, catalog *disease.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		children: children,
		catalog:  catalog,
		logger:   logger,
	}
}

// Start runs one symptom check for a parent's child and stores the result.
// The parent must have at least one registered child; the checker cannot be
// started against nothing.
func (s *Service) Start(ctx context.Context, parentID, childID uuid.UUID, form *SymptomForm) (*Prediction, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	roster, err := s.children.ListMine(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, ErrNoChildren
	}

	c, err := s.children.Get(ctx, childID, parentID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Predict(ctx, c, form)
	if err != nil {
		return nil, fmt.Errorf("run prediction: %w", err)
	}

	p := &Prediction{
		ChildID: c.ID,
		Symptoms: SymptomSnapshot{
			SelectedSymptoms: form.Symptoms,
			Temperature:      form.Temperature,
			Duration:         form.Duration,
		},
		AdditionalInfo: AdditionalInfo{
			Details:     form.Details,
			EnergyLevel: form.EnergyLevel,
			Appetite:    form.Appetite,
			Hydration:   form.Hydration,
		},
		PredictedDiseaseID: &result.DiseaseID,
		ConfidenceScore:    &result.Confidence,
		ModelVersion:       result.ModelVersion,
		Status:             StatusCompleted,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.attachDisease(ctx, p)
	return p, nil
}

// Get returns a prediction the given parent owns through the child record.
func (s *Service) Get(ctx context.Context, parentID, id uuid.UUID) (*Prediction, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.children.Get(ctx, p.ChildID, parentID); err != nil {
		if errors.Is(err, child.ErrNotOwner) || errors.Is(err, child.ErrChildNotFound) {
			return nil, ErrPredictionNotFound
		}
		return nil, err
	}
	s.attachDisease(ctx, p)
	return p, nil
}

// GetForReview returns a prediction without the ownership check, for
// doctor-side review during a consultation.
func (s *Service) GetForReview(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachDisease(ctx, p)
	return p, nil
}

func (s *Service) ListByChild(ctx context.Context, parentID, childID uuid.UUID, limit, offset int) ([]*Prediction, int, error) {
	if _, err := s.children.Get(ctx, childID, parentID); err != nil {
		return nil, 0, err
	}
	predictions, total, err := s.repo.ListByChild(ctx, childID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range predictions {
		s.attachDisease(ctx, p)
	}
	return predictions, total, nil
}

func (s *Service) ListMine(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Prediction, int, error) {
	predictions, total, err := s.repo.ListByParent(ctx, parentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range predictions {
		s.attachDisease(ctx, p)
	}
	return predictions, total, nil
}

// Review lets a doctor mark a completed prediction confirmed or disputed.
// The symptom snapshot and score stay untouched.
func (s *Service) Review(ctx context.Context, id uuid.UUID, status string) (*Prediction, error) {
	if status != StatusConfirmed && status != StatusDisputed {
		return nil, fmt.Errorf("status must be %s or %s", StatusConfirmed, StatusDisputed)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusCompleted {
		return nil, fmt.Errorf("only completed predictions can be reviewed")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	p.Status = status
	s.attachDisease(ctx, p)
	return p, nil
}

// MarkReportDownloaded records that the parent pulled the PDF report.
func (s *Service) MarkReportDownloaded(ctx context.Context, parentID, id uuid.UUID) error {
	if _, err := s.Get(ctx, parentID, id); err != nil {
		return err
	}
	return s.repo.MarkReportDownloaded(ctx, id)
}

// attachDisease hydrates the catalog entry. A missing entry is not an
// error; the row still renders without the detail panel.
func (s *Service) attachDisease(ctx context.Context, p *Prediction) {
	if p.PredictedDiseaseID == nil {
		return
	}
	d, err := s.catalog.Get(ctx, *p.PredictedDiseaseID)
	if err != nil {
		s.logger.Warn().Err(err).Str("disease_id", p.PredictedDiseaseID.String()).Msg("could not hydrate predicted disease")
		return
	}
	p.Disease = d
}
