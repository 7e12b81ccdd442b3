package disease

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Disease, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, category string, limit, offset int) ([]*Disease, int, error) {
	return s.repo.List(ctx, category, limit, offset)
}

func (s *Service) ListAll(ctx context.Context) ([]*Disease, error) {
	return s.repo.ListAll(ctx)
}

// CommonSymptoms returns the distinct symptom names across the whole
// catalog, sorted with French collation for the symptom picker.
func (s *Service) CommonSymptoms(ctx context.Context) ([]string, error) {
	diseases, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var symptoms []string
	for _, d := range diseases {
		for _, sym := range d.CommonSymptoms {
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			symptoms = append(symptoms, sym)
		}
	}

	c := collate.New(language.French)
	sort.Slice(symptoms, func(i, j int) bool {
		return c.CompareString(symptoms[i], symptoms[j]) < 0
	})
	return symptoms, nil
}
