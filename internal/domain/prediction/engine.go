package prediction

import (
	"context"
	"math/rand"

	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/domain/disease"
)

// Engine produces a diagnosis suggestion for a child and symptom form.
type Engine interface {
	Predict(ctx context.Context, c *child.Child, form *SymptomForm) (*Result, error)
}

// MockModelVersion labels rows produced by the placeholder engine.
const MockModelVersion = "1.1.0-mock-enhanced"

// MockEngine is the placeholder model: a uniformly random disease from the
// catalog, with a confidence that grows with the number of reported
// symptoms. It keeps the exact scoring of the system it replaces so results
// stay comparable until a real model is wired in.
type MockEngine struct {
	catalog *disease.Service
	randFn  func() float64
	pickFn  func(n int) int
}

func NewMockEngine(catalog *disease.Service) *MockEngine {
	return &MockEngine{
		catalog: catalog,
		randFn:  rand.Float64,
		pickFn:  rand.Intn,
	}
}

func (e *MockEngine) Predict(ctx context.Context, _ *child.Child, form *SymptomForm) (*Result, error) {
	diseases, err := e.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(diseases) == 0 {
		return nil, ErrEmptyCatalog
	}

	picked := diseases[e.pickFn(len(diseases))]

	base := 0.70
	bonus := float64(len(form.Symptoms)) * 0.03
	if bonus > 0.25 {
		bonus = 0.25
	}
	confidence := base + bonus + e.randFn()*0.05
	if confidence > 0.98 {
		confidence = 0.98
	}

	return &Result{
		DiseaseID:    picked.ID,
		Confidence:   confidence,
		ModelVersion: MockModelVersion,
	}, nil
}
