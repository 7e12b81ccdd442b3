// Package prediction runs the symptom checker. The engine behind it is an
// interface; the shipped implementation is an explicit placeholder that
// picks a random catalog disease, until the real model endpoint is wired.
package prediction

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pediacare/api/internal/domain/disease"
)

var (
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrNoChildren         = errors.New("at least one child must be registered before starting a check")
	ErrEmptyCatalog       = errors.New("disease catalog is empty")
)

// Prediction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusConfirmed = "confirmed"
	StatusDisputed  = "disputed"
)

// SymptomForm is what the parent submits for one check.
type SymptomForm struct {
	Symptoms    []string `json:"symptoms"`
	Temperature *float64 `json:"temperature,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Details     string   `json:"details,omitempty"`
	EnergyLevel string   `json:"energy_level,omitempty"`
	Appetite    string   `json:"appetite,omitempty"`
	Hydration   string   `json:"hydration,omitempty"`
}

func (f *SymptomForm) Validate() error {
	if len(f.Symptoms) == 0 {
		return fmt.Errorf("at least one symptom is required")
	}
	return nil
}

// SymptomSnapshot is the immutable symptom record stored with a prediction.
type SymptomSnapshot struct {
	SelectedSymptoms []string `json:"selected_symptoms"`
	Temperature      *float64 `json:"temperature,omitempty"`
	Duration         string   `json:"duration,omitempty"`
}

// AdditionalInfo is the contextual part of the stored snapshot.
type AdditionalInfo struct {
	Details     string `json:"details,omitempty"`
	EnergyLevel string `json:"energy_level,omitempty"`
	Appetite    string `json:"appetite,omitempty"`
	Hydration   string `json:"hydration,omitempty"`
}

// Prediction is one completed symptom check. Rows are immutable once
// written; only the review status may change afterwards.
type Prediction struct {
	ID                 uuid.UUID       `json:"id"`
	ChildID            uuid.UUID       `json:"child_id"`
	Symptoms           SymptomSnapshot `json:"symptoms"`
	AdditionalInfo     AdditionalInfo  `json:"additional_info"`
	PredictedDiseaseID *uuid.UUID      `json:"predicted_disease_id,omitempty"`
	ConfidenceScore    *float64        `json:"confidence_score,omitempty"`
	ModelVersion       string          `json:"ml_model_version"`
	Status             string          `json:"status"`
	ReportGeneratedAt  *time.Time      `json:"report_generated_at,omitempty"`
	ReportDownloaded   bool            `json:"report_downloaded"`
	CreatedAt          time.Time       `json:"created_at"`

	Disease *disease.Disease `json:"disease,omitempty"`
}

// Result is what an engine returns for one run.
type Result struct {
	DiseaseID    uuid.UUID
	Confidence   float64
	ModelVersion string
}
