// Package disease serves the read-only pediatric disease catalog that backs
// the symptom checker and the health education pages.
package disease

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDiseaseNotFound = errors.New("disease not found")

// Severity levels, from mild to critical.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityCritical = "critical"
)

// Disease is one catalog entry. Names carry both English and French forms;
// the client renders the French one.
type Disease struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	NameFr               string    `json:"name_fr"`
	Category             string    `json:"category"`
	CommonSymptoms       []string  `json:"common_symptoms"`
	Causes               []string  `json:"causes"`
	PreventionMethods    []string  `json:"prevention_methods"`
	ApprovedTreatment    string    `json:"minsante_approved_treatment"`
	NaturalTreatment     string    `json:"natural_treatment"`
	SeverityLevel        string    `json:"severity_level"`
	AgeGroup             []string  `json:"age_group"`
	PrevalenceInCameroon float64   `json:"prevalence_in_cameroon"`
	IsEpidemicRisk       bool      `json:"is_epidemic_risk"`
	CreatedAt            time.Time `json:"created_at"`
}
