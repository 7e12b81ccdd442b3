// Package child manages the children a parent registers for symptom checks
// and consultations. Every operation is scoped to the owning parent.
package child

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrChildNotFound = errors.New("child not found")
	ErrNotOwner      = errors.New("child belongs to another parent")
)

// GrowthEntry is one measurement in a child's weight or height history.
type GrowthEntry struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Child is a registered child record.
type Child struct {
	ID                uuid.UUID         `json:"id"`
	ParentID          uuid.UUID         `json:"parent_id"`
	FirstName         string            `json:"first_name"`
	LastName          string            `json:"last_name"`
	DateOfBirth       time.Time         `json:"date_of_birth"`
	Gender            string            `json:"gender"`
	BloodType         *string           `json:"blood_type,omitempty"`
	Allergies         []string          `json:"allergies"`
	ChronicConditions []string          `json:"chronic_conditions"`
	VaccinationStatus map[string]string `json:"vaccination_status"`
	WeightHistory     []GrowthEntry     `json:"weight_history"`
	HeightHistory     []GrowthEntry     `json:"height_history"`
	PhotoURL          *string           `json:"photo_url,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// AgeMonths returns the child's age in whole months at the given time.
func (c *Child) AgeMonths(at time.Time) int {
	months := (at.Year()-c.DateOfBirth.Year())*12 + int(at.Month()) - int(c.DateOfBirth.Month())
	if at.Day() < c.DateOfBirth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Validate checks the fields a parent submits.
func (c *Child) Validate() error {
	if len(c.FirstName) < 2 || len(c.LastName) < 2 {
		return fmt.Errorf("first_name and last_name must be at least 2 characters")
	}
	if c.Gender != "male" && c.Gender != "female" {
		return fmt.Errorf("gender must be male or female")
	}
	if c.DateOfBirth.IsZero() {
		return fmt.Errorf("date_of_birth is required")
	}
	if c.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("date_of_birth cannot be in the future")
	}
	return nil
}

// GrowthMeasurement appends one point to a child's growth history.
type GrowthMeasurement struct {
	Kind  string    `json:"kind"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

const (
	GrowthWeight = "weight"
	GrowthHeight = "height"
)

func (m *GrowthMeasurement) Validate() error {
	if m.Kind != GrowthWeight && m.Kind != GrowthHeight {
		return fmt.Errorf("kind must be weight or height")
	}
	if m.Value <= 0 {
		return fmt.Errorf("value must be positive")
	}
	return nil
}
