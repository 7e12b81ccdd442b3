// Package appointment manages video consultation bookings: validation,
// lifecycle, reminders and call-room authorization.
package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNotParticipant      = errors.New("appointment belongs to another user")
	ErrOutsideHours        = errors.New("appointments must start between 09:00 and 17:00")
	ErrBadTransition       = errors.New("invalid status transition")
)

// Statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Consultation types.
const (
	TypeVideo = "video"
	TypeChat  = "chat"
	TypePhone = "phone"
)

const (
	openingHour     = 9
	closingHour     = 17
	defaultDuration = 30
)

// Appointment is one booked consultation.
type Appointment struct {
	ID               uuid.UUID              `json:"id"`
	PredictionID     *uuid.UUID             `json:"prediction_id,omitempty"`
	ParentID         uuid.UUID              `json:"parent_id"`
	DoctorID         uuid.UUID              `json:"doctor_id"`
	ChildID          uuid.UUID              `json:"child_id"`
	ScheduledAt      time.Time              `json:"scheduled_at"`
	DurationMinutes  int                    `json:"duration_minutes"`
	ConsultationType string                 `json:"consultation_type"`
	Status           string                 `json:"status"`
	FeeAmount        int64                  `json:"fee_amount"`
	MeetingLink      *string                `json:"meeting_link,omitempty"`
	Notes            *string                `json:"notes,omitempty"`
	Prescription     map[string]interface{} `json:"prescription"`
	DiagnosisOK      *bool                  `json:"diagnosis_confirmed,omitempty"`
	ReminderSent     bool                   `json:"reminder_sent"`
	CreatedAt        time.Time              `json:"created_at"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
}

// BookingRequest is the parent's booking submission. The payment reference
// accompanies it; nothing is recorded until the reference verifies.
type BookingRequest struct {
	DoctorID         uuid.UUID  `json:"doctor_id"`
	ChildID          uuid.UUID  `json:"child_id"`
	PredictionID     *uuid.UUID `json:"prediction_id,omitempty"`
	ScheduledAt      time.Time  `json:"scheduled_at"`
	DurationMinutes  int        `json:"duration_minutes,omitempty"`
	ConsultationType string     `json:"consultation_type,omitempty"`
	PaymentReference string     `json:"payment_reference"`
}

// ValidateSchedule enforces the booking-time rules: the slot must be in the
// future and inside business hours regardless of date.
func ValidateSchedule(scheduledAt, now time.Time) error {
	if scheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if !scheduledAt.After(now) {
		return fmt.Errorf("scheduled_at must be in the future")
	}
	h := scheduledAt.Hour()
	if h < openingHour || h >= closingHour {
		return ErrOutsideHours
	}
	return nil
}

// CompletionReport is what the doctor records when closing a consultation.
type CompletionReport struct {
	Notes        *string                `json:"notes,omitempty"`
	Prescription map[string]interface{} `json:"prescription,omitempty"`
	DiagnosisOK  *bool                  `json:"diagnosis_confirmed,omitempty"`
}
