// Package dashboard aggregates per-role home screen figures: counts and
// short upcoming lists, assembled fresh on every request.
package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/pediacare/api/internal/domain/prediction"
)

// AppointmentSummary is the trimmed appointment row shown on dashboards.
type AppointmentSummary struct {
	ID               uuid.UUID `json:"id"`
	ParentID         uuid.UUID `json:"parent_id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	ChildID          uuid.UUID `json:"child_id"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	ConsultationType string    `json:"consultation_type"`
	Status           string    `json:"status"`
	FeeAmount        int64     `json:"fee_amount"`
}

// ParentStats are the parent's headline counts.
type ParentStats struct {
	Children             int `json:"children"`
	UpcomingAppointments int `json:"upcoming_appointments"`
	Predictions          int `json:"predictions"`
	UnreadMessages       int `json:"unread_messages"`
}

// DoctorStats are the doctor's headline counts.
type DoctorStats struct {
	TodayConsultations     int   `json:"today_consultations"`
	TotalPatients          int   `json:"total_patients"`
	CompletedConsultations int   `json:"completed_consultations"`
	Revenue                int64 `json:"revenue"`
}

type ParentDashboard struct {
	Stats                ParentStats              `json:"stats"`
	UpcomingAppointments []*AppointmentSummary    `json:"upcoming_appointments"`
	RecentPredictions    []*prediction.Prediction `json:"recent_predictions"`
}

type DoctorDashboard struct {
	Stats             DoctorStats           `json:"stats"`
	TodayAppointments []*AppointmentSummary `json:"today_appointments"`
}
