package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/domain/identity"
	"github.com/pediacare/api/internal/platform/realtime"
)

type Service struct {
	repo     Repository
	children *child.Service
	doctors  identity.DoctorRepository
	events   realtime.Publisher
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, children *child.Service, doctors identity.DoctorRepository, events realtime.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		children: children,
		doctors:  doctors,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// PrepareBooking validates a booking and returns the unsaved appointment
// with the doctor's fee attached. Nothing is persisted here; the payment
// flow creates the record once the reference verifies.
func (s *Service) PrepareBooking(ctx context.Context, parentID uuid.UUID, req *BookingRequest) (*Appointment, error) {
	if err := ValidateSchedule(req.ScheduledAt, s.now()); err != nil {
		return nil, err
	}
	if _, err := s.children.Get(ctx, req.ChildID, parentID); err != nil {
		return nil, err
	}
	doctor, err := s.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsAvailable {
		return nil, fmt.Errorf("doctor is not currently accepting consultations")
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = defaultDuration
	}
	consultationType := req.ConsultationType
	if consultationType == "" {
		consultationType = TypeVideo
	}
	switch consultationType {
	case TypeVideo, TypeChat, TypePhone:
	default:
		return nil, fmt.Errorf("unknown consultation type %q", consultationType)
	}

	return &Appointment{
		PredictionID:     req.PredictionID,
		ParentID:         parentID,
		DoctorID:         req.DoctorID,
		ChildID:          req.ChildID,
		ScheduledAt:      req.ScheduledAt,
		DurationMinutes:  duration,
		ConsultationType: consultationType,
		Status:           StatusConfirmed,
		FeeAmount:        doctor.ConsultationFee,
	}, nil
}

// Create persists an appointment. It joins any transaction on the context.
func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	if err := s.doctors.RecordConsultation(ctx, a.DoctorID); err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", a.DoctorID.String()).Msg("could not bump consultation count")
	}
	return nil
}

// Get returns an appointment visible to the given participant.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ParentID != userID && a.DoctorID != userID {
		return nil, ErrNotParticipant
	}
	return a, nil
}

func (s *Service) ListForParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByParent(ctx, parentID, limit, offset)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// Confirm moves a pending appointment to confirmed. Doctor-only.
func (s *Service) Confirm(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, ErrNotParticipant
	}
	if a.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, a.Status, StatusConfirmed)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusConfirmed, nil); err != nil {
		return nil, err
	}
	a.Status = StatusConfirmed
	s.publish(ctx, a, "appointment.confirmed")
	return a, nil
}

// Complete closes a confirmed consultation with the doctor's report.
func (s *Service) Complete(ctx context.Context, id, doctorID uuid.UUID, report *CompletionReport) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, ErrNotParticipant
	}
	if a.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, a.Status, StatusCompleted)
	}

	now := s.now().UTC()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	if report != nil {
		if report.Notes != nil {
			a.Notes = report.Notes
		}
		if report.Prescription != nil {
			a.Prescription = report.Prescription
		}
		if report.DiagnosisOK != nil {
			a.DiagnosisOK = report.DiagnosisOK
		}
	}
	if err := s.repo.Complete(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, a, "appointment.completed")
	return a, nil
}

// Cancel is the parent's exit. Completed consultations cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id, parentID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ParentID != parentID {
		return nil, ErrNotParticipant
	}
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, a.Status, StatusCancelled)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled, nil); err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	s.publish(ctx, a, "appointment.cancelled")
	return a, nil
}

func (s *Service) publish(ctx context.Context, a *Appointment, eventType string) {
	payload := map[string]string{
		"appointment_id": a.ID.String(),
		"status":         a.Status,
		"scheduled_at":   a.ScheduledAt.Format(time.RFC3339),
	}
	for _, userID := range []uuid.UUID{a.ParentID, a.DoctorID} {
		ev, err := realtime.NewEvent(eventType, realtime.AppointmentsTopic(userID.String()), payload)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to build appointment event")
			return
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish appointment event")
		}
	}
}

// SendReminders publishes a reminder for every confirmed consultation
// starting within the window. Each appointment is reminded once.
func (s *Service) SendReminders(ctx context.Context, window time.Duration) error {
	now := s.now().UTC()
	due, err := s.repo.ListDueForReminder(ctx, now, now.Add(window))
	if err != nil {
		return fmt.Errorf("list due reminders: %w", err)
	}
	for _, a := range due {
		s.publish(ctx, a, "appointment.reminder")
		if err := s.repo.MarkReminderSent(ctx, a.ID); err != nil {
			s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("could not mark reminder sent")
		}
	}
	if len(due) > 0 {
		s.logger.Info().Int("count", len(due)).Msg("appointment reminders sent")
	}
	return nil
}

// AuthorizeRoom implements realtime.RoomAuthorizer: only the two
// participants of a confirmed, video-type appointment may join its call.
func (s *Service) AuthorizeRoom(ctx context.Context, roomID, userID string) error {
	apptID, err := uuid.Parse(roomID)
	if err != nil {
		return fmt.Errorf("invalid room id")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id")
	}
	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil {
		return err
	}
	if a.ParentID != uid && a.DoctorID != uid {
		return ErrNotParticipant
	}
	if a.Status != StatusConfirmed {
		return fmt.Errorf("consultation is not active")
	}
	return nil
}
