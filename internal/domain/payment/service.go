package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/appointment"
	"github.com/pediacare/api/internal/platform/paystack"
)

// TxRunner executes fn inside a database transaction carried on the
// context. Repositories joining that context share the transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo         Repository
	appointments *appointment.Service
	verifier     paystack.Verifier
	runTx        TxRunner
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(repo Repository, appointments *appointment.Service, verifier paystack.Verifier, runTx TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		verifier:     verifier,
		runTx:        runTx,
		logger:       logger,
		now:          time.Now,
	}
}

// BookingResult is what the parent gets back after a confirmed booking.
type BookingResult struct {
	Appointment *appointment.Appointment `json:"appointment"`
	Payment     *Payment                 `json:"payment"`
	Invoice     *Invoice                 `json:"invoice"`
}

// ConfirmBooking turns a verified Paystack reference into an appointment,
// a payment and an invoice, created atomically. The reference is the
// idempotency key: replaying one returns the records already created for
// it instead of booking twice.
func (s *Service) ConfirmBooking(ctx context.Context, parentID uuid.UUID, req *appointment.BookingRequest) (*BookingResult, error) {
	if req.PaymentReference == "" {
		return nil, ErrMissingRef
	}

	if existing, err := s.repo.GetPaymentByReference(ctx, req.PaymentReference); err == nil {
		return s.replay(ctx, parentID, existing)
	} else if !errors.Is(err, ErrPaymentNotFound) {
		return nil, err
	}

	appt, err := s.appointments.PrepareBooking(ctx, parentID, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.verifier.VerifyTransaction(ctx, req.PaymentReference)
	if err != nil {
		return nil, err
	}
	// Paystack reports amounts in subunits.
	if tx.Amount != appt.FeeAmount*100 {
		return nil, fmt.Errorf("%w: paid %d, fee %d", ErrAmountMismatch, tx.Amount, appt.FeeAmount*100)
	}

	now := s.now().UTC()
	paidAt := tx.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}

	pay := &Payment{
		ParentID:        parentID,
		Amount:          appt.FeeAmount,
		Currency:        Currency,
		PaymentMethod:   MethodCard,
		PaymentProvider: ProviderPaystack,
		Reference:       tx.Reference,
		Status:          PaymentSuccess,
		PaidAt:          &paidAt,
		Metadata: map[string]interface{}{
			"channel":        tx.Channel,
			"customer_email": tx.Customer.Email,
		},
	}
	inv := &Invoice{
		ParentID: parentID,
		Amount:   appt.FeeAmount,
		Currency: Currency,
		Status:   InvoicePaid,
		IssuedAt: now,
		DueAt:    &now,
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Create(ctx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		pay.AppointmentID = appt.ID
		if err := s.repo.CreatePayment(ctx, pay); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		inv.AppointmentID = appt.ID
		inv.PaymentID = pay.ID
		if err := s.repo.CreateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reference", tx.Reference).
		Str("appointment_id", appt.ID.String()).
		Int64("amount", pay.Amount).
		Msg("booking confirmed")
	return &BookingResult{Appointment: appt, Payment: pay, Invoice: inv}, nil
}

// replay returns the records created for an already-seen reference. Only
// the paying parent may replay it.
func (s *Service) replay(ctx context.Context, parentID uuid.UUID, pay *Payment) (*BookingResult, error) {
	if pay.ParentID != parentID {
		return nil, appointment.ErrNotParticipant
	}
	appt, err := s.appointments.Get(ctx, pay.AppointmentID, parentID)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.GetInvoiceByAppointment(ctx, pay.AppointmentID)
	if err != nil {
		return nil, err
	}
	return &BookingResult{Appointment: appt, Payment: pay, Invoice: inv}, nil
}

func (s *Service) ListPayments(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	return s.repo.ListPaymentsByParent(ctx, parentID, limit, offset)
}

func (s *Service) ListInvoices(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.repo.ListInvoicesByParent(ctx, parentID, limit, offset)
}

func (s *Service) GetInvoiceForAppointment(ctx context.Context, appointmentID, parentID uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if inv.ParentID != parentID {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}
