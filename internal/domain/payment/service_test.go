package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/appointment"
	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/domain/identity"
	"github.com/pediacare/api/internal/platform/blobstore"
	"github.com/pediacare/api/internal/platform/paystack"
	"github.com/pediacare/api/internal/platform/realtime"
)

type memRepo struct {
	payments map[string]*Payment
	invoices map[uuid.UUID]*Invoice
}

func newMemRepo() *memRepo {
	return &memRepo{
		payments: make(map[string]*Payment),
		invoices: make(map[uuid.UUID]*Invoice),
	}
}

func (m *memRepo) CreatePayment(_ context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := m.payments[p.Reference]; ok {
		return errors.New("duplicate reference")
	}
	m.payments[p.Reference] = p
	return nil
}

func (m *memRepo) GetPaymentByReference(_ context.Context, reference string) (*Payment, error) {
	p, ok := m.payments[reference]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (m *memRepo) ListPaymentsByParent(_ context.Context, parentID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	var out []*Payment
	for _, p := range m.payments {
		if p.ParentID == parentID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) CreateInvoice(_ context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	m.invoices[inv.AppointmentID] = inv
	return nil
}

func (m *memRepo) GetInvoiceByAppointment(_ context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	inv, ok := m.invoices[appointmentID]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *memRepo) ListInvoicesByParent(_ context.Context, parentID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var out []*Invoice
	for _, inv := range m.invoices {
		if inv.ParentID == parentID {
			out = append(out, inv)
		}
	}
	return out, len(out), nil
}

type memApptRepo struct {
	appts map[uuid.UUID]*appointment.Appointment
}

func (m *memApptRepo) Create(_ context.Context, a *appointment.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.appts[a.ID] = a
	return nil
}

func (m *memApptRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return a, nil
}

func (m *memApptRepo) ListByParent(_ context.Context, parentID uuid.UUID, limit, offset int) ([]*appointment.Appointment, int, error) {
	return nil, 0, nil
}

func (m *memApptRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*appointment.Appointment, int, error) {
	return nil, 0, nil
}

func (m *memApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	return nil
}

func (m *memApptRepo) Complete(_ context.Context, a *appointment.Appointment) error { return nil }

func (m *memApptRepo) ListDueForReminder(_ context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	return nil, nil
}

func (m *memApptRepo) MarkReminderSent(_ context.Context, id uuid.UUID) error { return nil }

type memChildRepo struct {
	children map[uuid.UUID]*child.Child
}

func (m *memChildRepo) Create(_ context.Context, c *child.Child) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.children[c.ID] = c
	return nil
}

func (m *memChildRepo) GetByID(_ context.Context, id uuid.UUID) (*child.Child, error) {
	c, ok := m.children[id]
	if !ok {
		return nil, child.ErrChildNotFound
	}
	return c, nil
}

func (m *memChildRepo) ListByParent(_ context.Context, parentID uuid.UUID) ([]*child.Child, error) {
	return nil, nil
}

func (m *memChildRepo) Update(_ context.Context, c *child.Child) error { return nil }
func (m *memChildRepo) Delete(_ context.Context, id uuid.UUID) error   { return nil }

type memDoctorRepo struct {
	doctors map[uuid.UUID]*identity.DoctorProfile
}

func (m *memDoctorRepo) Upsert(_ context.Context, d *identity.DoctorProfile) error { return nil }

func (m *memDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.DoctorProfile, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, identity.ErrDoctorNotFound
	}
	return d, nil
}

func (m *memDoctorRepo) ListAvailable(_ context.Context, specialization string, limit, offset int) ([]*identity.DoctorProfile, int, error) {
	return nil, 0, nil
}

func (m *memDoctorRepo) RecordConsultation(_ context.Context, id uuid.UUID) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(_ context.Context, _ realtime.Event) error { return nil }

// fakeVerifier replays canned transactions and counts calls.
type fakeVerifier struct {
	transactions map[string]*paystack.Transaction
	failures     map[string]error
	calls        int
}

func (f *fakeVerifier) VerifyTransaction(_ context.Context, reference string) (*paystack.Transaction, error) {
	f.calls++
	if err, ok := f.failures[reference]; ok {
		return nil, err
	}
	tx, ok := f.transactions[reference]
	if !ok {
		return nil, paystack.ErrTransactionNotFound
	}
	return tx, nil
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	verifier *fakeVerifier
	parentID uuid.UUID
	doctorID uuid.UUID
	childID  uuid.UUID
}

const consultationFee = 15000

func newFixture(t *testing.T) *fixture {
	t.Helper()

	parentID := uuid.New()
	doctorID := uuid.New()

	childRepo := &memChildRepo{children: make(map[uuid.UUID]*child.Child)}
	kid := &child.Child{
		ParentID:    parentID,
		FirstName:   "Amina",
		LastName:    "Mbarga",
		Gender:      "female",
		DateOfBirth: time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	_ = childRepo.Create(context.Background(), kid)

	doctors := &memDoctorRepo{doctors: map[uuid.UUID]*identity.DoctorProfile{
		doctorID: {ID: doctorID, ConsultationFee: consultationFee, IsAvailable: true},
	}}

	children := child.NewService(childRepo, blobstore.NewInMemoryBlobStore(), zerolog.Nop())
	appts := appointment.NewService(
		&memApptRepo{appts: make(map[uuid.UUID]*appointment.Appointment)},
		children, doctors, nopPublisher{}, zerolog.Nop(),
	)

	verifier := &fakeVerifier{
		transactions: make(map[string]*paystack.Transaction),
		failures:     make(map[string]error),
	}
	repo := newMemRepo()

	// In production the runner opens a database transaction; the in-memory
	// repos have nothing to roll back.
	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	svc := NewService(repo, appts, verifier, runTx, zerolog.Nop())

	return &fixture{
		svc:      svc,
		repo:     repo,
		verifier: verifier,
		parentID: parentID,
		doctorID: doctorID,
		childID:  kid.ID,
	}
}

func (f *fixture) goodTransaction(reference string) {
	f.verifier.transactions[reference] = &paystack.Transaction{
		Reference: reference,
		Status:    "success",
		Amount:    consultationFee * 100,
		Currency:  Currency,
		Channel:   "card",
		PaidAt:    time.Date(2026, time.March, 10, 10, 30, 0, 0, time.UTC),
	}
}

func (f *fixture) bookingRequest(reference string) *appointment.BookingRequest {
	return &appointment.BookingRequest{
		DoctorID:         f.doctorID,
		ChildID:          f.childID,
		ScheduledAt:      time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour + 10*time.Hour),
		PaymentReference: reference,
	}
}

func TestConfirmBooking(t *testing.T) {
	f := newFixture(t)
	f.goodTransaction("ref-1")

	result, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("ref-1"))
	if err != nil {
		t.Fatalf("confirm booking: %v", err)
	}

	if result.Appointment.Status != appointment.StatusConfirmed {
		t.Errorf("appointment status = %q, want confirmed", result.Appointment.Status)
	}
	if result.Payment.Amount != consultationFee || result.Payment.Currency != Currency {
		t.Errorf("payment = %d %s, want %d %s", result.Payment.Amount, result.Payment.Currency, consultationFee, Currency)
	}
	if result.Payment.Status != PaymentSuccess || result.Payment.PaidAt == nil {
		t.Errorf("payment status=%q paidAt=%v", result.Payment.Status, result.Payment.PaidAt)
	}
	if result.Invoice.Status != InvoicePaid {
		t.Errorf("invoice status = %q, want paid", result.Invoice.Status)
	}
	if result.Invoice.PaymentID != result.Payment.ID || result.Invoice.AppointmentID != result.Appointment.ID {
		t.Error("invoice not linked to its payment and appointment")
	}
}

func TestConfirmBookingReplaysReference(t *testing.T) {
	f := newFixture(t)
	f.goodTransaction("ref-2")

	first, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("ref-2"))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	second, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("ref-2"))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.Appointment.ID != first.Appointment.ID {
		t.Error("replay created a second appointment")
	}
	if len(f.repo.payments) != 1 {
		t.Errorf("replay recorded %d payments, want 1", len(f.repo.payments))
	}
	if f.verifier.calls != 1 {
		t.Errorf("replay re-verified the reference (%d calls)", f.verifier.calls)
	}
}

func TestConfirmBookingReplayByStranger(t *testing.T) {
	f := newFixture(t)
	f.goodTransaction("ref-3")

	if _, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("ref-3")); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := f.svc.ConfirmBooking(context.Background(), uuid.New(), f.bookingRequest("ref-3")); !errors.Is(err, appointment.ErrNotParticipant) {
		t.Errorf("stranger replay: got %v, want ErrNotParticipant", err)
	}
}

func TestConfirmBookingFailures(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("")); !errors.Is(err, ErrMissingRef) {
		t.Errorf("empty reference: got %v, want ErrMissingRef", err)
	}

	if _, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("unknown")); !errors.Is(err, paystack.ErrTransactionNotFound) {
		t.Errorf("unknown reference: got %v, want ErrTransactionNotFound", err)
	}

	f.verifier.failures["declined"] = paystack.ErrTransactionFailed
	if _, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("declined")); !errors.Is(err, paystack.ErrTransactionFailed) {
		t.Errorf("declined reference: got %v, want ErrTransactionFailed", err)
	}

	f.verifier.transactions["short"] = &paystack.Transaction{
		Reference: "short", Status: "success", Amount: 100, Currency: Currency,
	}
	if _, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("short")); !errors.Is(err, ErrAmountMismatch) {
		t.Errorf("underpaid reference: got %v, want ErrAmountMismatch", err)
	}

	if len(f.repo.payments) != 0 || len(f.repo.invoices) != 0 {
		t.Error("failed bookings left records behind")
	}
}

func TestGetInvoiceForAppointmentScoped(t *testing.T) {
	f := newFixture(t)
	f.goodTransaction("ref-4")

	result, err := f.svc.ConfirmBooking(context.Background(), f.parentID, f.bookingRequest("ref-4"))
	if err != nil {
		t.Fatalf("confirm booking: %v", err)
	}
	if _, err := f.svc.GetInvoiceForAppointment(context.Background(), result.Appointment.ID, f.parentID); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := f.svc.GetInvoiceForAppointment(context.Background(), result.Appointment.ID, uuid.New()); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("stranger read: got %v, want ErrInvoiceNotFound", err)
	}
}
