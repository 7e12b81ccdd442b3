// Package payment records Paystack card payments and the invoices they
// settle. Booking confirmation is the entry point: a verified payment
// reference creates the appointment, the payment and the invoice in one
// transaction.
package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrMissingRef      = errors.New("payment reference is required")
	ErrAmountMismatch  = errors.New("paid amount does not match the consultation fee")
)

// Consultations are billed in Central African francs.
const Currency = "XAF"

const (
	MethodCard       = "card"
	ProviderPaystack = "paystack"
)

// Payment statuses.
const (
	PaymentSuccess  = "success"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Invoice statuses.
const (
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
)

type Payment struct {
	ID              uuid.UUID              `json:"id"`
	AppointmentID   uuid.UUID              `json:"appointment_id"`
	ParentID        uuid.UUID              `json:"parent_id"`
	Amount          int64                  `json:"amount"`
	Currency        string                 `json:"currency"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentProvider string                 `json:"payment_provider"`
	Reference       string                 `json:"reference"`
	Status          string                 `json:"status"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	Metadata        map[string]interface{} `json:"metadata"`
	CreatedAt       time.Time              `json:"created_at"`
}

type Invoice struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	PaymentID     uuid.UUID  `json:"payment_id"`
	ParentID      uuid.UUID  `json:"parent_id"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	IssuedAt      time.Time  `json:"issued_at"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
