package payment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPaymentByReference(ctx context.Context, reference string) (*Payment, error)
	ListPaymentsByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Payment, int, error)

	CreateInvoice(ctx context.Context, inv *Invoice) error
	GetInvoiceByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)
	ListInvoicesByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
}
