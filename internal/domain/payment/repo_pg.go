package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pediacare/api/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const paymentCols = `id, appointment_id, parent_id, amount, currency, payment_method,
	payment_provider, reference, status, paid_at, metadata, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var metadata []byte
	err := row.Scan(
		&p.ID, &p.AppointmentID, &p.ParentID, &p.Amount, &p.Currency, &p.PaymentMethod,
		&p.PaymentProvider, &p.Reference, &p.Status, &p.PaidAt, &metadata, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
		return nil, fmt.Errorf("decode payment metadata: %w", err)
	}
	return &p, nil
}

func (r *repoPG) CreatePayment(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Metadata == nil {
		p.Metadata = map[string]interface{}{}
	}
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO payments (
			id, appointment_id, parent_id, amount, currency, payment_method,
			payment_provider, reference, status, paid_at, metadata
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.AppointmentID, p.ParentID, p.Amount, p.Currency, p.PaymentMethod,
		p.PaymentProvider, p.Reference, p.Status, p.PaidAt, metadata,
	)
	return err
}

func (r *repoPG) GetPaymentByReference(ctx context.Context, reference string) (*Payment, error) {
	return scanPayment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE reference = $1`, reference))
}

func (r *repoPG) ListPaymentsByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Payment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE parent_id = $1`, parentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE parent_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, parentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, rows.Err()
}

const invoiceCols = `id, appointment_id, payment_id, parent_id, amount, currency,
	status, issued_at, due_at, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.AppointmentID, &inv.PaymentID, &inv.ParentID, &inv.Amount, &inv.Currency,
		&inv.Status, &inv.IssuedAt, &inv.DueAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repoPG) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoices (
			id, appointment_id, payment_id, parent_id, amount, currency, status, issued_at, due_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		inv.ID, inv.AppointmentID, inv.PaymentID, inv.ParentID, inv.Amount, inv.Currency,
		inv.Status, inv.IssuedAt, inv.DueAt,
	)
	return err
}

func (r *repoPG) GetInvoiceByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	return scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE appointment_id = $1`, appointmentID))
}

func (r *repoPG) ListInvoicesByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE parent_id = $1`, parentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE parent_id = $1
		 ORDER BY issued_at DESC LIMIT $2 OFFSET $3`, parentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}
