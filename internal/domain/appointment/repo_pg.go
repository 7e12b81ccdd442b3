package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

const apptCols = `id, prediction_id, parent_id, doctor_id, child_id, scheduled_at,
	duration_minutes, consultation_type, status, fee_amount, meeting_link, notes,
	prescription, diagnosis_confirmed, reminder_sent, created_at, completed_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var prescription []byte
	err := row.Scan(
		&a.ID, &a.PredictionID, &a.ParentID, &a.DoctorID, &a.ChildID, &a.ScheduledAt,
		&a.DurationMinutes, &a.ConsultationType, &a.Status, &a.FeeAmount, &a.MeetingLink, &a.Notes,
		&prescription, &a.DiagnosisOK, &a.ReminderSent, &a.CreatedAt, &a.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(prescription, &a.Prescription); err != nil {
		return nil, fmt.Errorf("decode prescription: %w", err)
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Prescription == nil {
		a.Prescription = map[string]interface{}{}
	}
	prescription, err := json.Marshal(a.Prescription)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (
			id, prediction_id, parent_id, doctor_id, child_id, scheduled_at,
			duration_minutes, consultation_type, status, fee_amount, meeting_link, prescription
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.PredictionID, a.ParentID, a.DoctorID, a.ChildID, a.ScheduledAt,
		a.DurationMinutes, a.ConsultationType, a.Status, a.FeeAmount, a.MeetingLink, prescription,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) listBy(ctx context.Context, column string, owner uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+column+` = $1`, owner).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE `+column+` = $1
		 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`, owner, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}

func (r *repoPG) ListByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, "parent_id", parentID, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listBy(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status=$2, completed_at=$3 WHERE id = $1`, id, status, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *repoPG) Complete(ctx context.Context, a *Appointment) error {
	prescription, err := json.Marshal(a.Prescription)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET
			status=$2, notes=$3, prescription=$4, diagnosis_confirmed=$5, completed_at=$6
		WHERE id = $1`,
		a.ID, a.Status, a.Notes, prescription, a.DiagnosisOK, a.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *repoPG) ListDueForReminder(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE status = $1 AND reminder_sent = FALSE AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at`, StatusConfirmed, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *repoPG) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET reminder_sent = TRUE WHERE id = $1`, id)
	return err
}
