package dashboard

import (
	"context"
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

func (r *repoPG) ParentStats(ctx context.Context, parentID uuid.UUID, now time.Time) (*ParentStats, error) {
	var stats ParentStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM children WHERE parent_id = $1),
			(SELECT COUNT(*) FROM appointments
				WHERE parent_id = $1 AND status IN ('pending','confirmed') AND scheduled_at >= $2),
			(SELECT COUNT(*) FROM predictions p
				JOIN children c ON c.id = p.child_id WHERE c.parent_id = $1),
			(SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read_at IS NULL)`,
		parentID, now,
	).Scan(&stats.Children, &stats.UpcomingAppointments, &stats.Predictions, &stats.UnreadMessages)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

const summaryCols = `id, parent_id, doctor_id, child_id, scheduled_at, consultation_type, status, fee_amount`

func scanSummaries(rows pgx.Rows) ([]*AppointmentSummary, error) {
	defer rows.Close()
	var out []*AppointmentSummary
	for rows.Next() {
		var a AppointmentSummary
		if err := rows.Scan(
			&a.ID, &a.ParentID, &a.DoctorID, &a.ChildID,
			&a.ScheduledAt, &a.ConsultationType, &a.Status, &a.FeeAmount,
		); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *repoPG) UpcomingForParent(ctx context.Context, parentID uuid.UUID, now time.Time, limit int) ([]*AppointmentSummary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+summaryCols+` FROM appointments
		WHERE parent_id = $1 AND status IN ('pending','confirmed') AND scheduled_at >= $2
		ORDER BY scheduled_at LIMIT $3`, parentID, now, limit)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (r *repoPG) DoctorStats(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) (*DoctorStats, error) {
	var stats DoctorStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM appointments
				WHERE doctor_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
				AND status IN ('pending','confirmed','completed')),
			(SELECT COUNT(DISTINCT child_id) FROM appointments WHERE doctor_id = $1),
			(SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'completed'),
			(SELECT COALESCE(SUM(fee_amount), 0) FROM appointments
				WHERE doctor_id = $1 AND status = 'completed')`,
		doctorID, dayStart, dayEnd,
	).Scan(&stats.TodayConsultations, &stats.TotalPatients, &stats.CompletedConsultations, &stats.Revenue)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repoPG) TodayForDoctor(ctx context.Context, doctorID uuid.UUID, dayStart, dayEnd time.Time) ([]*AppointmentSummary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+summaryCols+` FROM appointments
		WHERE doctor_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		AND status IN ('pending','confirmed','completed')
		ORDER BY scheduled_at`, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}
