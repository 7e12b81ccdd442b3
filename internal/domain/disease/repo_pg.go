package disease

import (
	"context"
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

const diseaseCols = `id, name, name_fr, category, common_symptoms, causes, prevention_methods,
	minsante_approved_treatment, natural_treatment, severity_level, age_group,
	prevalence_in_cameroon, is_epidemic_risk, created_at`

func scanDisease(row pgx.Row) (*Disease, error) {
	var d Disease
	err := row.Scan(
		&d.ID, &d.Name, &d.NameFr, &d.Category, &d.CommonSymptoms, &d.Causes, &d.PreventionMethods,
		&d.ApprovedTreatment, &d.NaturalTreatment, &d.SeverityLevel, &d.AgeGroup,
		&d.PrevalenceInCameroon, &d.IsEpidemicRisk, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiseaseNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Disease, error) {
	return scanDisease(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diseaseCols+` FROM diseases WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, category string, limit, offset int) ([]*Disease, int, error) {
	where := ``
	args := []interface{}{}
	if category != "" {
		where = ` WHERE category = $1`
		args = append(args, category)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM diseases`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+diseaseCols+` FROM diseases`+where+
			` ORDER BY name_fr`+fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var diseases []*Disease
	for rows.Next() {
		d, err := scanDisease(rows)
		if err != nil {
			return nil, 0, err
		}
		diseases = append(diseases, d)
	}
	return diseases, total, rows.Err()
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Disease, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+diseaseCols+` FROM diseases ORDER BY name_fr`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diseases []*Disease
	for rows.Next() {
		d, err := scanDisease(rows)
		if err != nil {
			return nil, err
		}
		diseases = append(diseases, d)
	}
	return diseases, rows.Err()
}

func (r *repoPG) Insert(ctx context.Context, d *Disease) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diseases (
			id, name, name_fr, category, common_symptoms, causes, prevention_methods,
			minsante_approved_treatment, natural_treatment, severity_level, age_group,
			prevalence_in_cameroon, is_epidemic_risk
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (name_fr) DO NOTHING`,
		d.ID, d.Name, d.NameFr, d.Category, d.CommonSymptoms, d.Causes, d.PreventionMethods,
		d.ApprovedTreatment, d.NaturalTreatment, d.SeverityLevel, d.AgeGroup,
		d.PrevalenceInCameroon, d.IsEpidemicRisk,
	)
	return err
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM diseases`).Scan(&n)
	return n, err
}
