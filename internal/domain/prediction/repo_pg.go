package prediction

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

const predictionCols = `id, child_id, symptoms, additional_info, predicted_disease_id,
	confidence_score, ml_model_version, status, report_generated_at, report_downloaded, created_at`

func scanPrediction(row pgx.Row) (*Prediction, error) {
	var p Prediction
	var symptoms, info []byte
	err := row.Scan(
		&p.ID, &p.ChildID, &symptoms, &info, &p.PredictedDiseaseID,
		&p.ConfidenceScore, &p.ModelVersion, &p.Status, &p.ReportGeneratedAt,
		&p.ReportDownloaded, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPredictionNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(symptoms, &p.Symptoms); err != nil {
		return nil, fmt.Errorf("decode symptoms: %w", err)
	}
	if err := json.Unmarshal(info, &p.AdditionalInfo); err != nil {
		return nil, fmt.Errorf("decode additional_info: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prediction) error {
	p.ID = uuid.New()
	symptoms, err := json.Marshal(p.Symptoms)
	if err != nil {
		return err
	}
	info, err := json.Marshal(p.AdditionalInfo)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO predictions (
			id, child_id, symptoms, additional_info, predicted_disease_id,
			confidence_score, ml_model_version, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.ChildID, symptoms, info, p.PredictedDiseaseID,
		p.ConfidenceScore, p.ModelVersion, p.Status,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	return scanPrediction(r.conn(ctx).QueryRow(ctx,
		`SELECT `+predictionCols+` FROM predictions WHERE id = $1`, id))
}

func (r *repoPG) ListByChild(ctx context.Context, childID uuid.UUID, limit, offset int) ([]*Prediction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM predictions WHERE child_id = $1`, childID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+predictionCols+` FROM predictions WHERE child_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, childID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return collectPredictions(rows, total)
}

func (r *repoPG) ListByParent(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*Prediction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM predictions p
		JOIN children c ON c.id = p.child_id
		WHERE c.parent_id = $1`, parentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+prefixedPredictionCols("p")+` FROM predictions p
		JOIN children c ON c.id = p.child_id
		WHERE c.parent_id = $1
		ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`, parentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return collectPredictions(rows, total)
}

func prefixedPredictionCols(alias string) string {
	return alias + `.id, ` + alias + `.child_id, ` + alias + `.symptoms, ` + alias + `.additional_info, ` +
		alias + `.predicted_disease_id, ` + alias + `.confidence_score, ` + alias + `.ml_model_version, ` +
		alias + `.status, ` + alias + `.report_generated_at, ` + alias + `.report_downloaded, ` + alias + `.created_at`
}

func collectPredictions(rows pgx.Rows, total int) ([]*Prediction, int, error) {
	defer rows.Close()
	var predictions []*Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, 0, err
		}
		predictions = append(predictions, p)
	}
	return predictions, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE predictions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPredictionNotFound
	}
	return nil
}

func (r *repoPG) MarkReportDownloaded(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE predictions SET report_downloaded = TRUE,
			report_generated_at = COALESCE(report_generated_at, NOW())
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPredictionNotFound
	}
	return nil
}
