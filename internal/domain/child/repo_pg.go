package child

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

const childCols = `id, parent_id, first_name, last_name, date_of_birth, gender, blood_type,
	allergies, chronic_conditions, vaccination_status, weight_history, height_history,
	photo_url, created_at, updated_at`

func scanChild(row pgx.Row) (*Child, error) {
	var c Child
	var vaccination, weights, heights []byte
	err := row.Scan(
		&c.ID, &c.ParentID, &c.FirstName, &c.LastName, &c.DateOfBirth, &c.Gender, &c.BloodType,
		&c.Allergies, &c.ChronicConditions, &vaccination, &weights, &heights,
		&c.PhotoURL, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChildNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(vaccination, &c.VaccinationStatus); err != nil {
		return nil, fmt.Errorf("decode vaccination_status: %w", err)
	}
	if err := json.Unmarshal(weights, &c.WeightHistory); err != nil {
		return nil, fmt.Errorf("decode weight_history: %w", err)
	}
	if err := json.Unmarshal(heights, &c.HeightHistory); err != nil {
		return nil, fmt.Errorf("decode height_history: %w", err)
	}
	return &c, nil
}

func marshalHistories(c *Child) (vaccination, weights, heights []byte, err error) {
	if c.VaccinationStatus == nil {
		c.VaccinationStatus = map[string]string{}
	}
	if c.WeightHistory == nil {
		c.WeightHistory = []GrowthEntry{}
	}
	if c.HeightHistory == nil {
		c.HeightHistory = []GrowthEntry{}
	}
	if vaccination, err = json.Marshal(c.VaccinationStatus); err != nil {
		return
	}
	if weights, err = json.Marshal(c.WeightHistory); err != nil {
		return
	}
	heights, err = json.Marshal(c.HeightHistory)
	return
}

func (r *repoPG) Create(ctx context.Context, c *Child) error {
	c.ID = uuid.New()
	vaccination, weights, heights, err := marshalHistories(c)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO children (
			id, parent_id, first_name, last_name, date_of_birth, gender, blood_type,
			allergies, chronic_conditions, vaccination_status, weight_history, height_history,
			photo_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		c.ID, c.ParentID, c.FirstName, c.LastName, c.DateOfBirth, c.Gender, c.BloodType,
		c.Allergies, c.ChronicConditions, vaccination, weights, heights, c.PhotoURL,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Child, error) {
	return scanChild(r.conn(ctx).QueryRow(ctx,
		`SELECT `+childCols+` FROM children WHERE id = $1`, id))
}

func (r *repoPG) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*Child, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+childCols+` FROM children WHERE parent_id = $1 ORDER BY created_at DESC`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []*Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, c *Child) error {
	vaccination, weights, heights, err := marshalHistories(c)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE children SET
			first_name=$2, last_name=$3, date_of_birth=$4, gender=$5, blood_type=$6,
			allergies=$7, chronic_conditions=$8, vaccination_status=$9,
			weight_history=$10, height_history=$11, photo_url=$12, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.DateOfBirth, c.Gender, c.BloodType,
		c.Allergies, c.ChronicConditions, vaccination, weights, heights, c.PhotoURL,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChildNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM children WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChildNotFound
	}
	return nil
}
