package identity

import (
	"context"
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

// -- Profile Repository --

type profileRepoPG struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepoPG{pool: pool}
}

func (r *profileRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const profileCols = `id, role, first_name, last_name, email, phone, avatar_url,
	date_of_birth, location, is_verified, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.Role, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.AvatarURL,
		&p.DateOfBirth, &p.Location, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile, passwordHash string) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO profiles (
			id, role, first_name, last_name, email, password_hash, phone, avatar_url,
			date_of_birth, location, is_verified
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.Role, p.FirstName, p.LastName, p.Email, passwordHash, p.Phone, p.AvatarURL,
		p.DateOfBirth, p.Location, p.IsVerified,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE id = $1`, id))
}

func (r *profileRepoPG) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE lower(email) = lower($1)`, email))
}

func (r *profileRepoPG) GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	var hash string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT password_hash FROM profiles WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProfileNotFound
	}
	return hash, err
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE profiles SET
			first_name=$2, last_name=$3, phone=$4, avatar_url=$5,
			date_of_birth=$6, location=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Phone, p.AvatarURL, p.DateOfBirth, p.Location,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE profiles SET password_hash=$2, updated_at=NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepoPG) CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1,$2,$3,$4)`,
		uuid.New(), userID, tokenHash, expiresAt,
	)
	return err
}

func (r *profileRepoPG) ConsumeResetToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `
		DELETE FROM password_reset_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
		RETURNING user_id`, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrInvalidResetToken
	}
	return userID, err
}

// -- Doctor Repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `d.id, d.license_number, d.specialization, d.experience_years,
	d.hospital_affiliation, d.consultation_fee, d.bio, d.languages, d.is_available,
	d.rating, d.total_consultations, d.verified_by_minsante, d.created_at`

func scanDoctor(row pgx.Row) (*DoctorProfile, error) {
	var d DoctorProfile
	var p Profile
	err := row.Scan(
		&d.ID, &d.LicenseNumber, &d.Specialization, &d.ExperienceYears,
		&d.HospitalAffiliation, &d.ConsultationFee, &d.Bio, &d.Languages, &d.IsAvailable,
		&d.Rating, &d.TotalConsultations, &d.Verified, &d.CreatedAt,
		&p.ID, &p.Role, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.AvatarURL,
		&p.DateOfBirth, &p.Location, &p.IsVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	d.Profile = &p
	return &d, nil
}

const doctorSelect = `SELECT ` + doctorCols + `, ` + `p.id, p.role, p.first_name, p.last_name,
	p.email, p.phone, p.avatar_url, p.date_of_birth, p.location, p.is_verified,
	p.created_at, p.updated_at
	FROM doctor_profiles d JOIN profiles p ON p.id = d.id`

func (r *doctorRepoPG) Upsert(ctx context.Context, d *DoctorProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profiles (
			id, license_number, specialization, experience_years, hospital_affiliation,
			consultation_fee, bio, languages, is_available
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			license_number=EXCLUDED.license_number,
			specialization=EXCLUDED.specialization,
			experience_years=EXCLUDED.experience_years,
			hospital_affiliation=EXCLUDED.hospital_affiliation,
			consultation_fee=EXCLUDED.consultation_fee,
			bio=EXCLUDED.bio,
			languages=EXCLUDED.languages,
			is_available=EXCLUDED.is_available`,
		d.ID, d.LicenseNumber, d.Specialization, d.ExperienceYears, d.HospitalAffiliation,
		d.ConsultationFee, d.Bio, d.Languages, d.IsAvailable,
	)
	return err
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id))
}

func (r *doctorRepoPG) ListAvailable(ctx context.Context, specialization string, limit, offset int) ([]*DoctorProfile, int, error) {
	where := ` WHERE d.is_available`
	countSQL := `SELECT COUNT(*) FROM doctor_profiles d` + where
	args := []interface{}{}
	if specialization != "" {
		where += ` AND d.specialization ILIKE $1`
		countSQL = `SELECT COUNT(*) FROM doctor_profiles d WHERE d.is_available AND d.specialization ILIKE $1`
		args = append(args, "%"+specialization+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := doctorSelect + where +
		` ORDER BY d.rating DESC, p.last_name` +
		fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*DoctorProfile
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, d)
	}
	return doctors, total, rows.Err()
}

func (r *doctorRepoPG) RecordConsultation(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor_profiles SET total_consultations = total_consultations + 1 WHERE id = $1`, id)
	return err
}
