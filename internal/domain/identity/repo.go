package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile, passwordHash string) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error)
	Update(ctx context.Context, p *Profile) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// Password reset tokens
	CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
}

type DoctorRepository interface {
	Upsert(ctx context.Context, d *DoctorProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error)
	ListAvailable(ctx context.Context, specialization string, limit, offset int) ([]*DoctorProfile, int, error)
	RecordConsultation(ctx context.Context, id uuid.UUID) error
}
