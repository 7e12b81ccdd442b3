// Package identity manages accounts, sessions, profiles and the doctor
// directory.
package identity

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/pediacare/api/internal/platform/auth"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrDoctorNotFound     = errors.New("doctor profile not found")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)

// Profile is the account record shared by parents, doctors and admins.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Role        string     `json:"role"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Location    *string    `json:"location,omitempty"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DoctorProfile extends a doctor account with practice details. The ID is
// the owning profile's ID.
type DoctorProfile struct {
	ID                  uuid.UUID `json:"id"`
	LicenseNumber       string    `json:"license_number"`
	Specialization      string    `json:"specialization"`
	ExperienceYears     int       `json:"experience_years"`
	HospitalAffiliation *string   `json:"hospital_affiliation,omitempty"`
	ConsultationFee     int64     `json:"consultation_fee"`
	Bio                 *string   `json:"bio,omitempty"`
	Languages           []string  `json:"languages"`
	IsAvailable         bool      `json:"is_available"`
	Rating              float64   `json:"rating"`
	TotalConsultations  int       `json:"total_consultations"`
	Verified            bool      `json:"verified"`
	CreatedAt           time.Time `json:"created_at"`

	Profile *Profile `json:"profile,omitempty"`
}

// SignUpRequest creates a parent or doctor account.
type SignUpRequest struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone,omitempty"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	Role            string  `json:"role"`
}

// Validate checks the request before any account state is touched. A
// password/confirmation mismatch must fail here, never after storage.
func (r *SignUpRequest) Validate() error {
	if len(r.FirstName) < 2 || len(r.LastName) < 2 {
		return fmt.Errorf("first_name and last_name must be at least 2 characters")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Role != auth.RoleParent && r.Role != auth.RoleDoctor {
		return fmt.Errorf("role must be parent or doctor")
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return ValidatePasswordStrength(r.Password)
}

// ValidatePasswordStrength enforces the platform password policy: at least
// 8 characters with an upper-case letter, a lower-case letter and a digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("password must contain an upper-case letter, a lower-case letter and a digit")
	}
	return nil
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirm struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Session is returned by signup, signin and refresh.
type Session struct {
	User   *Profile        `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// ProfileUpdate carries the fields an account owner may change.
type ProfileUpdate struct {
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Location    *string    `json:"location,omitempty"`
}

// DoctorProfileUpdate carries the practice fields a doctor may change.
type DoctorProfileUpdate struct {
	LicenseNumber       *string  `json:"license_number,omitempty"`
	Specialization      *string  `json:"specialization,omitempty"`
	ExperienceYears     *int     `json:"experience_years,omitempty"`
	HospitalAffiliation *string  `json:"hospital_affiliation,omitempty"`
	ConsultationFee     *int64   `json:"consultation_fee,omitempty"`
	Bio                 *string  `json:"bio,omitempty"`
	Languages           []string `json:"languages,omitempty"`
	IsAvailable         *bool    `json:"is_available,omitempty"`
}
