package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/platform/auth"
	"github.com/pediacare/api/internal/platform/realtime"
)

const resetTokenTTL = time.Hour

type Service struct {
	profiles ProfileRepository
	doctors  DoctorRepository
	tokens   *auth.TokenIssuer
	events   realtime.Publisher
	logger   zerolog.Logger
}

func NewService(profiles ProfileRepository, doctors DoctorRepository, tokens *auth.TokenIssuer, events realtime.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		profiles: profiles,
		doctors:  doctors,
		tokens:   tokens,
		events:   events,
		logger:   logger,
	}
}

// SignUp creates an account and returns a signed-in session. Doctors get a
// blank, unavailable practice profile to complete before they appear in the
// directory.
func (s *Service) SignUp(ctx context.Context, req *SignUpRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &Profile{
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := s.profiles.Create(ctx, p, hash); err != nil {
		return nil, err
	}

	if p.Role == auth.RoleDoctor {
		if err := s.doctors.Upsert(ctx, &DoctorProfile{ID: p.ID, Languages: []string{}}); err != nil {
			s.logger.Error().Err(err).Str("user_id", p.ID.String()).Msg("failed to create doctor profile shell")
		}
	}

	return s.startSession(ctx, p)
}

// SignIn verifies credentials and returns a session. Unknown email and bad
// password produce the same error.
func (s *Service) SignIn(ctx context.Context, req *SignInRequest) (*Session, error) {
	p, err := s.profiles.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	hash, err := s.profiles.GetPasswordHash(ctx, p.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(hash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, p)
}

func (s *Service) startSession(ctx context.Context, p *Profile) (*Session, error) {
	pair, err := s.tokens.Issue(p.ID.String(), p.Role)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	s.publishAuthEvent(ctx, p.ID, "auth.signed_in")
	return &Session{User: p, Tokens: pair}, nil
}

// SignOut publishes the session-ended event so other open clients for the
// same account can drop their state. Tokens are stateless and simply expire.
func (s *Service) SignOut(ctx context.Context, userID uuid.UUID) {
	s.publishAuthEvent(ctx, userID, "auth.signed_out")
}

func (s *Service) publishAuthEvent(ctx context.Context, userID uuid.UUID, eventType string) {
	ev, err := realtime.NewEvent(eventType, realtime.AuthTopic(userID.String()), map[string]string{
		"user_id": userID.String(),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build auth event")
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish auth event")
	}
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	pair, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}
	claims, err := s.tokens.Parse(pair.AccessToken, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Session{User: p, Tokens: pair}, nil
}

// RequestPasswordReset issues a one-hour reset token. The result is the
// same whether or not the email exists, to avoid account enumeration; the
// token itself goes out through the notification channel, never the API
// response.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info().Str("email", email).Msg("password reset requested for unknown email")
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := s.profiles.CreateResetToken(ctx, p.ID, hashToken(token), time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// TODO: deliver the token by email once an outbound mail provider is
	// configured. Logged at debug level for local development.
	s.logger.Debug().Str("user_id", p.ID.String()).Str("token", token).Msg("password reset token issued")
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, req *PasswordResetConfirm) error {
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return err
	}

	userID, err := s.profiles.ConsumeResetToken(ctx, hashToken(req.Token))
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.profiles.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.publishAuthEvent(ctx, userID, "auth.password_changed")
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd *ProfileUpdate) (*Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FirstName != nil {
		p.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		p.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		p.Phone = upd.Phone
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = upd.AvatarURL
	}
	if upd.DateOfBirth != nil {
		p.DateOfBirth = upd.DateOfBirth
	}
	if upd.Location != nil {
		p.Location = upd.Location
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, fmt.Errorf("first_name and last_name are required")
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// -- Doctor directory --

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListAvailableDoctors(ctx context.Context, specialization string, limit, offset int) ([]*DoctorProfile, int, error) {
	return s.doctors.ListAvailable(ctx, specialization, limit, offset)
}

// UpdateDoctorProfile applies practice changes for the doctor's own record.
func (s *Service) UpdateDoctorProfile(ctx context.Context, doctorID uuid.UUID, upd *DoctorProfileUpdate) (*DoctorProfile, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if upd.LicenseNumber != nil {
		d.LicenseNumber = *upd.LicenseNumber
	}
	if upd.Specialization != nil {
		d.Specialization = *upd.Specialization
	}
	if upd.ExperienceYears != nil {
		if *upd.ExperienceYears < 0 {
			return nil, fmt.Errorf("experience_years cannot be negative")
		}
		d.ExperienceYears = *upd.ExperienceYears
	}
	if upd.HospitalAffiliation != nil {
		d.HospitalAffiliation = upd.HospitalAffiliation
	}
	if upd.ConsultationFee != nil {
		if *upd.ConsultationFee < 0 {
			return nil, fmt.Errorf("consultation_fee cannot be negative")
		}
		d.ConsultationFee = *upd.ConsultationFee
	}
	if upd.Bio != nil {
		d.Bio = upd.Bio
	}
	if upd.Languages != nil {
		d.Languages = upd.Languages
	}
	if upd.IsAvailable != nil {
		d.IsAvailable = *upd.IsAvailable
	}
	if err := s.doctors.Upsert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadPrincipal implements auth.ProfileLoader so the HTTP middleware can
// attach the caller's profile to the request context.
func (s *Service) LoadPrincipal(ctx context.Context, userID string) (*auth.Principal, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{
		ID:        p.ID.String(),
		Role:      p.Role,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}, nil
}
