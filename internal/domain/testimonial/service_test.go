package testimonial

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/identity"
)

type memRepo struct {
	testimonials map[uuid.UUID]*Testimonial
	clock        time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		testimonials: make(map[uuid.UUID]*Testimonial),
		clock:        time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) Create(_ context.Context, t *Testimonial) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Minute)
	t.CreatedAt = m.clock
	m.testimonials[t.ID] = t
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Testimonial, error) {
	t, ok := m.testimonials[id]
	if !ok {
		return nil, ErrTestimonialNotFound
	}
	return t, nil
}

func (m *memRepo) ListByStatus(_ context.Context, status string, limit, offset int) ([]*Testimonial, int, error) {
	var out []*Testimonial
	for _, t := range m.testimonials {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	t, ok := m.testimonials[id]
	if !ok {
		return ErrTestimonialNotFound
	}
	t.Status = status
	return nil
}

type memProfiles struct {
	profiles map[uuid.UUID]*identity.Profile
}

func (m *memProfiles) Create(_ context.Context, p *identity.Profile, _ string) error { return nil }

func (m *memProfiles) GetByID(_ context.Context, id uuid.UUID) (*identity.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	return p, nil
}

func (m *memProfiles) GetByEmail(_ context.Context, email string) (*identity.Profile, error) {
	return nil, identity.ErrProfileNotFound
}

func (m *memProfiles) GetPasswordHash(_ context.Context, id uuid.UUID) (string, error) {
	return "", identity.ErrProfileNotFound
}

func (m *memProfiles) Update(_ context.Context, p *identity.Profile) error { return nil }

func (m *memProfiles) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error { return nil }

func (m *memProfiles) CreateResetToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return nil
}

func (m *memProfiles) ConsumeResetToken(_ context.Context, tokenHash string) (uuid.UUID, error) {
	return uuid.Nil, identity.ErrInvalidResetToken
}

func newTestService() (*Service, *memRepo, uuid.UUID) {
	userID := uuid.New()
	profiles := &memProfiles{profiles: map[uuid.UUID]*identity.Profile{
		userID: {ID: userID, FirstName: "Claire", LastName: "Nkoulou"},
	}}
	repo := newMemRepo()
	return NewService(repo, profiles, zerolog.Nop()), repo, userID
}

func TestSubmit(t *testing.T) {
	svc, _, userID := newTestService()

	loc := "Douala"
	got, err := svc.Submit(context.Background(), userID, &SubmitRequest{
		Content:  "Une application qui a changé notre suivi médical.",
		Rating:   5,
		Location: &loc,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.FullName != "Claire Nkoulou" {
		t.Errorf("full name = %q", got.FullName)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _, userID := newTestService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, userID, &SubmitRequest{Content: "Trop court.", Rating: 4}); err == nil {
		t.Error("short content accepted")
	}
	if _, err := svc.Submit(ctx, userID, &SubmitRequest{
		Content: "Un témoignage suffisamment long pour passer.", Rating: 0,
	}); err == nil {
		t.Error("zero rating accepted")
	}
	if _, err := svc.Submit(ctx, userID, &SubmitRequest{
		Content: "Un témoignage suffisamment long pour passer.", Rating: 6,
	}); err == nil {
		t.Error("rating above 5 accepted")
	}
	if _, err := svc.Submit(ctx, uuid.New(), &SubmitRequest{
		Content: "Un témoignage suffisamment long pour passer.", Rating: 4,
	}); !errors.Is(err, identity.ErrProfileNotFound) {
		t.Errorf("unknown author: got %v, want ErrProfileNotFound", err)
	}
}

func TestModerationGatesListing(t *testing.T) {
	svc, _, userID := newTestService()
	ctx := context.Background()

	first, err := svc.Submit(ctx, userID, &SubmitRequest{
		Content: "Première expérience, très satisfaite du service.", Rating: 5,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := svc.Submit(ctx, userID, &SubmitRequest{
		Content: "Deuxième avis, la prise de rendez-vous est simple.", Rating: 3,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	approved, _, _, err := svc.ListApproved(ctx, 20, 0)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(approved) != 0 {
		t.Fatalf("pending testimonials visible publicly: %d", len(approved))
	}

	if _, err := svc.Moderate(ctx, first.ID, StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Moderate(ctx, second.ID, StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	approved, total, average, err := svc.ListApproved(ctx, 20, 0)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if total != 2 || len(approved) != 2 {
		t.Fatalf("approved = %d/%d, want 2", len(approved), total)
	}
	if approved[0].ID != second.ID {
		t.Error("listing not newest first")
	}
	if average != 4 {
		t.Errorf("average = %v, want 4", average)
	}
}

func TestModerateRejections(t *testing.T) {
	svc, _, userID := newTestService()
	ctx := context.Background()

	sub, err := svc.Submit(ctx, userID, &SubmitRequest{
		Content: "Un avis qui sera finalement rejeté par l'équipe.", Rating: 1,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Moderate(ctx, sub.ID, "published"); err == nil {
		t.Error("unknown moderation status accepted")
	}
	if _, err := svc.Moderate(ctx, uuid.New(), StatusApproved); !errors.Is(err, ErrTestimonialNotFound) {
		t.Errorf("unknown id: got %v, want ErrTestimonialNotFound", err)
	}
	if _, err := svc.Moderate(ctx, sub.ID, StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	pending, _, err := svc.ListPending(ctx, 20, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("rejected testimonial still pending")
	}
}
