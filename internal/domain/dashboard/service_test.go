package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/domain/disease"
	"github.com/pediacare/api/internal/domain/prediction"
	"github.com/pediacare/api/internal/platform/blobstore"
)

type memRepo struct {
	parentStats map[uuid.UUID]*ParentStats
	doctorStats map[uuid.UUID]*DoctorStats
	upcoming    map[uuid.UUID][]*AppointmentSummary
	today       map[uuid.UUID][]*AppointmentSummary
}

func newMemRepo() *memRepo {
	return &memRepo{
		parentStats: make(map[uuid.UUID]*ParentStats),
		doctorStats: make(map[uuid.UUID]*DoctorStats),
		upcoming:    make(map[uuid.UUID][]*AppointmentSummary),
		today:       make(map[uuid.UUID][]*AppointmentSummary),
	}
}

func (m *memRepo) ParentStats(_ context.Context, parentID uuid.UUID, _ time.Time) (*ParentStats, error) {
	if s, ok := m.parentStats[parentID]; ok {
		return s, nil
	}
	return &ParentStats{}, nil
}

func (m *memRepo) UpcomingForParent(_ context.Context, parentID uuid.UUID, _ time.Time, limit int) ([]*AppointmentSummary, error) {
	out := m.upcoming[parentID]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) DoctorStats(_ context.Context, doctorID uuid.UUID, _, _ time.Time) (*DoctorStats, error) {
	if s, ok := m.doctorStats[doctorID]; ok {
		return s, nil
	}
	return &DoctorStats{}, nil
}

func (m *memRepo) TodayForDoctor(_ context.Context, doctorID uuid.UUID, _, _ time.Time) ([]*AppointmentSummary, error) {
	return m.today[doctorID], nil
}

type memPredictionRepo struct {
	byParent map[uuid.UUID][]*prediction.Prediction
}

func (m *memPredictionRepo) Create(_ context.Context, p *prediction.Prediction) error { return nil }

func (m *memPredictionRepo) GetByID(_ context.Context, id uuid.UUID) (*prediction.Prediction, error) {
	return nil, prediction.ErrPredictionNotFound
}

func (m *memPredictionRepo) ListByChild(_ context.Context, childID uuid.UUID, limit, offset int) ([]*prediction.Prediction, int, error) {
	return nil, 0, nil
}

func (m *memPredictionRepo) ListByParent(_ context.Context, parentID uuid.UUID, limit, offset int) ([]*prediction.Prediction, int, error) {
	out := m.byParent[parentID]
	total := len(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memPredictionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	return nil
}

func (m *memPredictionRepo) MarkReportDownloaded(_ context.Context, id uuid.UUID) error { return nil }

type memChildRepo struct{}

func (memChildRepo) Create(_ context.Context, c *child.Child) error { return nil }
func (memChildRepo) GetByID(_ context.Context, id uuid.UUID) (*child.Child, error) {
	return nil, child.ErrChildNotFound
}
func (memChildRepo) ListByParent(_ context.Context, parentID uuid.UUID) ([]*child.Child, error) {
	return nil, nil
}
func (memChildRepo) Update(_ context.Context, c *child.Child) error { return nil }
func (memChildRepo) Delete(_ context.Context, id uuid.UUID) error   { return nil }

type memDiseaseRepo struct{}

func (memDiseaseRepo) GetByID(_ context.Context, id uuid.UUID) (*disease.Disease, error) {
	return nil, disease.ErrDiseaseNotFound
}
func (memDiseaseRepo) List(_ context.Context, category string, limit, offset int) ([]*disease.Disease, int, error) {
	return nil, 0, nil
}
func (memDiseaseRepo) ListAll(_ context.Context) ([]*disease.Disease, error) { return nil, nil }
func (memDiseaseRepo) Insert(_ context.Context, d *disease.Disease) error   { return nil }
func (memDiseaseRepo) Count(_ context.Context) (int, error)                 { return 0, nil }

func newTestService() (*Service, *memRepo, *memPredictionRepo) {
	repo := newMemRepo()
	predRepo := &memPredictionRepo{byParent: make(map[uuid.UUID][]*prediction.Prediction)}

	catalog := disease.NewService(memDiseaseRepo{})
	children := child.NewService(memChildRepo{}, blobstore.NewInMemoryBlobStore(), zerolog.Nop())
	predictions := prediction.NewService(predRepo, prediction.NewMockEngine(catalog), children, catalog, zerolog.Nop())

	return NewService(repo, predictions, zerolog.Nop()), repo, predRepo
}

func TestParentDashboard(t *testing.T) {
	svc, repo, predRepo := newTestService()
	parentID := uuid.New()

	repo.parentStats[parentID] = &ParentStats{
		Children:             2,
		UpcomingAppointments: 1,
		Predictions:          7,
		UnreadMessages:       3,
	}
	repo.upcoming[parentID] = []*AppointmentSummary{
		{ID: uuid.New(), ParentID: parentID, Status: "confirmed"},
	}
	for i := 0; i < 7; i++ {
		predRepo.byParent[parentID] = append(predRepo.byParent[parentID], &prediction.Prediction{
			ID: uuid.New(), Status: prediction.StatusCompleted,
		})
	}

	d, err := svc.Parent(context.Background(), parentID)
	if err != nil {
		t.Fatalf("parent dashboard: %v", err)
	}
	if d.Stats.Children != 2 || d.Stats.UnreadMessages != 3 {
		t.Errorf("stats = %+v", d.Stats)
	}
	if len(d.UpcomingAppointments) != 1 {
		t.Errorf("upcoming = %d, want 1", len(d.UpcomingAppointments))
	}
	if len(d.RecentPredictions) != recentPredictionsLimit {
		t.Errorf("recent predictions = %d, want %d", len(d.RecentPredictions), recentPredictionsLimit)
	}
}

func TestParentDashboardEmpty(t *testing.T) {
	svc, _, _ := newTestService()

	d, err := svc.Parent(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("parent dashboard: %v", err)
	}
	if d.UpcomingAppointments == nil || d.RecentPredictions == nil {
		t.Error("empty dashboard lists must not be nil")
	}
	if d.Stats.Children != 0 {
		t.Errorf("stats = %+v, want zeros", d.Stats)
	}
}

func TestDoctorDashboard(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := uuid.New()

	repo.doctorStats[doctorID] = &DoctorStats{
		TodayConsultations:     3,
		TotalPatients:          12,
		CompletedConsultations: 40,
		Revenue:                600000,
	}
	repo.today[doctorID] = []*AppointmentSummary{
		{ID: uuid.New(), DoctorID: doctorID, Status: "confirmed"},
		{ID: uuid.New(), DoctorID: doctorID, Status: "pending"},
		{ID: uuid.New(), DoctorID: doctorID, Status: "completed"},
	}

	d, err := svc.Doctor(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("doctor dashboard: %v", err)
	}
	if d.Stats.Revenue != 600000 || d.Stats.TotalPatients != 12 {
		t.Errorf("stats = %+v", d.Stats)
	}
	if len(d.TodayAppointments) != 3 {
		t.Errorf("today = %d, want 3", len(d.TodayAppointments))
	}
}
