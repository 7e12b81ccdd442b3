package child

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pediacare/api/internal/platform/blobstore"
)

type Service struct {
	repo   Repository
	blobs  blobstore.BlobStore
	logger zerolog.Logger
}

func NewService(repo Repository, blobs blobstore.BlobStore, logger zerolog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// owned loads a child and verifies the caller is the parent.
func (s *Service) owned(ctx context.Context, childID, parentID uuid.UUID) (*Child, error) {
	c, err := s.repo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if c.ParentID != parentID {
		return nil, ErrNotOwner
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, parentID uuid.UUID, c *Child) error {
	c.ParentID = parentID
	if err := c.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, childID, parentID uuid.UUID) (*Child, error) {
	return s.owned(ctx, childID, parentID)
}

// GetForConsultation loads a child without the ownership check. It is used
// by doctor-facing flows where access is gated by an appointment.
func (s *Service) GetForConsultation(ctx context.Context, childID uuid.UUID) (*Child, error) {
	return s.repo.GetByID(ctx, childID)
}

func (s *Service) ListMine(ctx context.Context, parentID uuid.UUID) ([]*Child, error) {
	return s.repo.ListByParent(ctx, parentID)
}

func (s *Service) Update(ctx context.Context, childID, parentID uuid.UUID, upd *Child) (*Child, error) {
	c, err := s.owned(ctx, childID, parentID)
	if err != nil {
		return nil, err
	}

	c.FirstName = upd.FirstName
	c.LastName = upd.LastName
	c.DateOfBirth = upd.DateOfBirth
	c.Gender = upd.Gender
	c.BloodType = upd.BloodType
	c.Allergies = upd.Allergies
	c.ChronicConditions = upd.ChronicConditions
	if upd.VaccinationStatus != nil {
		c.VaccinationStatus = upd.VaccinationStatus
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the child record. The photo is deleted first; a storage
// failure there is logged and the record deletion proceeds anyway.
func (s *Service) Delete(ctx context.Context, childID, parentID uuid.UUID) error {
	c, err := s.owned(ctx, childID, parentID)
	if err != nil {
		return err
	}
	if c.PhotoURL != nil {
		s.deletePhotoBlob(ctx, *c.PhotoURL)
	}
	return s.repo.Delete(ctx, childID)
}

// SetPhoto stores a new photo and points the child record at it. The old
// photo is removed best-effort after the new one is in place.
func (s *Service) SetPhoto(ctx context.Context, childID, parentID uuid.UUID, fileName, contentType string, content io.Reader) (*Child, error) {
	c, err := s.owned(ctx, childID, parentID)
	if err != nil {
		return nil, err
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: contentType,
		OwnerID:     parentID.String(),
		Category:    blobstore.CategoryChildPhoto,
	}, content)
	if err != nil {
		return nil, err
	}

	oldURL := c.PhotoURL
	c.PhotoURL = &meta.URL
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	if oldURL != nil {
		s.deletePhotoBlob(ctx, *oldURL)
	}
	return c, nil
}

func (s *Service) deletePhotoBlob(ctx context.Context, photoURL string) {
	id := blobIDFromURL(photoURL)
	if id == "" {
		return
	}
	if err := s.blobs.Delete(ctx, id); err != nil && !blobstore.IsNotFound(err) {
		s.logger.Warn().Err(err).Str("blob_id", id).Msg("could not delete old child photo")
	}
}

func blobIDFromURL(u string) string {
	const prefix = "/api/v1/blobs/"
	if i := strings.Index(u, prefix); i >= 0 {
		return u[i+len(prefix):]
	}
	return ""
}

// AddGrowthMeasurement appends a weight or height point. Undated entries
// get the current date.
func (s *Service) AddGrowthMeasurement(ctx context.Context, childID, parentID uuid.UUID, m *GrowthMeasurement) (*Child, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c, err := s.owned(ctx, childID, parentID)
	if err != nil {
		return nil, err
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	entry := GrowthEntry{Date: date, Value: m.Value}
	switch m.Kind {
	case GrowthWeight:
		c.WeightHistory = append(c.WeightHistory, entry)
	case GrowthHeight:
		c.HeightHistory = append(c.HeightHistory, entry)
	default:
		return nil, fmt.Errorf("kind must be weight or height")
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
