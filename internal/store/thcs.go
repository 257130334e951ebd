package store

import (
	"context"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

func (s *Store) CreateThc(ctx context.Context, t *models.Thc) error {
	if err := s.conn(ctx).Create(t).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("thc_number", "THC number "+t.ThcNumber+" already exists")
		}
		return err
	}
	return nil
}

func (s *Store) GetThc(ctx context.Context, id uint) (*models.Thc, error) {
	var t models.Thc
	if err := s.conn(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, "thc", id)
	}
	return &t, nil
}

// ListThcs lists THCs newest first; manifestID 0 means all manifests.
func (s *Store) ListThcs(ctx context.Context, manifestID uint) ([]models.Thc, error) {
	q := s.conn(ctx).Model(&models.Thc{})
	if manifestID != 0 {
		q = q.Where("manifest_id = ?", manifestID)
	}

	var thcs []models.Thc
	if err := q.Order("created_at DESC").Order("id DESC").Find(&thcs).Error; err != nil {
		return nil, err
	}
	return thcs, nil
}

func (s *Store) SaveThc(ctx context.Context, t *models.Thc) error {
	return s.conn(ctx).Save(t).Error
}
