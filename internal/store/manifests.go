package store

import (
	"context"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateManifest(ctx context.Context, m *models.Manifest) error {
	if err := s.conn(ctx).Omit("LoadingSheet", "Thcs").Create(m).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("loading_sheet_id", "loading sheet already has a manifest")
		}
		return err
	}
	return nil
}

// ManifestForSheet returns the manifest generated from sheetID, or nil when there is none.
func (s *Store) ManifestForSheet(ctx context.Context, sheetID uint) (*models.Manifest, error) {
	var m models.Manifest
	res := s.conn(ctx).Where("loading_sheet_id = ?", sheetID).Limit(1).Find(&m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &m, nil
}

// GetManifest loads the full trip aggregate: sheet, its dockets and THCs.
func (s *Store) GetManifest(ctx context.Context, id uint) (*models.Manifest, error) {
	var m models.Manifest
	err := s.conn(ctx).
		Preload("LoadingSheet").
		Preload("LoadingSheet.Dockets", func(db *gorm.DB) *gorm.DB { return db.Order("dockets.id ASC") }).
		Preload("Thcs", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC").Order("id DESC") }).
		First(&m, id).Error
	if err != nil {
		return nil, notFound(err, "manifest", id)
	}
	return &m, nil
}

func (s *Store) ListManifests(ctx context.Context) ([]models.Manifest, error) {
	var manifests []models.Manifest
	err := s.conn(ctx).
		Preload("LoadingSheet").
		Order("generated_at DESC").Order("id DESC").
		Find(&manifests).Error
	if err != nil {
		return nil, err
	}
	return manifests, nil
}
