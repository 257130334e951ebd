package store

import (
	"context"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateLoadingSheet(ctx context.Context, ls *models.LoadingSheet) error {
	// dockets are linked separately through LinkDockets
	if err := s.conn(ctx).Omit("Dockets").Create(ls).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("sheet_number", "sheet number "+ls.SheetNumber+" already exists")
		}
		return err
	}
	return nil
}

func (s *Store) LinkDockets(ctx context.Context, sheetID uint, docketIDs []uint) error {
	links := make([]models.LoadingSheetDocket, 0, len(docketIDs))
	for _, id := range docketIDs {
		links = append(links, models.LoadingSheetDocket{LoadingSheetID: sheetID, DocketID: id})
	}
	if err := s.conn(ctx).Create(&links).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("docket_ids", "a docket is already on another loading sheet")
		}
		return err
	}
	return nil
}

// SheetAssignments maps each already-linked docket id to its sheet number.
func (s *Store) SheetAssignments(ctx context.Context, docketIDs []uint) (map[uint]string, error) {
	var rows []struct {
		DocketID    uint
		SheetNumber string
	}
	err := s.conn(ctx).
		Table("loading_sheet_dockets").
		Select("loading_sheet_dockets.docket_id, loading_sheets.sheet_number").
		Joins("JOIN loading_sheets ON loading_sheets.id = loading_sheet_dockets.loading_sheet_id").
		Where("loading_sheet_dockets.docket_id IN ?", docketIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]string, len(rows))
	for _, r := range rows {
		out[r.DocketID] = r.SheetNumber
	}
	return out, nil
}

func (s *Store) GetLoadingSheet(ctx context.Context, id uint) (*models.LoadingSheet, error) {
	var ls models.LoadingSheet
	err := s.conn(ctx).
		Preload("Dockets", func(db *gorm.DB) *gorm.DB { return db.Order("dockets.id ASC") }).
		First(&ls, id).Error
	if err != nil {
		return nil, notFound(err, "loading sheet", id)
	}
	return &ls, nil
}

func (s *Store) ListLoadingSheets(ctx context.Context) ([]models.LoadingSheet, error) {
	var sheets []models.LoadingSheet
	err := s.conn(ctx).
		Preload("Dockets").
		Order("created_at DESC").Order("id DESC").
		Find(&sheets).Error
	if err != nil {
		return nil, err
	}
	return sheets, nil
}

func (s *Store) SheetDocketIDs(ctx context.Context, sheetID uint) ([]uint, error) {
	var ids []uint
	err := s.conn(ctx).
		Model(&models.LoadingSheetDocket{}).
		Where("loading_sheet_id = ?", sheetID).
		Order("docket_id ASC").
		Pluck("docket_id", &ids).Error
	return ids, err
}

func (s *Store) SetLoadingSheetStatus(ctx context.Context, id uint, status models.LoadingSheetStatus) error {
	res := s.conn(ctx).Model(&models.LoadingSheet{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("loading sheet", id)
	}
	return nil
}

// DocketTrail names the records a docket has passed through after booking.
type DocketTrail struct {
	SheetID    uint
	ManifestID uint
	PodIDs     []uint
}

func (s *Store) DocketTrail(ctx context.Context, docketID uint) (DocketTrail, error) {
	var trail DocketTrail

	var sheetIDs []uint
	err := s.conn(ctx).
		Model(&models.LoadingSheetDocket{}).
		Where("docket_id = ?", docketID).
		Limit(1).
		Pluck("loading_sheet_id", &sheetIDs).Error
	if err != nil {
		return trail, err
	}
	if len(sheetIDs) > 0 {
		trail.SheetID = sheetIDs[0]
		m, err := s.ManifestForSheet(ctx, trail.SheetID)
		if err != nil {
			return trail, err
		}
		if m != nil {
			trail.ManifestID = m.ID
		}
	}

	err = s.conn(ctx).
		Model(&models.Pod{}).
		Where("docket_id = ?", docketID).
		Order("id ASC").
		Pluck("id", &trail.PodIDs).Error
	return trail, err
}
