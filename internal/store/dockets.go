package store

import (
	"context"
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

type DocketFilter struct {
	Status string
	Search string
}

// CreateDocket inserts the docket and its items. Call it inside Transaction
// so a failing item takes the docket down with it.
func (s *Store) CreateDocket(ctx context.Context, d *models.Docket) error {
	if err := s.conn(ctx).Create(d).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("docket_number", "docket number "+d.DocketNumber+" already exists")
		}
		return err
	}
	return nil
}

// GetDocket loads a docket with its items and latest POD.
func (s *Store) GetDocket(ctx context.Context, id uint) (*models.Docket, error) {
	var d models.Docket
	if err := s.conn(ctx).Preload("Items").First(&d, id).Error; err != nil {
		return nil, notFound(err, "docket", id)
	}
	if err := s.attachLatestPods(ctx, []*models.Docket{&d}); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) GetDocketByNumber(ctx context.Context, number string) (*models.Docket, error) {
	var d models.Docket
	if err := s.conn(ctx).Preload("Items").Where("docket_number = ?", number).First(&d).Error; err != nil {
		return nil, notFound(err, "docket", number)
	}
	if err := s.attachLatestPods(ctx, []*models.Docket{&d}); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDockets filters in SQL and batch-preloads items.
func (s *Store) ListDockets(ctx context.Context, f DocketFilter) ([]models.Docket, error) {
	q := s.conn(ctx).Model(&models.Docket{}).Preload("Items")

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if strings.TrimSpace(f.Search) != "" {
		like := ContainsPattern(f.Search)
		q = q.Where(
			"(LOWER(docket_number) LIKE ? ESCAPE '!' OR LOWER(sender_name) LIKE ? ESCAPE '!' OR LOWER(receiver_name) LIKE ? ESCAPE '!')",
			like, like, like,
		)
	}

	var dockets []models.Docket
	if err := q.Order("created_at DESC").Order("id DESC").Find(&dockets).Error; err != nil {
		return nil, err
	}
	return dockets, nil
}

// DocketsByIDs returns the dockets for ids, failing with NotFound on the
// first id that does not exist.
func (s *Store) DocketsByIDs(ctx context.Context, ids []uint) ([]models.Docket, error) {
	var dockets []models.Docket
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&dockets).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Docket, len(dockets))
	for _, d := range dockets {
		byID[d.ID] = d
	}

	out := make([]models.Docket, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("docket", id)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) UpdateDocketStatus(ctx context.Context, id uint, status models.DocketStatus) error {
	res := s.conn(ctx).Model(&models.Docket{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("docket", id)
	}
	return nil
}

func (s *Store) attachLatestPods(ctx context.Context, dockets []*models.Docket) error {
	if len(dockets) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(dockets))
	for _, d := range dockets {
		ids = append(ids, d.ID)
	}

	latest, err := s.LatestPods(ctx, ids)
	if err != nil {
		return err
	}
	for _, d := range dockets {
		if p, ok := latest[d.ID]; ok {
			pod := p
			d.Pod = &pod
		}
	}
	return nil
}
