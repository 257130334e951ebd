package store

import (
	"context"

	"logistics-backend/internal/models"
)

type PodFilter struct {
	Status   string
	DocketID uint
}

func (s *Store) CreatePod(ctx context.Context, p *models.Pod) error {
	return s.conn(ctx).Omit("Docket").Create(p).Error
}

func (s *Store) GetPod(ctx context.Context, id uint) (*models.Pod, error) {
	var p models.Pod
	if err := s.conn(ctx).Preload("Docket").First(&p, id).Error; err != nil {
		return nil, notFound(err, "pod", id)
	}
	return &p, nil
}

func (s *Store) ListPods(ctx context.Context, f PodFilter) ([]models.Pod, error) {
	q := s.conn(ctx).Model(&models.Pod{}).Preload("Docket")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DocketID != 0 {
		q = q.Where("docket_id = ?", f.DocketID)
	}

	var pods []models.Pod
	if err := q.Order("created_at DESC").Order("id DESC").Find(&pods).Error; err != nil {
		return nil, err
	}
	return pods, nil
}

func (s *Store) SavePod(ctx context.Context, p *models.Pod) error {
	return s.conn(ctx).Omit("Docket").Save(p).Error
}

// LatestPods returns the newest POD per docket for the given dockets.
func (s *Store) LatestPods(ctx context.Context, docketIDs []uint) (map[uint]models.Pod, error) {
	var pods []models.Pod
	err := s.conn(ctx).
		Where("docket_id IN ?", docketIDs).
		Order("created_at DESC").Order("id DESC").
		Find(&pods).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]models.Pod, len(docketIDs))
	for _, p := range pods {
		if _, seen := out[p.DocketID]; !seen {
			out[p.DocketID] = p
		}
	}
	return out, nil
}
