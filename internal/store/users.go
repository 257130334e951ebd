package store

import (
	"context"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.conn(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("username", "username already taken")
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user", username)
	}
	return &u, nil
}
