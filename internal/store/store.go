// Package store is the entity store: gorm CRUD, aggregate joins and
// the uniqueness rules of the workflow. Absent rows come back as
// apperr.NotFound, never as a nil record.
package store

import (
	"context"
	"errors"
	"strings"

	"logistics-backend/internal/apperr"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn against a store bound to a single database transaction.
// Any error returned by fn rolls every write back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// ContainsPattern builds a lower-cased LIKE pattern for a substring match.
// '!' is the escape character; pair it with ESCAPE '!'.
func ContainsPattern(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
