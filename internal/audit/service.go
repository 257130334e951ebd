package audit

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"unicode/utf8"

	"logistics-backend/internal/models"
	"logistics-backend/internal/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Actor is who performed an action and where the request came from.
// The zero value is the system actor.
type Actor struct {
	UserID    *uint
	Username  string
	IPAddress string
	UserAgent string
	RequestID string
}

func (a Actor) name() string {
	if a.UserID == nil || a.Username == "" {
		return models.SystemActor
	}
	return a.Username
}

type Entry struct {
	Action     string
	EntityType string
	EntityID   uint
	Summary    string
	Meta       map[string]any
}

// Recorder appends audit rows. It never reports failure to the caller:
// a broken audit path must not block the workflow.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(ctx context.Context, actor Actor, e Entry) {
	meta := e.Meta
	if actor.RequestID != "" {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["request_id"] = actor.RequestID
	}

	var metaJSON datatypes.JSON
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			log.Printf("[WARN] audit metadata for %s %d not serialisable: %v", e.EntityType, e.EntityID, err)
		} else {
			metaJSON = b
		}
	}

	row := models.AuditLog{
		UserID:     actor.UserID,
		Username:   actor.name(),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Summary:    truncate(e.Summary, 500),
		Metadata:   metaJSON,
		IPAddress:  truncate(actor.IPAddress, 45),
		UserAgent:  truncate(actor.UserAgent, 255),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("[ERROR] audit log could not be written (%s %s %d): %v", e.Action, e.EntityType, e.EntityID, err)
	}
}

type EntityRef struct {
	Type string
	ID   uint
}

type ListQuery struct {
	Search     string
	EntityType string
	EntityID   uint
	// Entities matches rows about any of the listed records.
	Entities []EntityRef
	Limit    int
}

// List returns audit rows newest first. Search is a case-insensitive
// substring match over action, username and summary.
func (r *Recorder) List(ctx context.Context, q ListQuery) ([]models.AuditLog, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	dbq := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if s := strings.TrimSpace(q.Search); s != "" {
		like := store.ContainsPattern(s)
		dbq = dbq.Where(
			"(LOWER(action) LIKE ? ESCAPE '!' OR LOWER(username) LIKE ? ESCAPE '!' OR LOWER(summary) LIKE ? ESCAPE '!')",
			like, like, like,
		)
	}
	if q.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID != 0 {
		dbq = dbq.Where("entity_id = ?", q.EntityID)
	}
	if len(q.Entities) > 0 {
		conds := make([]string, 0, len(q.Entities))
		args := make([]any, 0, 2*len(q.Entities))
		for _, ref := range q.Entities {
			conds = append(conds, "(entity_type = ? AND entity_id = ?)")
			args = append(args, ref.Type, ref.ID)
		}
		dbq = dbq.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	var logs []models.AuditLog
	if err := dbq.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
