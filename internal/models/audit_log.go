package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemActor is the username recorded when no authenticated user is attached.
const SystemActor = "system"

// AuditLog rows are written once and never updated or deleted.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Who? nil UserID means a system action
	UserID   *uint  `gorm:"index" json:"user_id"`
	Username string `gorm:"size:100;index" json:"username"`

	// What? (e.g. "docket.created", "manifest.generated")
	Action     string `gorm:"size:60;index;not null" json:"action"`
	EntityType string `gorm:"size:50;index;not null" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Summary  string         `gorm:"size:500" json:"summary"`
	Metadata datatypes.JSON `json:"metadata"`

	// Where from?
	IPAddress string `gorm:"size:45" json:"ip_address"`
	UserAgent string `gorm:"size:255" json:"user_agent"`
}

// Audit action names, "<entity>.<verb>".
const (
	ActionDocketCreated       = "docket.created"
	ActionDocketStatusForced  = "docket.status_forced"
	ActionLoadingSheetCreated = "loading_sheet.created"
	ActionManifestGenerated   = "manifest.generated"
	ActionThcCreated          = "thc.created"
	ActionThcUpdated          = "thc.updated"
	ActionPodSubmitted        = "pod.submitted"
	ActionPodAnalyzed         = "pod.analyzed"
	ActionPodReviewed         = "pod.reviewed"
	ActionUserRegistered      = "user.registered"
)

const (
	EntityDocket       = "docket"
	EntityLoadingSheet = "loading_sheet"
	EntityManifest     = "manifest"
	EntityThc          = "thc"
	EntityPod          = "pod"
	EntityUser         = "user"
)
