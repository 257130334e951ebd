package models

import (
	"time"

	"gorm.io/datatypes"
)

type PodStatus string

const (
	PodPendingReview PodStatus = "pending_review"
	PodApproved      PodStatus = "approved"
	PodRejected      PodStatus = "rejected"
)

// Pod: proof of delivery for a docket, reviewed by a human
type Pod struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	DocketID        uint           `gorm:"index;not null" json:"docket_id"`
	Docket          *Docket        `json:"docket,omitempty"`
	ImageRef        string         `gorm:"size:500;not null" json:"image_ref"`
	Status          PodStatus      `gorm:"size:20;index;not null" json:"status"`
	AIAnalysis      datatypes.JSON `json:"ai_analysis"`
	RejectionReason *string        `gorm:"size:500" json:"rejection_reason"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	ReviewedBy      *uint          `json:"reviewed_by"`
	CreatedBy       *uint          `json:"created_by"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
