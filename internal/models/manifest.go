package models

import "time"

type ManifestStatus string

const ManifestGenerated ManifestStatus = "generated"

// Manifest: trip document generated from exactly one loading sheet
type Manifest struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ManifestNumber string         `gorm:"size:40;uniqueIndex;not null" json:"manifest_number"`
	LoadingSheetID uint           `gorm:"uniqueIndex;not null" json:"loading_sheet_id"`
	LoadingSheet   *LoadingSheet  `json:"loading_sheet,omitempty"`
	Status         ManifestStatus `gorm:"size:20;not null" json:"status"`
	GeneratedAt    time.Time      `gorm:"index;not null" json:"generated_at"`
	CreatedBy      *uint          `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Thcs []Thc `gorm:"foreignKey:ManifestID" json:"thcs,omitempty"`
}
