package models

import "time"

type LoadingSheetStatus string

const (
	LoadingSheetDraft     LoadingSheetStatus = "draft"
	LoadingSheetFinalized LoadingSheetStatus = "finalized"
)

// LoadingSheet: dockets assigned to one vehicle trip
type LoadingSheet struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	SheetNumber   string             `gorm:"size:40;uniqueIndex;not null" json:"sheet_number"`
	VehicleNumber string             `gorm:"size:30;not null" json:"vehicle_number"`
	DriverName    string             `gorm:"size:150;not null" json:"driver_name"`
	Destination   string             `gorm:"size:255;not null" json:"destination"`
	Status        LoadingSheetStatus `gorm:"size:20;not null" json:"status"`
	CreatedBy     *uint              `json:"created_by"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	Dockets []Docket `gorm:"many2many:loading_sheet_dockets" json:"dockets,omitempty"`
}

// LoadingSheetDocket is the link table. DocketID is unique: a docket rides on one sheet only.
type LoadingSheetDocket struct {
	LoadingSheetID uint      `gorm:"primaryKey" json:"loading_sheet_id"`
	DocketID       uint      `gorm:"primaryKey;uniqueIndex:idx_loading_sheet_dockets_docket" json:"docket_id"`
	CreatedAt      time.Time `json:"created_at"`
}
