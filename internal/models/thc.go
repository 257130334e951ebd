package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ThcStatus string

const (
	ThcGenerated ThcStatus = "generated"
	ThcPaid      ThcStatus = "paid"
	ThcCompleted ThcStatus = "completed"
)

// Thc: transport hire challan, the vehicle hire payment for a manifest.
// BalanceAmount is always HireAmount - AdvanceAmount.
type Thc struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ThcNumber     string          `gorm:"size:40;uniqueIndex;not null" json:"thc_number"`
	ManifestID    uint            `gorm:"index;not null" json:"manifest_id"`
	HireAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"hire_amount"`
	AdvanceAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"advance_amount"`
	BalanceAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_amount"`
	DriverName    string          `gorm:"size:150" json:"driver_name"`
	VehicleNumber string          `gorm:"size:30" json:"vehicle_number"`
	Status        ThcStatus       `gorm:"size:20;not null" json:"status"`
	PaidAt        *time.Time      `json:"paid_at"`
	CreatedBy     *uint           `json:"created_by"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
