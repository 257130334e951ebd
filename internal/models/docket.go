package models

import "time"

type DocketStatus string

const (
	DocketBooked    DocketStatus = "booked"
	DocketLoaded    DocketStatus = "loaded"
	DocketInTransit DocketStatus = "in_transit"
	DocketDelivered DocketStatus = "delivered"
)

// Docket: a shipment booking (who sends what to whom)
type Docket struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	DocketNumber    string       `gorm:"size:40;uniqueIndex;not null" json:"docket_number"`
	SenderName      string       `gorm:"size:150;not null" json:"sender_name"`
	SenderAddress   string       `gorm:"size:500;not null" json:"sender_address"`
	ReceiverName    string       `gorm:"size:150;not null" json:"receiver_name"`
	ReceiverAddress string       `gorm:"size:500;not null" json:"receiver_address"`
	TotalWeight     float64      `gorm:"not null" json:"total_weight"`
	TotalPackages   int          `gorm:"not null" json:"total_packages"`
	Status          DocketStatus `gorm:"size:20;index;not null" json:"status"`

	// Geofence centre + radius around the delivery point
	GeofenceLat     *float64 `json:"geofence_lat"`
	GeofenceLng     *float64 `json:"geofence_lng"`
	GeofenceRadiusM *float64 `json:"geofence_radius_m"`

	// Last known position
	CurrentLat *float64 `json:"current_lat"`
	CurrentLng *float64 `json:"current_lng"`

	CreatedBy *uint     `json:"created_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []DocketItem `gorm:"foreignKey:DocketID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Pod   *Pod         `gorm:"-" json:"pod,omitempty"`
}

// DocketItem: one line of goods inside a docket, never edited after booking
type DocketItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DocketID    uint      `gorm:"index;not null" json:"docket_id"`
	Description string    `gorm:"size:255;not null" json:"description"`
	Weight      float64   `gorm:"not null" json:"weight"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	PackageType string    `gorm:"size:50" json:"package_type"`
	CreatedAt   time.Time `json:"created_at"`
}
