package workflow

import (
	"context"
	"fmt"
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"
)

type ItemInput struct {
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Quantity    int     `json:"quantity"`
	PackageType string  `json:"package_type"`
}

type BookDocketInput struct {
	DocketNumber    string      `json:"docket_number"`
	SenderName      string      `json:"sender_name"`
	SenderAddress   string      `json:"sender_address"`
	ReceiverName    string      `json:"receiver_name"`
	ReceiverAddress string      `json:"receiver_address"`
	TotalWeight     float64     `json:"total_weight"`
	TotalPackages   int         `json:"total_packages"`
	Items           []ItemInput `json:"items"`

	GeofenceLat     *float64 `json:"geofence_lat"`
	GeofenceLng     *float64 `json:"geofence_lng"`
	GeofenceRadiusM *float64 `json:"geofence_radius_m"`
	CurrentLat      *float64 `json:"current_lat"`
	CurrentLng      *float64 `json:"current_lng"`
}

// validate reports the first failing field only.
func (in BookDocketInput) validate() error {
	if err := checkNumber("docket_number", "docket number", in.DocketNumber); err != nil {
		return err
	}

	required := []struct {
		field, value, label string
		max                 int
	}{
		{"sender_name", in.SenderName, "sender name", maxNameLen},
		{"sender_address", in.SenderAddress, "sender address", maxAddressLen},
		{"receiver_name", in.ReceiverName, "receiver name", maxNameLen},
		{"receiver_address", in.ReceiverAddress, "receiver address", maxAddressLen},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(r.field, r.label+" is required")
		}
		if err := checkLength(r.field, r.label, r.value, r.max); err != nil {
			return err
		}
	}

	if len(in.Items) == 0 {
		return apperr.Validation("items", "at least one item is required")
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case strings.TrimSpace(it.Description) == "":
			return apperr.Validation(field+".description", fmt.Sprintf("item %d: description is required", i+1))
		case it.Weight <= 0:
			return apperr.Validation(field+".weight", fmt.Sprintf("item %d: weight must be greater than 0", i+1))
		case it.Quantity <= 0:
			return apperr.Validation(field+".quantity", fmt.Sprintf("item %d: quantity must be greater than 0", i+1))
		}
		if err := checkLength(field+".description", fmt.Sprintf("item %d: description", i+1), it.Description, maxDescriptionLen); err != nil {
			return err
		}
		if err := checkLength(field+".package_type", fmt.Sprintf("item %d: package type", i+1), it.PackageType, maxPackageTypeLen); err != nil {
			return err
		}
	}

	if in.TotalWeight < 0 {
		return apperr.Validation("total_weight", "total weight cannot be negative")
	}
	if in.TotalPackages < 0 {
		return apperr.Validation("total_packages", "total packages cannot be negative")
	}
	if (in.GeofenceLat == nil) != (in.GeofenceLng == nil) {
		return apperr.Validation("geofence_lat", "geofence needs both latitude and longitude")
	}
	if in.GeofenceRadiusM != nil && *in.GeofenceRadiusM <= 0 {
		return apperr.Validation("geofence_radius_m", "geofence radius must be greater than 0")
	}
	if (in.CurrentLat == nil) != (in.CurrentLng == nil) {
		return apperr.Validation("current_lat", "current position needs both latitude and longitude")
	}
	return nil
}

// BookDocket creates a docket and its items as one unit. Missing geofence and
// position are looked up from the addresses first; lookup failures only cost
// the enrichment.
func (e *Engine) BookDocket(ctx context.Context, actor audit.Actor, in BookDocketInput) (*models.Docket, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(in.DocketNumber)
	if number == "" {
		number = newNumber("DKT")
	}

	d := &models.Docket{
		DocketNumber:    number,
		SenderName:      strings.TrimSpace(in.SenderName),
		SenderAddress:   strings.TrimSpace(in.SenderAddress),
		ReceiverName:    strings.TrimSpace(in.ReceiverName),
		ReceiverAddress: strings.TrimSpace(in.ReceiverAddress),
		TotalWeight:     in.TotalWeight,
		TotalPackages:   in.TotalPackages,
		Status:          models.DocketBooked,
		GeofenceLat:     in.GeofenceLat,
		GeofenceLng:     in.GeofenceLng,
		GeofenceRadiusM: in.GeofenceRadiusM,
		CurrentLat:      in.CurrentLat,
		CurrentLng:      in.CurrentLng,
		CreatedBy:       actor.UserID,
	}
	for _, it := range in.Items {
		d.Items = append(d.Items, models.DocketItem{
			Description: strings.TrimSpace(it.Description),
			Weight:      it.Weight,
			Quantity:    it.Quantity,
			PackageType: strings.TrimSpace(it.PackageType),
		})
	}

	geofenceResolved, positionResolved := false, false
	if d.GeofenceLat == nil {
		if c := e.resolve(ctx, "receiver address", d.ReceiverAddress); c != nil {
			d.GeofenceLat, d.GeofenceLng = &c.Lat, &c.Lng
			geofenceResolved = true
		}
	}
	if d.GeofenceLat != nil && d.GeofenceRadiusM == nil {
		r := e.radiusM
		d.GeofenceRadiusM = &r
	}
	if d.CurrentLat == nil {
		if c := e.resolve(ctx, "sender address", d.SenderAddress); c != nil {
			d.CurrentLat, d.CurrentLng = &c.Lat, &c.Lng
			positionResolved = true
		}
	}

	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		return tx.CreateDocket(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionDocketCreated,
		EntityType: models.EntityDocket,
		EntityID:   d.ID,
		Summary:    fmt.Sprintf("Docket %s booked: %s to %s", d.DocketNumber, d.SenderName, d.ReceiverName),
		Meta: map[string]any{
			"docket_number":     d.DocketNumber,
			"items":             len(d.Items),
			"geofence_resolved": geofenceResolved,
			"position_resolved": positionResolved,
		},
	})
	return d, nil
}

// ForceDocketStatus sets any valid status, backwards included. It is the
// manual correction path; lifecycle cascades never go through it.
func (e *Engine) ForceDocketStatus(ctx context.Context, actor audit.Actor, docketID uint, status models.DocketStatus) (*models.Docket, error) {
	if !ValidStatus(status) {
		return nil, apperr.Validation("status", "status must be one of booked, loaded, in_transit, delivered")
	}

	var from models.DocketStatus
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		d, err := tx.GetDocket(ctx, docketID)
		if err != nil {
			return err
		}
		from = d.Status
		return tx.UpdateDocketStatus(ctx, docketID, status)
	})
	if err != nil {
		return nil, err
	}

	d, err := e.store.GetDocket(ctx, docketID)
	if err != nil {
		return nil, err
	}

	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionDocketStatusForced,
		EntityType: models.EntityDocket,
		EntityID:   d.ID,
		Summary:    fmt.Sprintf("Docket %s status set from %s to %s", d.DocketNumber, from, status),
		Meta:       map[string]any{"from": from, "to": status, "backwards": CanAdvance(status, from)},
	})
	return d, nil
}

// promoteAll advances every docket toward target, leaving any that are
// already further along untouched. It returns how many rows moved.
func promoteAll(ctx context.Context, tx *store.Store, dockets []models.Docket, target models.DocketStatus) (int, error) {
	moved := 0
	for _, d := range dockets {
		next := Promote(d.Status, target)
		if next == d.Status {
			continue
		}
		if err := tx.UpdateDocketStatus(ctx, d.ID, next); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
