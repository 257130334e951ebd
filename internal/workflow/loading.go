package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"
)

type AssembleLoadingSheetInput struct {
	SheetNumber   string `json:"sheet_number"`
	VehicleNumber string `json:"vehicle_number"`
	DriverName    string `json:"driver_name"`
	Destination   string `json:"destination"`
	// Status is draft (default) or finalized
	Status    models.LoadingSheetStatus `json:"status"`
	DocketIDs []uint                    `json:"docket_ids"`
}

func (in AssembleLoadingSheetInput) validate() error {
	if err := checkNumber("sheet_number", "sheet number", in.SheetNumber); err != nil {
		return err
	}

	required := []struct {
		field, value, label string
		max                 int
	}{
		{"vehicle_number", in.VehicleNumber, "vehicle number", maxVehicleLen},
		{"driver_name", in.DriverName, "driver name", maxNameLen},
		{"destination", in.Destination, "destination", maxDestinationLen},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(r.field, r.label+" is required")
		}
		if err := checkLength(r.field, r.label, r.value, r.max); err != nil {
			return err
		}
	}
	if len(in.DocketIDs) == 0 {
		return apperr.Validation("docket_ids", "select at least one docket")
	}
	switch in.Status {
	case "", models.LoadingSheetDraft, models.LoadingSheetFinalized:
	default:
		return apperr.Validation("status", "status must be draft or finalized")
	}
	for _, id := range in.DocketIDs {
		if id == 0 {
			return apperr.Validation("docket_ids", "docket ids must be positive")
		}
	}
	return nil
}

// AssembleLoadingSheet creates the sheet, links the dockets and moves each
// of them to loaded, all or nothing.
func (e *Engine) AssembleLoadingSheet(ctx context.Context, actor audit.Actor, in AssembleLoadingSheetInput) (*models.LoadingSheet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ids := dedupe(in.DocketIDs)
	number := strings.TrimSpace(in.SheetNumber)
	if number == "" {
		number = newNumber("LS")
	}
	status := in.Status
	if status == "" {
		status = models.LoadingSheetDraft
	}

	ls := &models.LoadingSheet{
		SheetNumber:   number,
		VehicleNumber: strings.TrimSpace(in.VehicleNumber),
		DriverName:    strings.TrimSpace(in.DriverName),
		Destination:   strings.TrimSpace(in.Destination),
		Status:        status,
		CreatedBy:     actor.UserID,
	}

	var moved int
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		dockets, err := tx.DocketsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		assigned, err := tx.SheetAssignments(ctx, ids)
		if err != nil {
			return err
		}
		for _, d := range dockets {
			if sheet, ok := assigned[d.ID]; ok {
				return apperr.Conflict("docket_ids", fmt.Sprintf("docket %s is already on loading sheet %s", d.DocketNumber, sheet))
			}
		}

		if err := tx.CreateLoadingSheet(ctx, ls); err != nil {
			return err
		}
		if err := tx.LinkDockets(ctx, ls.ID, ids); err != nil {
			return err
		}
		moved, err = promoteAll(ctx, tx, dockets, models.DocketLoaded)
		return err
	})
	if err != nil {
		return nil, err
	}

	out, err := e.store.GetLoadingSheet(ctx, ls.ID)
	if err != nil {
		return nil, err
	}

	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionLoadingSheetCreated,
		EntityType: models.EntityLoadingSheet,
		EntityID:   out.ID,
		Summary:    fmt.Sprintf("Loading sheet %s created with %d docket(s) for %s", out.SheetNumber, len(ids), out.VehicleNumber),
		Meta: map[string]any{
			"sheet_number":   out.SheetNumber,
			"docket_ids":     ids,
			"status":         out.Status,
			"dockets_loaded": moved,
		},
	})
	return out, nil
}

type GenerateManifestInput struct {
	ManifestNumber string `json:"manifest_number"`
	LoadingSheetID uint   `json:"loading_sheet_id"`
}

// GenerateManifest creates the manifest for a sheet, finalizes the sheet and
// puts its dockets in transit, all or nothing.
func (e *Engine) GenerateManifest(ctx context.Context, actor audit.Actor, in GenerateManifestInput) (*models.Manifest, error) {
	if err := checkNumber("manifest_number", "manifest number", in.ManifestNumber); err != nil {
		return nil, err
	}
	if in.LoadingSheetID == 0 {
		return nil, apperr.Validation("loading_sheet_id", "loading sheet is required")
	}

	number := strings.TrimSpace(in.ManifestNumber)
	if number == "" {
		number = newNumber("MF")
	}

	m := &models.Manifest{
		ManifestNumber: number,
		LoadingSheetID: in.LoadingSheetID,
		Status:         models.ManifestGenerated,
		GeneratedAt:    e.now(),
		CreatedBy:      actor.UserID,
	}

	var (
		sheetNumber string
		docketCount int
		docketIDs   []uint
		moved       int
	)
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		ls, err := tx.GetLoadingSheet(ctx, in.LoadingSheetID)
		if err != nil {
			return err
		}
		sheetNumber, docketCount = ls.SheetNumber, len(ls.Dockets)
		for _, d := range ls.Dockets {
			docketIDs = append(docketIDs, d.ID)
		}

		existing, err := tx.ManifestForSheet(ctx, ls.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("loading_sheet_id", fmt.Sprintf("loading sheet %s already has manifest %s", ls.SheetNumber, existing.ManifestNumber))
		}

		if err := tx.CreateManifest(ctx, m); err != nil {
			return err
		}
		if ls.Status != models.LoadingSheetFinalized {
			if err := tx.SetLoadingSheetStatus(ctx, ls.ID, models.LoadingSheetFinalized); err != nil {
				return err
			}
		}
		moved, err = promoteAll(ctx, tx, ls.Dockets, models.DocketInTransit)
		return err
	})
	if err != nil {
		return nil, err
	}

	out, err := e.store.GetManifest(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionManifestGenerated,
		EntityType: models.EntityManifest,
		EntityID:   out.ID,
		Summary:    fmt.Sprintf("Manifest %s generated from loading sheet %s", out.ManifestNumber, sheetNumber),
		Meta: map[string]any{
			"manifest_number":    out.ManifestNumber,
			"loading_sheet_id":   in.LoadingSheetID,
			"docket_ids":         docketIDs,
			"dockets":            docketCount,
			"dockets_in_transit": moved,
		},
	})
	return out, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
