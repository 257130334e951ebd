package workflow

import (
	"context"
	"fmt"
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/models"

	"github.com/shopspring/decimal"
)

type IssueThcInput struct {
	ThcNumber     string          `json:"thc_number"`
	ManifestID    uint            `json:"manifest_id"`
	HireAmount    decimal.Decimal `json:"hire_amount"`
	AdvanceAmount decimal.Decimal `json:"advance_amount"`
	// BalanceAmount is optional; when sent it must equal hire - advance
	BalanceAmount *decimal.Decimal `json:"balance_amount"`
	DriverName    string           `json:"driver_name"`
	VehicleNumber string           `json:"vehicle_number"`
}

// ThcPatch carries only the fields being changed.
type ThcPatch struct {
	HireAmount    *decimal.Decimal  `json:"hire_amount"`
	AdvanceAmount *decimal.Decimal  `json:"advance_amount"`
	BalanceAmount *decimal.Decimal  `json:"balance_amount"`
	DriverName    *string           `json:"driver_name"`
	VehicleNumber *string           `json:"vehicle_number"`
	Status        *models.ThcStatus `json:"status"`
}

func validAmounts(hire, advance decimal.Decimal, balance *decimal.Decimal) error {
	switch {
	case !hire.IsPositive():
		return apperr.Validation("hire_amount", "hire amount must be greater than 0")
	case advance.IsNegative():
		return apperr.Validation("advance_amount", "advance amount cannot be negative")
	case advance.GreaterThan(hire):
		return apperr.Validation("advance_amount", "advance amount cannot exceed hire amount")
	}
	if balance != nil && !balance.Equal(hire.Sub(advance)) {
		return apperr.Validation("balance_amount", fmt.Sprintf("balance amount must equal hire minus advance (%s)", hire.Sub(advance).StringFixed(2)))
	}
	return nil
}

// validCrew checks the optional driver and vehicle; nil means unchanged.
func validCrew(driver, vehicle *string) error {
	if driver != nil {
		if err := checkLength("driver_name", "driver name", *driver, maxNameLen); err != nil {
			return err
		}
	}
	if vehicle != nil {
		if err := checkLength("vehicle_number", "vehicle number", *vehicle, maxVehicleLen); err != nil {
			return err
		}
	}
	return nil
}

func validThcStatus(s models.ThcStatus) bool {
	switch s {
	case models.ThcGenerated, models.ThcPaid, models.ThcCompleted:
		return true
	}
	return false
}

// IssueThc records the hire payment for a manifest. The balance is always
// computed here; driver and vehicle default to the loading sheet's.
func (e *Engine) IssueThc(ctx context.Context, actor audit.Actor, in IssueThcInput) (*models.Thc, error) {
	if err := checkNumber("thc_number", "THC number", in.ThcNumber); err != nil {
		return nil, err
	}
	if in.ManifestID == 0 {
		return nil, apperr.Validation("manifest_id", "manifest is required")
	}
	if err := validAmounts(in.HireAmount, in.AdvanceAmount, in.BalanceAmount); err != nil {
		return nil, err
	}
	if err := validCrew(&in.DriverName, &in.VehicleNumber); err != nil {
		return nil, err
	}

	m, err := e.store.GetManifest(ctx, in.ManifestID)
	if err != nil {
		return nil, err
	}

	number := strings.TrimSpace(in.ThcNumber)
	if number == "" {
		number = newNumber("THC")
	}

	t := &models.Thc{
		ThcNumber:     number,
		ManifestID:    m.ID,
		HireAmount:    in.HireAmount,
		AdvanceAmount: in.AdvanceAmount,
		BalanceAmount: in.HireAmount.Sub(in.AdvanceAmount),
		DriverName:    strings.TrimSpace(in.DriverName),
		VehicleNumber: strings.TrimSpace(in.VehicleNumber),
		Status:        models.ThcGenerated,
		CreatedBy:     actor.UserID,
	}
	if m.LoadingSheet != nil {
		if t.DriverName == "" {
			t.DriverName = m.LoadingSheet.DriverName
		}
		if t.VehicleNumber == "" {
			t.VehicleNumber = m.LoadingSheet.VehicleNumber
		}
	}

	if err := e.store.CreateThc(ctx, t); err != nil {
		return nil, err
	}

	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionThcCreated,
		EntityType: models.EntityThc,
		EntityID:   t.ID,
		Summary:    fmt.Sprintf("THC %s issued for manifest %s: hire %s, advance %s", t.ThcNumber, m.ManifestNumber, t.HireAmount.StringFixed(2), t.AdvanceAmount.StringFixed(2)),
		Meta: map[string]any{
			"thc_number":  t.ThcNumber,
			"manifest_id": m.ID,
			"hire":        t.HireAmount.StringFixed(2),
			"advance":     t.AdvanceAmount.StringFixed(2),
			"balance":     t.BalanceAmount.StringFixed(2),
		},
	})
	return t, nil
}

// UpdateThc patches a THC. It never touches dockets.
func (e *Engine) UpdateThc(ctx context.Context, actor audit.Actor, id uint, p ThcPatch) (*models.Thc, error) {
	t, err := e.store.GetThc(ctx, id)
	if err != nil {
		return nil, err
	}

	var changed []string
	hire, advance := t.HireAmount, t.AdvanceAmount
	if p.HireAmount != nil {
		hire = *p.HireAmount
		changed = append(changed, "hire_amount")
	}
	if p.AdvanceAmount != nil {
		advance = *p.AdvanceAmount
		changed = append(changed, "advance_amount")
	}
	if err := validAmounts(hire, advance, p.BalanceAmount); err != nil {
		return nil, err
	}
	if p.Status != nil && !validThcStatus(*p.Status) {
		return nil, apperr.Validation("status", "status must be one of generated, paid, completed")
	}
	if err := validCrew(p.DriverName, p.VehicleNumber); err != nil {
		return nil, err
	}

	t.HireAmount, t.AdvanceAmount = hire, advance
	t.BalanceAmount = hire.Sub(advance)

	if p.DriverName != nil {
		t.DriverName = strings.TrimSpace(*p.DriverName)
		changed = append(changed, "driver_name")
	}
	if p.VehicleNumber != nil {
		t.VehicleNumber = strings.TrimSpace(*p.VehicleNumber)
		changed = append(changed, "vehicle_number")
	}

	from := t.Status
	if p.Status != nil && *p.Status != t.Status {
		t.Status = *p.Status
		changed = append(changed, "status")
		// completed implies paid
		if t.Status != models.ThcGenerated && t.PaidAt == nil {
			now := e.now()
			t.PaidAt = &now
		}
	}

	if err := e.store.SaveThc(ctx, t); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("THC %s updated", t.ThcNumber)
	if from != t.Status {
		summary = fmt.Sprintf("THC %s moved from %s to %s", t.ThcNumber, from, t.Status)
	}
	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionThcUpdated,
		EntityType: models.EntityThc,
		EntityID:   t.ID,
		Summary:    summary,
		Meta: map[string]any{
			"changed": changed,
			"status":  t.Status,
			"balance": t.BalanceAmount.StringFixed(2),
		},
	})
	return t, nil
}
