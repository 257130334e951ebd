package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"

	"gorm.io/datatypes"
)

type SubmitPodInput struct {
	DocketID uint   `json:"docket_id"`
	ImageRef string `json:"image_ref"`
}

type ReviewPodInput struct {
	Status models.PodStatus `json:"status"`
	Reason string           `json:"reason"`
}

// SubmitPod stores the POD and marks the docket delivered, whatever the
// later review decides.
func (e *Engine) SubmitPod(ctx context.Context, actor audit.Actor, in SubmitPodInput) (*models.Pod, error) {
	if in.DocketID == 0 {
		return nil, apperr.Validation("docket_id", "docket is required")
	}
	ref := strings.TrimSpace(in.ImageRef)
	if ref == "" {
		return nil, apperr.Validation("image_ref", "delivery image is required")
	}
	if err := checkLength("image_ref", "image reference", ref, maxImageRefLen); err != nil {
		return nil, err
	}

	p := &models.Pod{
		DocketID:  in.DocketID,
		ImageRef:  ref,
		Status:    models.PodPendingReview,
		CreatedBy: actor.UserID,
	}

	var d *models.Docket
	err := e.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		if d, err = tx.GetDocket(ctx, in.DocketID); err != nil {
			return err
		}
		if err := tx.CreatePod(ctx, p); err != nil {
			return err
		}
		return tx.UpdateDocketStatus(ctx, d.ID, models.DocketDelivered)
	})
	if err != nil {
		return nil, err
	}

	out, err := e.store.GetPod(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionPodSubmitted,
		EntityType: models.EntityPod,
		EntityID:   out.ID,
		Summary:    fmt.Sprintf("POD submitted for docket %s", d.DocketNumber),
		Meta: map[string]any{
			"docket_id":       d.ID,
			"docket_number":   d.DocketNumber,
			"previous_status": d.Status,
			"image_ref":       ref,
		},
	})
	return out, nil
}

// AnalyzePod stores a model recommendation on the POD. An unavailable model
// leaves a simulated fallback instead of an error.
func (e *Engine) AnalyzePod(ctx context.Context, actor audit.Actor, podID uint) (*models.Pod, error) {
	p, err := e.store.GetPod(ctx, podID)
	if err != nil {
		return nil, err
	}

	a := e.analyze(ctx, p.ImageRef)
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	p.AIAnalysis = datatypes.JSON(raw)

	if err := e.store.SavePod(ctx, p); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("POD %d analysed: %s (%.0f%% confidence)", p.ID, a.Recommendation, a.Confidence*100)
	if a.Simulated {
		summary = fmt.Sprintf("POD %d analysis unavailable, fallback stored", p.ID)
	}
	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionPodAnalyzed,
		EntityType: models.EntityPod,
		EntityID:   p.ID,
		Summary:    summary,
		Meta: map[string]any{
			"recommendation": a.Recommendation,
			"confidence":     a.Confidence,
			"simulated":      a.Simulated,
			"reason":         a.Reason,
		},
	})
	return p, nil
}

// ReviewPod records the human decision. The docket stays delivered either way.
func (e *Engine) ReviewPod(ctx context.Context, actor audit.Actor, podID uint, in ReviewPodInput) (*models.Pod, error) {
	reason := strings.TrimSpace(in.Reason)
	switch in.Status {
	case models.PodApproved:
	case models.PodRejected:
		if reason == "" {
			return nil, apperr.Validation("reason", "a reason is required when rejecting a POD")
		}
		if err := checkLength("reason", "reason", reason, maxReasonLen); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validation("status", "status must be approved or rejected")
	}

	p, err := e.store.GetPod(ctx, podID)
	if err != nil {
		return nil, err
	}

	p.Status = in.Status
	p.ReviewedBy = actor.UserID
	if in.Status == models.PodApproved {
		now := e.now()
		p.ApprovedAt = &now
		p.RejectionReason = nil
	} else {
		p.ApprovedAt = nil
		p.RejectionReason = &reason
	}

	if err := e.store.SavePod(ctx, p); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("POD %d approved", p.ID)
	if in.Status == models.PodRejected {
		summary = fmt.Sprintf("POD %d rejected: %s", p.ID, reason)
	}
	e.record(ctx, actor, audit.Entry{
		Action:     models.ActionPodReviewed,
		EntityType: models.EntityPod,
		EntityID:   p.ID,
		Summary:    summary,
		Meta:       map[string]any{"decision": in.Status, "docket_id": p.DocketID},
	})
	return p, nil
}
