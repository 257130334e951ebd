package audit

import (
	"encoding/json"
	"strconv"
	"time"

	"logistics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID         uint            `json:"id"`
	CreatedAt  string          `json:"created_at"`
	UserID     *uint           `json:"user_id"`
	Username   string          `json:"username"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uint            `json:"entity_id"`
	Summary    string          `json:"summary"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	IPAddress  string          `json:"ip_address"`
	UserAgent  string          `json:"user_agent"`
}

func ToResponse(l models.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         l.ID,
		CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339),
		UserID:     l.UserID,
		Username:   l.Username,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Summary:    l.Summary,
		IPAddress:  l.IPAddress,
		UserAgent:  l.UserAgent,
	}
	if len(l.Metadata) > 0 {
		resp.Metadata = json.RawMessage(l.Metadata)
	}
	return resp
}

// GET /api/audit-logs?search=manifest&entity_type=docket&entity_id=1&limit=50
func ListAuditLogsHandler(rec *Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := ListQuery{
			Search:     c.Query("search"),
			EntityType: c.Query("entity_type"),
		}

		if s := c.Query("entity_id"); s != "" {
			id, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid entity_id")
			}
			q.EntityID = uint(id)
		}
		if s := c.Query("limit"); s != "" {
			limit, err := strconv.Atoi(s)
			if err != nil || limit <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
			}
			q.Limit = limit
		}

		logs, err := rec.List(c.UserContext(), q)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, ToResponse(l))
		}
		return c.JSON(resp)
	}
}
