package docket

import (
	"strconv"
	"strings"

	"logistics-backend/internal/auth"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

type ForceStatusRequest struct {
	Status models.DocketStatus `json:"status"`
}

// GET /api/dockets?status=booked&search=acme
func ListHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := strings.TrimSpace(c.Query("status"))
		if status != "" && !workflow.ValidStatus(models.DocketStatus(status)) {
			return fiber.NewError(fiber.StatusBadRequest, "unknown docket status "+status)
		}

		dockets, err := st.ListDockets(c.UserContext(), store.DocketFilter{
			Status: status,
			Search: c.Query("search"),
		})
		if err != nil {
			return err
		}
		return c.JSON(dockets)
	}
}

// POST /api/dockets
func CreateHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body workflow.BookDocketInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		d, err := eng.BookDocket(c.UserContext(), auth.ActorFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

// GET /api/dockets/:id accepts a numeric id or a docket number.
func GetHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := lookup(c, st)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// PATCH /api/dockets/:id/status
// Manual correction: may move a docket backwards.
func ForceStatusHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body ForceStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		d, err := eng.ForceDocketStatus(c.UserContext(), auth.ActorFrom(c), id, body.Status)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid docket id")
	}
	return uint(id), nil
}

func lookup(c *fiber.Ctx, st *store.Store) (*models.Docket, error) {
	ref := strings.TrimSpace(c.Params("id"))
	if id, err := strconv.ParseUint(ref, 10, 0); err == nil && id > 0 && strconv.FormatUint(id, 10) == ref {
		return st.GetDocket(c.UserContext(), uint(id))
	}
	return st.GetDocketByNumber(c.UserContext(), ref)
}
