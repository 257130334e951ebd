package thc

import (
	"strconv"

	"logistics-backend/internal/auth"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// GET /api/thcs?manifest_id=1
func ListHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var manifestID uint
		if s := c.Query("manifest_id"); s != "" {
			id, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid manifest_id")
			}
			manifestID = uint(id)
		}

		thcs, err := st.ListThcs(c.UserContext(), manifestID)
		if err != nil {
			return err
		}
		return c.JSON(thcs)
	}
}

// POST /api/thcs
// Body: {"manifest_id":1,"hire_amount":"5000","advance_amount":"1500"}
func CreateHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body workflow.IssueThcInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := eng.IssueThc(c.UserContext(), auth.ActorFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// PATCH /api/thcs/:id
// Only the fields present in the body change.
func UpdateHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 0)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid thc id")
		}

		var body workflow.ThcPatch
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		t, err := eng.UpdateThc(c.UserContext(), auth.ActorFrom(c), uint(id), body)
		if err != nil {
			return err
		}
		return c.JSON(t)
	}
}
