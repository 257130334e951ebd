package loading

import (
	"strconv"

	"logistics-backend/internal/auth"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// GET /api/loading-sheets
func ListHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sheets, err := st.ListLoadingSheets(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(sheets)
	}
}

// POST /api/loading-sheets
// Body: {"vehicle_number":"MH12AB1234","driver_name":"Ravi","destination":"Pune","docket_ids":[1,2]}
func CreateHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body workflow.AssembleLoadingSheetInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		ls, err := eng.AssembleLoadingSheet(c.UserContext(), auth.ActorFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(ls)
	}
}

// GET /api/loading-sheets/:id
func GetHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 0)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid loading sheet id")
		}

		ls, err := st.GetLoadingSheet(c.UserContext(), uint(id))
		if err != nil {
			return err
		}
		return c.JSON(ls)
	}
}
