package apperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the fiber.Config ErrorHandler: domain errors keep their
// status and message, anything unknown is logged and hidden behind a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Kind == KindUnexpected {
			log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
			return c.Status(ae.Status).JSON(fiber.Map{"error": ae.Message})
		}
		body := fiber.Map{"error": ae.Message}
		if ae.Field != "" {
			body["field"] = ae.Field
		}
		return c.Status(ae.Status).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unexpected server error"})
}
