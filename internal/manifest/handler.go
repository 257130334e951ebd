package manifest

import (
	"errors"
	"strconv"
	"strings"

	"logistics-backend/internal/auth"
	"logistics-backend/internal/models"
	"logistics-backend/internal/report"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/manifests
func ListHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		manifests, err := st.ListManifests(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(manifests)
	}
}

// POST /api/manifests
// Body: {"loading_sheet_id": 1}
func CreateHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body workflow.GenerateManifestInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		m, err := eng.GenerateManifest(c.UserContext(), auth.ActorFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// GET /api/manifests/:id
func GetHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := load(c, st)
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}

// GET /api/manifests/:id/export.xlsx
func ExportXLSXHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := load(c, st)
		if err != nil {
			return err
		}

		raw, err := report.ManifestXLSX(m)
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+downloadName(m.ManifestNumber, "xlsx")+`"`)
		return c.Send(raw)
	}
}

// GET /api/manifests/:id/pdf
func PDFHandler(st *store.Store, renderer report.PDFRenderer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := load(c, st)
		if err != nil {
			return err
		}

		html, err := report.ManifestHTML(m)
		if err != nil {
			return err
		}

		pdf, err := renderer.RenderPDF(c.UserContext(), html)
		if errors.Is(err, report.ErrPDFDisabled) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "PDF export is not enabled on this server")
		}
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="`+downloadName(m.ManifestNumber, "pdf")+`"`)
		return c.Send(pdf)
	}
}

func load(c *fiber.Ctx, st *store.Store) (*models.Manifest, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid manifest id")
	}
	return st.GetManifest(c.UserContext(), uint(id))
}

// downloadName keeps only characters that are safe inside a quoted
// Content-Disposition filename.
func downloadName(number, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, number)
	if name == "" {
		name = "manifest"
	}
	return name + "." + ext
}
