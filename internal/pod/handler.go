package pod

import (
	"fmt"
	"strconv"
	"strings"

	"logistics-backend/internal/auth"
	"logistics-backend/internal/models"
	"logistics-backend/internal/storage"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

const maxImageSize = 10 << 20

// GET /api/pods?status=pending_review&docket_id=1
func ListHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := store.PodFilter{Status: strings.TrimSpace(c.Query("status"))}
		switch models.PodStatus(f.Status) {
		case "", models.PodPendingReview, models.PodApproved, models.PodRejected:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unknown POD status "+f.Status)
		}
		if s := c.Query("docket_id"); s != "" {
			id, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid docket_id")
			}
			f.DocketID = uint(id)
		}

		pods, err := st.ListPods(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(pods)
	}
}

// POST /api/pods
// Body: {"docket_id":1,"image_ref":"https://..."} for an image stored elsewhere.
func CreateHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body workflow.SubmitPodInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		p, err := eng.SubmitPod(c.UserContext(), auth.ActorFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// POST /api/pods/upload (multipart: image, docketId)
// The docket is checked before the image is stored so a bad id leaves no orphan object.
func UploadHandler(eng *workflow.Engine, objects storage.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docketRef := c.FormValue("docketId")
		if docketRef == "" {
			docketRef = c.FormValue("docket_id")
		}
		parsed, err := strconv.ParseUint(strings.TrimSpace(docketRef), 10, 0)
		if err != nil || parsed == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "docketId is required")
		}
		docketID := uint(parsed)

		fh, err := c.FormFile("image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image file is required")
		}
		if fh.Size > maxImageSize {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "image must be 10 MB or smaller")
		}
		contentType := fh.Header.Get(fiber.HeaderContentType)
		ext, ok := storage.ImageExt(contentType)
		if !ok {
			return fiber.NewError(fiber.StatusUnsupportedMediaType, "image must be JPEG, PNG, WebP or HEIC")
		}

		if _, err := eng.Store().GetDocket(c.UserContext(), docketID); err != nil {
			return err
		}

		file, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "image could not be read")
		}
		defer file.Close()

		ref, err := objects.Put(c.UserContext(), storage.NewKey("pods", ext), file, fh.Size, contentType)
		if err != nil {
			return fmt.Errorf("store POD image: %w", err)
		}

		p, err := eng.SubmitPod(c.UserContext(), auth.ActorFrom(c), workflow.SubmitPodInput{
			DocketID: docketID,
			ImageRef: ref,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// POST /api/pods/:id/review
// Body: {"status":"rejected","reason":"signature missing"}
func ReviewHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body workflow.ReviewPodInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		p, err := eng.ReviewPod(c.UserContext(), auth.ActorFrom(c), id, body)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// POST /api/pods/:id/analyze
func AnalyzeHandler(eng *workflow.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		p, err := eng.AnalyzePod(c.UserContext(), auth.ActorFrom(c), id)
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid POD id")
	}
	return uint(id), nil
}
