package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/oceanpulse/argochat/internal/core/domain"
)

// GetSettingsHandler returns the stored preferences.
func GetSettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Settings.Get(c.Context()))
	}
}

// UpdateSettingsHandler validates and stores new preferences.
func UpdateSettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var st domain.Settings
		if err := c.BodyParser(&st); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if err := deps.Settings.Update(c.Context(), st); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(st)
	}
}

type uploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// ListUploadsHandler returns the recorded upload metadata.
func ListUploadsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		files := deps.Uploads.List(c.Context())
		return c.JSON(fiber.Map{
			"files": files,
			"count": len(files),
		})
	}
}

// AddUploadHandler records a new upload.
func AddUploadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req uploadRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Size < 0 {
			return errBadRequest(c, "size must be non-negative")
		}

		file, err := deps.Uploads.Add(c.Context(), req.Name, req.ContentType, req.Size)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(file)
	}
}

// DeleteUploadHandler removes an upload record.
func DeleteUploadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "upload id is required")
		}
		ok, err := deps.Uploads.Remove(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if !ok {
			return errNotFound(c, "upload not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
