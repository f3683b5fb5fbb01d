package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/middleware"
	"github.com/krishkalaria12/snap-swap/services"
	"github.com/pkg/errors"
)

func (h *Handler) CreateUpload(c *fiber.Ctx) error {
	var input struct {
		ImageCount int `json:"imageCount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return invalidBody()
	}

	session, err := h.svc.Uploads.CreateSession(c.UserContext(), middleware.CurrentUserID(c), input.ImageCount)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, session)
}

func (h *Handler) AttachImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperror.Validation("Expected multipart form data")
	}

	uploadID := ""
	if values := form.Value["uploadId"]; len(values) > 0 {
		uploadID = strings.TrimSpace(values[0])
	}

	headers := form.File["images[]"]
	if len(headers) == 0 {
		headers = form.File["images"]
	}

	files, err := readImages(headers)
	if err != nil {
		return err
	}

	res, err := h.svc.Uploads.AttachImages(c.UserContext(), uploadID, middleware.CurrentUserID(c), files)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, res)
}

func readImages(headers []*multipart.FileHeader) ([]services.ImageFile, error) {
	files := make([]services.ImageFile, 0, len(headers))
	for _, fh := range headers {
		// Oversized parts are rejected by the service with FILE_TOO_LARGE
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", fh.Filename)
		}

		files = append(files, services.ImageFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func (h *Handler) GetUpload(c *fiber.Ctx) error {
	includeFaces := strings.Contains(c.Query("include"), "faces")
	includePreview := c.QueryBool("preview", false)

	details, err := h.svc.Uploads.Get(c.UserContext(), c.Params("id"), middleware.CurrentUserID(c), includeFaces, includePreview)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, details)
}
