package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/middleware"
)

func (h *Handler) GetResult(c *fiber.Ctx) error {
	includeMetadata := c.Query("include") == "metadata"

	result, err := h.svc.Results.Get(c.UserContext(), c.Params("resultId"), middleware.CurrentUserID(c), includeMetadata)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"result": result})
}

func (h *Handler) DownloadResult(c *fiber.Ctx) error {
	dl, err := h.svc.Results.Download(c.UserContext(), c.Query("resultId"), middleware.CurrentUserID(c), c.Query("filename"), c.Query("format"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, dl.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Filename))
	return c.Status(fiber.StatusOK).Send(dl.Data)
}
