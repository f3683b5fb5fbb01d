package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/middleware"
	"github.com/krishkalaria12/snap-swap/services"
)

func (h *Handler) EnhancePrompt(c *fiber.Ctx) error {
	var input struct {
		Prompt  string `json:"prompt"`
		Context any    `json:"context"`
	}
	if err := c.BodyParser(&input); err != nil {
		return invalidBody()
	}

	res, err := h.svc.Prompts.Enhance(c.UserContext(), input.Prompt, input.Context)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, res)
}

func (h *Handler) Generate(c *fiber.Ctx) error {
	var input services.CreateJobRequest
	if err := c.BodyParser(&input); err != nil {
		return invalidBody()
	}

	created, err := h.svc.Jobs.Create(c.UserContext(), middleware.CurrentUserID(c), input)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, created)
}

func (h *Handler) JobStatus(c *fiber.Ctx) error {
	view, err := h.svc.Jobs.Status(c.UserContext(), c.Query("jobId"), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, view)
}
