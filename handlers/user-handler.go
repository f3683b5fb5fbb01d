package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/middleware"
	"github.com/krishkalaria12/snap-swap/services"
)

func (h *Handler) Profile(c *fiber.Ctx) error {
	profile, err := h.svc.Users.Profile(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, profile)
}

func (h *Handler) History(c *fiber.Ctx) error {
	history, err := h.svc.Users.History(c.UserContext(), middleware.CurrentUserID(c), services.HistoryParams{
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, history)
}
