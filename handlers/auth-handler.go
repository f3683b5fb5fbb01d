package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/auth"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	input := new(credentials)
	if err := c.BodyParser(input); err != nil {
		return invalidBody()
	}

	user, err := h.svc.Users.Register(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusCreated, fiber.Map{
		"user":    user,
		"message": "Registration successful! Please login.",
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	input := new(credentials)
	if err := c.BodyParser(input); err != nil {
		return invalidBody()
	}

	res, err := h.svc.Users.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return err
	}

	// Set JWT cookie for browser clients
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: "Lax",
	})

	return ok(c, fiber.StatusOK, res)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: "Lax",
	})

	return ok(c, fiber.StatusOK, fiber.Map{"message": "Logout successful"})
}
