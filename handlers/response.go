package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/rs/zerolog/log"
)

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ErrorHandler is the single place errors become responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, isApp := apperror.As(err); isApp {
		return fail(c, appErr.Status, appErr.Code, appErr.Message)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return fail(c, fe.Code, apperror.CodeNotFound, fe.Message)
		case fe.Code == fiber.StatusRequestEntityTooLarge:
			return fail(c, fe.Code, apperror.CodeFileTooLarge, "Request body too large")
		case fe.Code >= 400 && fe.Code < 500:
			return fail(c, fe.Code, apperror.CodeValidation, fe.Message)
		}
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Request failed")
	return fail(c, fiber.StatusInternalServerError, apperror.CodeInternal, "Internal server error")
}

func invalidBody() error {
	return apperror.Validation("Invalid request body")
}
