package middleware

import (
	"strings"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/auth"
)

const userKey = "user"

// AuthMiddleware accepts "Authorization: Bearer <token>" or the JWT cookie.
func AuthMiddleware(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var tokenStr string

		if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok && after != "" {
			tokenStr = after
		} else {
			tokenStr = c.Cookies(auth.CookieName)
		}

		if tokenStr == "" {
			return apperror.Unauthorized("Authentication required")
		}

		user, err := svc.Parse(tokenStr)
		if err != nil {
			return apperror.Unauthorized("Invalid or expired session")
		}

		c.Locals(userKey, *user)
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, or "" outside the gate.
func CurrentUserID(c *fiber.Ctx) string {
	user, ok := c.Locals(userKey).(token.User)
	if !ok {
		return ""
	}
	return user.ID
}
