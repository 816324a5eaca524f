package middleware

import (
	"strings"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "userID"

// TokenValidator resolves an access token to a user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// RequireAuth rejects requests without a valid access token.
func RequireAuth(tokens TokenValidator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := extractToken(c, cookieName)
		if tokenStr == "" {
			return unauthorized(c, apperr.ErrUnauthorized)
		}

		userID, err := tokens.Validate(tokenStr)
		if err != nil {
			return unauthorized(c, err)
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(tokens TokenValidator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr := extractToken(c, cookieName); tokenStr != "" {
			if userID, err := tokens.Validate(tokenStr); err == nil {
				c.Locals(userIDKey, userID)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// extractToken reads the cookie first, then the Authorization header.
func extractToken(c *fiber.Ctx, cookieName string) string {
	if tokenStr := strings.TrimSpace(c.Cookies(cookieName)); tokenStr != "" {
		return tokenStr
	}

	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func unauthorized(c *fiber.Ctx, err error) error {
	e := apperr.From(err)
	if e.Kind != apperr.KindUnauthenticated {
		e = apperr.ErrUnauthorized
	}
	return c.Status(fiber.StatusUnauthorized).JSON(models.Failure(e.Code, e.Message))
}
