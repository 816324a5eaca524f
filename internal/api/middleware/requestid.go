package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID tags every request with an id (taken from X-Request-ID when the
// caller sends one) and stores a child logger carrying it in the user context.
func RequestID(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(requestIDKey, requestID)

		loggerWithID := logger.With().Str("request_id", requestID).Logger()
		c.SetUserContext(loggerWithID.WithContext(c.UserContext()))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		duration := time.Since(start)
		event := loggerWithID.Info()
		if status >= fiber.StatusInternalServerError {
			event = loggerWithID.Error()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("request completed")
		return err
	}
}
