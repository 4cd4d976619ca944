package instrument

import (
	"errors"
	"math/rand"

	"github.com/gofiber/fiber/v2"

	"mealplan-backend/internal/config"
	"mealplan-backend/internal/metadata"
)

// Middleware returns a Fiber middleware that traces each request.
// It propagates or generates a trace ID, opens a root HTTP span and
// injects the instrumenter into the request context for handlers.
func Middleware(cfg config.InstrumentationConfig, sink Sink) fiber.Handler {
	instrumenter := NewInstrumenter(sink)

	return func(c *fiber.Ctx) error {
		if !cfg.Enabled || sink == nil {
			return c.Next()
		}

		if cfg.SamplingRate < 1.0 && rand.Float64() > cfg.SamplingRate {
			return c.Next()
		}

		traceID := c.Get("X-Trace-ID")
		if traceID == "" {
			traceID = newUUID()
		}

		ctx := WithTraceID(c.UserContext(), traceID)
		ctx = WithInstrumenter(ctx, instrumenter)
		ctx, span := instrumenter.StartSpan(ctx, "http", "handler", "request")
		span.SetMetadata("method", c.Method())
		span.SetMetadata("path", c.Path())
		c.SetUserContext(ctx)

		c.Set("X-Trace-ID", traceID)

		err := c.Next()

		// auth middleware runs downstream and sets c.Locals("user")
		if user, ok := c.Locals("user").(*metadata.UserContext); ok && user != nil {
			span.SetMetadata("user_id", user.ID)
		}

		statusCode := c.Response().StatusCode()
		if err != nil {
			statusCode = errorStatus(err)
		}
		span.SetMetadata("status_code", statusCode)
		if statusCode >= 400 {
			span.SetStatus("error")
		} else {
			span.SetStatus("ok")
		}
		span.End()

		return err
	}
}

// errorStatus picks the status the error handler will write for err.
func errorStatus(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var se interface{ HTTPStatus() int }
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return fiber.StatusInternalServerError
}
