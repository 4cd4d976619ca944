package engine

import (
	"github.com/gofiber/fiber/v2"

	"mealplan-backend/internal/metadata"
)

// RequestScope is the per-request configuration handlers read: the
// authenticated user (nil when auth is disabled) and the active household.
type RequestScope struct {
	User      *metadata.UserContext
	Household ScopeToken
}

// SetRequestScope stores the scope for downstream handlers.
func SetRequestScope(c *fiber.Ctx, s *RequestScope) {
	c.Locals("scope", s)
}

// GetRequestScope returns the scope set by the scope middleware. A handler
// mounted without that middleware is a wiring error.
func GetRequestScope(c *fiber.Ctx) (*RequestScope, error) {
	s, ok := c.Locals("scope").(*RequestScope)
	if !ok || s == nil {
		return nil, MissingScopeError()
	}
	return s, nil
}
