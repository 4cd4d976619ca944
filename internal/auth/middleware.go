package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"mealplan-backend/internal/engine"
	"mealplan-backend/internal/metadata"
)

// AuthMiddleware returns a Fiber middleware that validates JWT tokens
// and sets the UserContext on the request.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return engine.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}

		c.Locals("user", &metadata.UserContext{
			ID:        claims.Subject,
			Household: claims.Household,
			Roles:     claims.Roles,
		})

		return c.Next()
	}
}

// RequireAdmin is a Fiber middleware that checks the authenticated user has the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return engine.UnauthorizedError("Missing auth token")
		}
		if !user.IsAdmin() {
			return engine.ForbiddenError("Admin access required")
		}
		return c.Next()
	}
}

// ScopeMiddleware resolves the active household for the request. The header
// wins; without it the authenticated user's household applies, and without
// either the request is unscoped.
func ScopeMiddleware(header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)

		// the token outlives the request when stamped onto created records
		raw := utils.CopyString(c.Get(header))
		if raw == "" && user != nil {
			raw = user.Household
		}
		token, err := engine.ParseScopeToken(raw)
		if err != nil {
			return engine.InvalidScopeError(err)
		}

		engine.SetRequestScope(c, &engine.RequestScope{User: user, Household: token})
		return c.Next()
	}
}

// GetUser extracts the UserContext from a Fiber context.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}
