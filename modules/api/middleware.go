package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// ActorContextKey is the key used to store verified claims in the
	// Fiber context.
	ActorContextKey = "actor"
)

// AuthMiddleware creates a middleware that validates JWT tokens.
func AuthMiddleware(verifier *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(ActorContextKey, claims)

		return c.Next()
	}
}

// actorFromContext returns the verified actor identity stored by
// AuthMiddleware.
func actorFromContext(c *fiber.Ctx) string {
	claims, ok := c.Locals(ActorContextKey).(*Claims)
	if !ok {
		return ""
	}
	return claims.ActorID()
}
