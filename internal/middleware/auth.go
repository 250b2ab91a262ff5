// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"log/slog"
	"strings"

	"remit/internal/models"
	"remit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the bearer token issued by the identity service
// and stores its claims on the request.
type AuthMiddleware struct {
	secret string
	logger *slog.Logger
}

func NewAuthMiddleware(secret string, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: secret,
		logger: logger,
	}
}

// Handler checks for:
// - presence of an Authorization header with a Bearer token
// - a valid HS256 signature
// - token expiry and a non-empty user id
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := utils.ParseToken(m.secret, tokenString)
	if err != nil {
		m.logger.Debug("token rejected", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	if len(claims.Permissions) == 0 {
		claims.Permissions = models.GetDefaultPermissions(claims.Role)
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid claims"})
	}
	if !claims.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		// admins hold every permission
		if claims.IsAdmin() || claims.HasPermission(permission) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}

// Claims returns the verified claims stored by Handler.
func Claims(c *fiber.Ctx) (*models.UserClaims, bool) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	return claims, ok && claims != nil
}
