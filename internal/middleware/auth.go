// Package middleware provides HTTP middleware components for the application.
// It includes authentication and authorization middleware for the fiber
// web framework.
package middleware

import (
	"strings"

	"civicpay/internal/models"
	"civicpay/internal/utils"
	"civicpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// JobTokenHeader carries the scheduler's shared secret.
const JobTokenHeader = "X-Job-Token"

// AuthMiddleware validates bearer tokens issued by the identity provider
// and adds the user claims to the request context.
type AuthMiddleware struct {
	secret string
	log    *logrus.Logger
}

func NewAuthMiddleware(secret string, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: secret, log: log}
}

// Handler rejects requests without a valid, unexpired bearer token.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	claims, ok := m.authenticate(c)
	if !ok {
		return response.Unauthorized(c)
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*models.UserClaims, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.WithError(err).WithField("path", c.Path()).Debug("token rejected")
		return nil, false
	}
	return claims, true
}

// JobAuth admits the scheduler by its job token, or an admin by bearer
// token. The job token is compared against its bcrypt hash.
func (m *AuthMiddleware) JobAuth(tokenHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Get(JobTokenHeader); token != "" {
			if utils.CheckSecret(tokenHash, token) {
				return c.Next()
			}
			m.log.WithField("ip", c.IP()).Warn("invalid job token")
			return response.Unauthorized(c)
		}

		claims, ok := m.authenticate(c)
		if !ok {
			return response.Unauthorized(c)
		}
		if claims.Role != models.RoleAdmin && !claims.HasPermission(models.PermissionJobsRun) {
			return response.Forbidden(c)
		}
		c.Locals("claims", claims)
		return c.Next()
	}
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return response.Unauthorized(c)
		}

		// If user is admin, allow all permissions
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return response.Forbidden(c)
	}
}
