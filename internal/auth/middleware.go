package auth

import (
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/config"
	"logistics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUsernameKey = "username"
	CtxUserRoleKey = "user_role"

	// set by fiber's requestid middleware
	ctxRequestIDKey = "requestid"

	SessionCookie = "session"
)

// JWTMiddleware accepts the session cookie or an Authorization: Bearer header.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(SessionCookie)
		if tokenStr == "" {
			authHeader := c.Get(fiber.HeaderAuthorization)
			if authHeader == "" {
				return apperr.Unauthenticated("authentication required")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperr.Unauthenticated("authorization header must be 'Bearer <token>'")
			}
			tokenStr = strings.TrimSpace(parts[1])
		}

		claims, err := ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			return apperr.Unauthenticated("invalid or expired session")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUsernameKey, claims.Username)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return apperr.Unauthenticated("authentication required")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "your role may not perform this action")
	}
}

// ActorFrom builds the audit actor for the current request. Requests without
// a session yield the system actor with origin details filled in.
func ActorFrom(c *fiber.Ctx) audit.Actor {
	a := audit.Actor{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if rid, ok := c.Locals(ctxRequestIDKey).(string); ok {
		a.RequestID = rid
	}
	if id, ok := c.Locals(CtxUserIDKey).(uint); ok && id != 0 {
		a.UserID = &id
		a.Username, _ = c.Locals(CtxUsernameKey).(string)
	}
	return a
}
