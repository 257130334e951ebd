package auth

import (
	"fmt"
	"time"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/config"
	"logistics-backend/internal/models"
	"logistics-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

// POST /api/auth/register
// Only the very first account may register itself as admin.
func RegisterHandler(st *store.Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Role == models.RoleAdmin {
			var count int64
			if err := st.DB().WithContext(c.UserContext()).Model(&models.User{}).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fiber.NewError(fiber.StatusForbidden, "admin accounts are created by an administrator")
			}
		}

		user, err := CreateUser(c.UserContext(), st, body.Username, body.Password, body.Role)
		if err != nil {
			return err
		}

		actor := ActorFrom(c)
		actor.UserID, actor.Username = &user.ID, user.Username
		rec.Record(c.UserContext(), actor, audit.Entry{
			Action:     models.ActionUserRegistered,
			EntityType: models.EntityUser,
			EntityID:   user.ID,
			Summary:    fmt.Sprintf("User %s registered as %s", user.Username, user.Role),
		})

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Username == "" || body.Password == "" {
			return apperr.Validation("username", "username and password are required")
		}

		user, err := Authenticate(c.UserContext(), st, body.Username, body.Password)
		if err != nil {
			return err
		}

		now := time.Now()
		token, err := GenerateToken(cfg.JWTSecret, user, now)
		if err != nil {
			return apperr.Unexpected(err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  now.Add(TokenTTL),
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(user),
		})
	}
}

// POST /api/auth/logout
func LogoutHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(fiber.Map{"message": "logged out"})
	}
}

// GET /api/auth/me
func MeHandler(st *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return apperr.Unauthenticated("authentication required")
		}

		user, err := st.GetUser(c.UserContext(), userID)
		if apperr.IsNotFound(err) {
			// token outlived its account
			return apperr.Unauthenticated("session user no longer exists")
		}
		if err != nil {
			return err
		}
		return c.JSON(toUserResponse(user))
	}
}
