package middleware

import (
	"log"
	"strings"

	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GuestIDHeader carries the anonymous identity for callers without an
// account. The identity middleware mints one on first contact and
// echoes it back so the client can keep using the same cart.
const GuestIDHeader = "X-Guest-ID"

const identityKey = "identity"

// Identity is the resolved caller of a request: either a registered
// user with a role, or a guest identity that can hold a cart and place
// orders.
type Identity struct {
	ID    string
	Role  models.Role
	Guest bool
}

// IdentityFrom returns the identity stored by the middleware for this
// request.
func IdentityFrom(c *fiber.Ctx) Identity {
	id, _ := c.Locals(identityKey).(Identity)
	return id
}

// WithIdentity resolves the caller into an Identity: a valid bearer
// token yields the registered user, otherwise the request proceeds as a
// guest keyed by the X-Guest-ID header (minted when absent). Shopping
// and checkout run behind this, since guests may do both.
func WithIdentity(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := bearerToken(c); tokenString != "" {
			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "Invalid or expired token",
					"error":   err.Error(),
				})
			}
			userID, _ := claims["user_id"].(string)
			role, _ := claims["role"].(string)
			c.Locals(identityKey, Identity{ID: userID, Role: models.Role(role)})
			return c.Next()
		}

		guestID := c.Get(GuestIDHeader)
		if guestID == "" {
			guestID = "guest-" + uuid.New().String()
		}
		c.Set(GuestIDHeader, guestID)
		c.Locals(identityKey, Identity{ID: guestID, Role: models.RoleCustomer, Guest: true})
		return c.Next()
	}
}

// AuthRequired only admits requests carrying a valid bearer token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header with Bearer token is required",
			})
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		c.Locals(identityKey, Identity{ID: userID, Role: models.Role(role)})
		return c.Next()
	}
}

// RequireRole admits only identities holding one of the given roles.
// It must run after AuthRequired or WithIdentity.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := IdentityFrom(c)
		if identity.Guest {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "This action requires a registered account",
			})
		}
		for _, role := range roles {
			if identity.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Insufficient permissions for this action",
		})
	}
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
