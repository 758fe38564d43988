package auth

import (
	"strings"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes mounts registration, login and the guardian directory.
func SetupAuthRoutes(api fiber.Router, h *Handler) {
	auth := api.Group("/auth")

	auth.Post("/register", h.RegisterAPI)
	auth.Post("/login", h.LoginAPI)
	auth.Post("/logout", LogoutAPI)

	auth.Get("/parents", AuthMiddleware(h.tokens), RoleMiddleware(models.RoleAdmin), h.ListParentsAPI)
}

// Identity is the authenticated caller.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  models.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Caller returns the identity set by AuthMiddleware.
func Caller(c *fiber.Ctx) Identity {
	id, _ := c.Locals("identity").(Identity)
	return id
}

// AuthMiddleware validates the bearer token from the Authorization header
// or the jwt_token cookie and stores the caller identity.
func AuthMiddleware(tokens *Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
		if tokenString == "" {
			tokenString = c.Cookies("jwt_token")
		}
		if tokenString == "" {
			return apperr.Unauthorized("Access denied. No token provided")
		}

		claims, err := tokens.ValidateJWT(tokenString)
		if err != nil {
			return apperr.Unauthorized("Invalid token")
		}

		c.Locals("identity", Identity{
			ID:    claims.ID,
			Name:  claims.Name,
			Email: claims.Email,
			Role:  claims.Role,
		})
		return c.Next()
	}
}

// RoleMiddleware checks if user has required role
func RoleMiddleware(allowedRoles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Caller(c).Role
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		if len(allowedRoles) == 1 && allowedRoles[0] == models.RoleAdmin {
			return apperr.Forbidden("Access denied. Admin only")
		}
		return apperr.Forbidden("Insufficient permissions")
	}
}
