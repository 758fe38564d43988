package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"fee-management-system/app/apperr"
	"fee-management-system/app/database"
	"fee-management-system/app/models"
	"fee-management-system/app/routes"
	"fee-management-system/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	users  services.UserStore
	tokens *Tokens
	logger *slog.Logger
}

func NewHandler(users services.UserStore, tokens *Tokens, logger *slog.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, logger: logger}
}

// Tokens exposes the token validator for other route groups.
func (h *Handler) Tokens() *Tokens {
	return h.tokens
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// Register validates and stores a new account.
func (h *Handler) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.UserType == "" {
		return nil, apperr.Validation("All fields are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperr.Validation("Invalid email address")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}
	role, ok := models.ParseRole(req.UserType)
	if !ok {
		return nil, apperr.Validation("User type must be admin or parent")
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err, "Error registering user")
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Password: hashed,
		Role:     role,
	}
	err = h.users.CreateUser(ctx, user)
	if errors.Is(err, database.ErrDuplicateEmail) {
		return nil, apperr.Conflict("User with this email already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Error registering user")
	}
	h.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (h *Handler) RegisterAPI(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return routes.BadRequest("Invalid request body")
	}

	user, err := h.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusCreated, fiber.Map{"userId": user.ID})
}

func (h *Handler) LoginAPI(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return routes.BadRequest("Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("Email and password are required")
	}

	user, err := h.users.GetUserByEmail(c.UserContext(), strings.TrimSpace(req.Email))
	if errors.Is(err, database.ErrNotFound) {
		return apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return apperr.Internal(err, "Error logging in")
	}

	if !CheckPasswordHash(req.Password, user.Password) {
		return apperr.Unauthorized("Invalid credentials")
	}

	token, err := h.tokens.GenerateJWT(user)
	if err != nil {
		return apperr.Internal(err, "Failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt_token",
		Value:    token,
		Expires:  time.Now().Add(h.tokens.ttl),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return routes.OK(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  user,
	})
}

func LogoutAPI(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return routes.Message(c, "Logged out")
}

func (h *Handler) ListParentsAPI(c *fiber.Ctx) error {
	guardians, err := h.users.ListGuardians(c.UserContext())
	if err != nil {
		return apperr.Internal(err, "Error fetching parents")
	}
	return routes.OK(c, fiber.StatusOK, guardians)
}
