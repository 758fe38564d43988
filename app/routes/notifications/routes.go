package notifications

import (
	"fee-management-system/app/models"
	"fee-management-system/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationsRoutes(api fiber.Router, h *Handler, tokens *auth.Tokens) {
	notifications := api.Group("/notifications", auth.AuthMiddleware(tokens))
	guardian := auth.RoleMiddleware(models.RoleGuardian)

	notifications.Post("/send", auth.RoleMiddleware(models.RoleAdmin), h.SendAPI)
	notifications.Get("/user", guardian, h.UserNotificationsAPI)
	notifications.Put("/:id/read", guardian, h.MarkReadAPI)
	notifications.Delete("/:id", guardian, h.DeleteAPI)
}
