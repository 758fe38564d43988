package fees

import (
	"fee-management-system/app/models"
	"fee-management-system/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupFeesRoutes sets up the fees routes
func SetupFeesRoutes(api fiber.Router, h *Handler, tokens *auth.Tokens) {
	fees := api.Group("/fees", auth.AuthMiddleware(tokens))
	admin := auth.RoleMiddleware(models.RoleAdmin)
	guardian := auth.RoleMiddleware(models.RoleGuardian)

	fees.Post("/", admin, h.CreateFeeAPI)
	fees.Get("/all", admin, h.ListFeesAPI)
	fees.Get("/status", guardian, h.FeeStatusAPI)
	fees.Post("/assign-to-parent", admin, h.AssignToParentAPI)

	fees.Get("/:id", h.GetFeeAPI)
	fees.Put("/:id", admin, h.UpdateFeeAPI)
	fees.Delete("/:id", admin, h.DeleteFeeAPI)
}
