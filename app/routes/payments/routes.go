package payments

import (
	"fee-management-system/app/models"
	"fee-management-system/app/routes/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentsRoutes mounts the ledger and reporting endpoints. Literal
// paths are registered before /:id.
func SetupPaymentsRoutes(api fiber.Router, h *Handler, tokens *auth.Tokens) {
	payments := api.Group("/payments", auth.AuthMiddleware(tokens))
	admin := auth.RoleMiddleware(models.RoleAdmin)
	guardian := auth.RoleMiddleware(models.RoleGuardian)

	payments.Post("/process", guardian, h.ProcessPaymentAPI)
	payments.Get("/history", guardian, h.HistoryAPI)

	payments.Get("/all", admin, h.AllPaymentsAPI)
	payments.Get("/all-paginated", admin, h.PaginatedPaymentsAPI)
	payments.Get("/dashboard/summary", admin, h.DashboardSummaryAPI)
	payments.Get("/report", admin, h.ReportAPI)
	payments.Get("/unpaid-parents", admin, h.UnpaidParentsAPI)
	payments.Get("/overdue-parents", admin, h.OverdueParentsAPI)

	payments.Get("/:id", h.GetPaymentAPI)
}
