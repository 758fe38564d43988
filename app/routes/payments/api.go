package payments

import (
	"fee-management-system/app/routes"
	"fee-management-system/app/routes/auth"
	"fee-management-system/app/services"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	ledger  *services.PaymentLedger
	reports *services.Reports
}

func NewHandler(ledger *services.PaymentLedger, reports *services.Reports) *Handler {
	return &Handler{ledger: ledger, reports: reports}
}

// ProcessPaymentAPI settles one fee for the calling guardian.
func (h *Handler) ProcessPaymentAPI(c *fiber.Ctx) error {
	var req services.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return routes.BadRequest("Invalid request body")
	}

	receipt, err := h.ledger.ProcessPayment(c.UserContext(), auth.Caller(c).ID, req)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusCreated, receipt)
}

func (h *Handler) HistoryAPI(c *fiber.Ctx) error {
	history, err := h.ledger.History(c.UserContext(), auth.Caller(c).ID)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, history)
}

func (h *Handler) GetPaymentAPI(c *fiber.Ctx) error {
	caller := auth.Caller(c)
	payment, err := h.ledger.GetPayment(c.UserContext(), c.Params("id"), caller.ID, caller.IsAdmin())
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, payment)
}

func (h *Handler) AllPaymentsAPI(c *fiber.Ctx) error {
	payments, err := h.reports.AllPayments(c.UserContext())
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, payments)
}

// PaginatedPaymentsAPI serves ?page&limit&search&status&dateFilter, where
// dateFilter is a number of days.
func (h *Handler) PaginatedPaymentsAPI(c *fiber.Ctx) error {
	page, err := h.reports.ListPayments(c.UserContext(), services.PaymentQuery{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("limit", 10),
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		LastDays: c.QueryInt("dateFilter", 0),
	})
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, page)
}

func (h *Handler) DashboardSummaryAPI(c *fiber.Ctx) error {
	summary, err := h.reports.DashboardSummary(c.UserContext())
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, summary)
}

func (h *Handler) ReportAPI(c *fiber.Ctx) error {
	report, err := h.reports.FullReport(c.UserContext())
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, report)
}

func (h *Handler) UnpaidParentsAPI(c *fiber.Ctx) error {
	unpaid, err := h.reports.UnpaidGuardians(c.UserContext())
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, unpaid)
}

func (h *Handler) OverdueParentsAPI(c *fiber.Ctx) error {
	overdue, err := h.reports.OverdueGuardians(c.UserContext())
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, overdue)
}
