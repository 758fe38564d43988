package fees

import (
	"strings"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"
	"fee-management-system/app/routes"
	"fee-management-system/app/routes/auth"
	"fee-management-system/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handler struct {
	catalog  *services.FeeCatalog
	resolver *services.AssignmentResolver
	status   *services.StatusEngine
}

func NewHandler(catalog *services.FeeCatalog, resolver *services.AssignmentResolver, status *services.StatusEngine) *Handler {
	return &Handler{catalog: catalog, resolver: resolver, status: status}
}

// FeeRequest is the fee body shared by create, update and assign.
type FeeRequest struct {
	FeeType     string          `json:"feeType"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
	DueDate     string          `json:"dueDate"`
}

// Input converts the request into validated-shape fee fields. Range checks
// happen in the catalog.
func (r FeeRequest) Input() (models.FeeInput, error) {
	if r.FeeType == "" || r.DueDate == "" {
		return models.FeeInput{}, apperr.Validation("Fee type, amount and due date are required")
	}
	due, err := models.ParseDate(r.DueDate)
	if err != nil {
		return models.FeeInput{}, apperr.Validation("Due date must be a valid date in YYYY-MM-DD format")
	}

	var desc *string
	if r.Description != nil {
		if d := strings.TrimSpace(*r.Description); d != "" {
			desc = &d
		}
	}
	return models.FeeInput{
		Kind:        models.FeeKind(r.FeeType),
		Amount:      r.Amount,
		Description: desc,
		DueDate:     due,
	}, nil
}

func parseFee(c *fiber.Ctx) (models.FeeInput, error) {
	var req FeeRequest
	if err := c.BodyParser(&req); err != nil {
		return models.FeeInput{}, routes.BadRequest("Invalid request body")
	}
	return req.Input()
}

// CreateFeeAPI creates a fee that applies to every guardian until it is
// assigned.
func (h *Handler) CreateFeeAPI(c *fiber.Ctx) error {
	in, err := parseFee(c)
	if err != nil {
		return err
	}

	fee, err := h.catalog.CreateFee(c.UserContext(), in)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusCreated, fiber.Map{"feeId": fee.ID})
}

func (h *Handler) ListFeesAPI(c *fiber.Ctx) error {
	fees, err := h.catalog.ListFees(c.UserContext())
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, fees)
}

// FeeStatusAPI returns the caller's obligations with derived status.
func (h *Handler) FeeStatusAPI(c *fiber.Ctx) error {
	obligations, err := h.status.StatusFor(c.UserContext(), auth.Caller(c).ID)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, obligations)
}

func (h *Handler) GetFeeAPI(c *fiber.Ctx) error {
	fee, err := h.catalog.GetFee(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, fee)
}

func (h *Handler) UpdateFeeAPI(c *fiber.Ctx) error {
	in, err := parseFee(c)
	if err != nil {
		return err
	}

	fee, err := h.catalog.UpdateFee(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, fee)
}

func (h *Handler) DeleteFeeAPI(c *fiber.Ctx) error {
	if err := h.catalog.DeleteFee(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return routes.Message(c, "Fee deleted successfully")
}
