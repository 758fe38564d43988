package fees

import (
	"fee-management-system/app/apperr"
	"fee-management-system/app/routes"

	"github.com/gofiber/fiber/v2"
)

// AssignRequest targets a fee at one guardian. With FeeID set the existing
// fee is assigned; otherwise a new fee is created from the fee fields.
type AssignRequest struct {
	ParentID string `json:"parentId"`
	FeeID    string `json:"feeId"`
	FeeRequest
}

// AssignToParentAPI assigns a fee to a guardian. Assigning an already
// assigned pair answers 200 with created=false.
func (h *Handler) AssignToParentAPI(c *fiber.Ctx) error {
	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return routes.BadRequest("Invalid request body")
	}
	if req.ParentID == "" {
		return apperr.Validation("Parent is required")
	}
	ctx := c.UserContext()

	if req.FeeID != "" {
		created, err := h.resolver.AssignFee(ctx, req.ParentID, req.FeeID)
		if err != nil {
			return err
		}
		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return routes.OK(c, status, fiber.Map{"feeId": req.FeeID, "created": created})
	}

	in, err := req.Input()
	if err != nil {
		return err
	}
	fee, err := h.resolver.AssignNewFee(ctx, req.ParentID, in)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusCreated, fiber.Map{"feeId": fee.ID, "created": true})
}
