package notifications

import (
	"errors"
	"fmt"

	"fee-management-system/app/apperr"
	"fee-management-system/app/models"
	"fee-management-system/app/routes"
	"fee-management-system/app/routes/auth"
	"fee-management-system/app/services"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	fanout *services.NotificationFanout
}

func NewHandler(fanout *services.NotificationFanout) *Handler {
	return &Handler{fanout: fanout}
}

type SendRequest struct {
	Recipients *models.Recipients `json:"recipients"`
	Subject    string             `json:"subject"`
	Message    string             `json:"message"`
}

// SendAPI fans a notification out to "all" guardians or an explicit list.
func (h *Handler) SendAPI(c *fiber.Ctx) error {
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		if errors.Is(err, models.ErrInvalidRecipients) {
			return apperr.Validation(`Recipients must be "all" or a list of parent ids`)
		}
		return routes.BadRequest("Invalid request body")
	}
	if req.Recipients == nil {
		return apperr.Validation("Recipients are required")
	}

	result, err := h.fanout.Send(c.UserContext(), auth.Caller(c).ID, req.Subject, req.Message, *req.Recipients)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Notification sent to %d guardians", result.Sent),
		"data":    result,
	})
}

func (h *Handler) UserNotificationsAPI(c *fiber.Ctx) error {
	views, err := h.fanout.NotificationsFor(c.UserContext(), auth.Caller(c).ID)
	if err != nil {
		return err
	}
	return routes.OK(c, fiber.StatusOK, views)
}

func (h *Handler) MarkReadAPI(c *fiber.Ctx) error {
	if err := h.fanout.MarkRead(c.UserContext(), c.Params("id"), auth.Caller(c).ID); err != nil {
		return err
	}
	return routes.Message(c, "Notification marked as read")
}

// DeleteAPI removes the notification for the caller only.
func (h *Handler) DeleteAPI(c *fiber.Ctx) error {
	if err := h.fanout.DeleteForRecipient(c.UserContext(), c.Params("id"), auth.Caller(c).ID); err != nil {
		return err
	}
	return routes.Message(c, "Notification deleted")
}
