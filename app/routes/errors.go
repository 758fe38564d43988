package routes

import (
	"errors"
	"log/slog"

	"fee-management-system/app/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler writes every error as {success:false, message} with the
// status of its kind. Internal causes are logged, never returned.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"message": fe.Message,
			})
		}

		code := apperr.Status(err)
		if code == fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": apperr.PublicMessage(err),
		})
	}
}

// OK writes a success envelope around data.
func OK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// Message writes a success envelope carrying only a message.
func Message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

// BadRequest reports an unparsable request body.
func BadRequest(msg string) error {
	return apperr.Validation(msg)
}
