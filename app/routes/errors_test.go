package routes

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"fee-management-system/app/apperr"

	"github.com/gofiber/fiber/v2"
)

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})
	app.Get("/conflict", func(c *fiber.Ctx) error { return apperr.Conflict("Payment already made for this fee") })
	app.Get("/internal", func(c *fiber.Ctx) error { return errors.New("pq: connection refused") })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "teapot") })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/conflict", 409, "Payment already made for this fee"},
		{"/internal", 500, "Internal server error"},
		{"/fiber", 418, "teapot"},
		{"/missing", 404, "Cannot GET /missing"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			var body struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status || body.Success || body.Message != tt.message {
				t.Fatalf("got %d %+v", resp.StatusCode, body)
			}
		})
	}
}
