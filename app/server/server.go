// Package server assembles the Fiber application: middleware, health check
// and every /api route group over one store.
package server

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"fee-management-system/app/routes"
	"fee-management-system/app/routes/auth"
	"fee-management-system/app/routes/fees"
	"fee-management-system/app/routes/notifications"
	"fee-management-system/app/routes/payments"
	"fee-management-system/app/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Dependencies struct {
	Store          services.Store
	Tokens         *auth.Tokens
	Clock          services.Clock
	Logger         *slog.Logger
	AllowedOrigins []string
	// RequestTimeout bounds the store calls made while serving a request.
	RequestTimeout time.Duration
	// AccessLog receives one line per request when set.
	AccessLog io.Writer
}

func New(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "fee-management-system",
		// Route params and bodies outlive the handler in the memory store.
		Immutable:    true,
		ErrorHandler: routes.ErrorHandler(deps.Logger),
	})

	app.Use(recover.New())
	if deps.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: deps.AccessLog}))
	}
	app.Use(cors.New(corsConfig(deps.AllowedOrigins)))
	app.Use(requestTimeout(deps.RequestTimeout))

	app.Get("/healthz", healthz(deps.Store, deps.Logger))

	store := deps.Store
	catalog := services.NewFeeCatalog(store, deps.Logger)
	resolver := services.NewAssignmentResolver(store, store, deps.Logger)
	status := services.NewStatusEngine(store, deps.Clock)
	ledger := services.NewPaymentLedger(store, store, deps.Logger)
	reports := services.NewReports(store, store, store, deps.Clock)
	fanout := services.NewNotificationFanout(store, store, deps.Clock, deps.Logger)

	api := app.Group("/api")
	auth.SetupAuthRoutes(api, auth.NewHandler(store, deps.Tokens, deps.Logger))
	fees.SetupFeesRoutes(api, fees.NewHandler(catalog, resolver, status), deps.Tokens)
	payments.SetupPaymentsRoutes(api, payments.NewHandler(ledger, reports), deps.Tokens)
	notifications.SetupNotificationsRoutes(api, notifications.NewHandler(fanout), deps.Tokens)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})

	return app
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		return cors.ConfigDefault
	}
	return cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}
}

func requestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func healthz(store services.Store, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Warn("health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success": false,
				"message": "Database unavailable",
			})
		}
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	}
}
