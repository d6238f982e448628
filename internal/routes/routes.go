// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"civicpay/internal/config"
	"civicpay/internal/handlers"
	"civicpay/internal/middleware"
	"civicpay/internal/models"
	"civicpay/internal/services/booking"
	"civicpay/internal/services/fee"
	"civicpay/internal/services/payment"
	"civicpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Fees     fee.Service
	Bookings booking.Service
	Payments payment.Service
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, cfg config.App, svc Services, checks map[string]handlers.Check, log *logrus.Logger) {
	feeHandler := handlers.NewFeeHandler(svc.Fees, log)
	bookingHandler := handlers.NewBookingHandler(svc.Bookings, log)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments, log)
	jobsHandler := handlers.NewJobsHandler(svc.Bookings, log)
	healthHandler := handlers.NewHealthHandler(checks)

	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api")

	// Public endpoints (no auth required)
	fees := api.Group("/fees")
	fees.Post("/quote", feeHandler.Quote)
	fees.Post("/validate", feeHandler.Validate)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, log)

	// Scheduler trigger
	api.Post("/jobs/sweep-abandoned-bookings",
		authMiddleware.JobAuth(cfg.JobTokenHash),
		jobsHandler.SweepAbandonedBookings)

	// Protected routes
	protected := api.Group("", authMiddleware.Handler)
	setupBookingRoutes(protected, bookingHandler)
	setupPaymentRoutes(protected, paymentHandler)
}

func setupBookingRoutes(router fiber.Router, h *handlers.BookingHandler) {
	bookings := router.Group("/bookings")
	bookings.Get("/slots", middleware.HasPermission(models.PermissionBookingRead), h.Slots)
	bookings.Post("/check", middleware.HasPermission(models.PermissionBookingRead), h.Check)
	bookings.Post("/", middleware.HasPermission(models.PermissionBookingWrite), reserveLimiter(), h.Create)
	bookings.Post("/:id/cancel", middleware.HasPermission(models.PermissionBookingWrite), h.Cancel)
}

func setupPaymentRoutes(router fiber.Router, h *handlers.PaymentHandler) {
	payments := router.Group("/payments")
	payments.Post("/", middleware.HasPermission(models.PermissionPaymentWrite), h.ProcessPayment)
}

// reserveLimiter caps slot grabs per user so one client cannot hold every
// slot as drafts.
func reserveLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals("userID").(string); ok && id != "" {
				return "user:" + id
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, "Too many booking attempts, try again shortly")
		},
	})
}
