// Package main is the entry point for the API server.
// It initializes all dependencies, sets up the HTTP server,
// runs the abandoned-booking sweep and starts the application.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicpay/internal/config"
	"civicpay/internal/events"
	"civicpay/internal/handlers"
	"civicpay/internal/obs"
	"civicpay/internal/repositories"
	"civicpay/internal/repositories/cache"
	"civicpay/internal/routes"
	"civicpay/internal/services/booking"
	"civicpay/internal/services/fee"
	"civicpay/internal/services/payment"
	"civicpay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, "civicpay-api", cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialise tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	// Initialize databases (PostgreSQL + Redis)
	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise database: %v", err)
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.WithError(err).Warn("failed to close database connection")
		}
	}()
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cacheService := cache.NewCacheService(redisClient, cfg.FeeProfileCacheTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.WithError(err).Warn("failed to close Redis connection")
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		log.WithError(err).Warn("Redis unavailable, fee profiles will be read from the database")
	}
	go logPoolStats(ctx, log, sqlDB.Stats, cacheService.GetStats)

	// Booking events are optional; without a broker they are dropped.
	var publisher booking.EventPublisher
	if cfg.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	// Initialize repositories
	feeProfiles := repositories.NewCachedFeeProfileRepository(
		repositories.NewFeeProfileRepository(db), cacheService, cfg.FeeProfileCacheTTL, log)
	instruments := repositories.NewPaymentInstrumentRepository(db)
	reservations := repositories.NewReservationRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Initialize services in correct order
	feeService := fee.NewService(feeProfiles, instruments, log)
	bookingService := booking.NewService(reservations, publisher, log, booking.Config{AbandonAfter: cfg.AbandonAfter})
	paymentService := payment.NewService(
		feeService,
		bookingService,
		instruments,
		payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeCurrency),
		paymentRepo,
		log,
	)

	go runSweep(ctx, log, bookingService, cfg.SweepInterval)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods:     "GET,POST,HEAD,OPTIONS",
		AllowCredentials: true,
	}))

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/fees", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests. Please try again later.",
			})
		},
	}))

	// Routes
	routes.SetupRoutes(app, cfg, routes.Services{
		Fees:     feeService,
		Bookings: bookingService,
		Payments: paymentService,
	}, map[string]handlers.Check{
		"database": sqlDB.PingContext,
		"redis":    cacheService.HealthCheck,
	}, log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	// Start server
	log.Infof("listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped")
	}
}
