// Package main is the entry point for the remittance engine.
// It loads configuration, builds the engine, sets up the HTTP server
// and shuts everything down on SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remit/internal/app"
	"remit/internal/config"
	"remit/internal/handlers"
	applogger "remit/internal/logger"
	"remit/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

var version = "dev"

func main() {
	// Load environment variables
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slogger := applogger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.Build(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slogger.Error("shutdown incomplete", "error", err)
		}
	}()

	if err := engine.StartBackground(ctx); err != nil {
		slogger.Error("failed to start rate sweep", "error", err)
		return
	}

	// Create Fiber app
	fiberApp := fiber.New(fiber.Config{
		AppName:      "remit " + version,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// CORS middleware
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	// Middleware
	fiberApp.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	fiberApp.Use("/api/transfers", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	checks := map[string]handlers.HealthCheck{}
	for name, check := range engine.HealthChecks() {
		checks[name] = check
	}

	// Routes
	handlers.SetupRoutes(fiberApp, handlers.Handlers{
		Transfers: handlers.NewTransferHandler(engine.Transfers, slogger),
		Catalog:   handlers.NewCatalogHandler(engine.Currencies, engine.Corridors, engine.Partners, engine.Rates),
		Reports:   handlers.NewReportHandler(engine.Reports),
		Health:    handlers.NewHealthHandler(version, checks),
		Metrics:   engine.Metrics.Handler(),
	}, middleware.NewAuthMiddleware(cfg.JWTSecret, slogger))

	go func() {
		<-ctx.Done()
		slogger.Info("shutting down http server")
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			slogger.Error("http shutdown failed", "error", err)
		}
	}()

	slogger.Info("starting server", "port", cfg.ServerPort, "storage", cfg.Storage)
	if err := fiberApp.Listen(":" + cfg.ServerPort); err != nil {
		slogger.Error("server stopped", "error", err)
	}
}
