package handlers

import (
	"net/http"

	"remit/internal/middleware"
	"remit/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Handlers bundles everything SetupRoutes mounts.
type Handlers struct {
	Transfers *TransferHandler
	Catalog   *CatalogHandler
	Reports   *ReportHandler
	Health    *HealthHandler
	Metrics   http.Handler
}

func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	setupPublicRoutes(app, h)

	api := app.Group("/api", auth.Handler)
	setupTransferRoutes(api, h.Transfers)
	setupCatalogRoutes(api, h.Catalog)
	api.Get("/reports", middleware.HasPermission(models.PermissionReportRead), h.Reports.Generate)
	setupAdminRoutes(api, h)
}

func setupPublicRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.Metrics))
	}
}

func setupTransferRoutes(router fiber.Router, h *TransferHandler) {
	read := middleware.HasPermission(models.PermissionTransferRead)
	write := middleware.HasPermission(models.PermissionTransferWrite)

	transfers := router.Group("/transfers")
	transfers.Post("/", write, h.Initiate)
	transfers.Get("/", read, h.List)
	transfers.Get("/:id", read, h.Get)
	transfers.Post("/:id/payment", write, h.ProcessPayment)
	transfers.Post("/:id/cancel", write, h.Cancel)

	router.Get("/track/:tracking", read, h.Track)
}

func setupCatalogRoutes(router fiber.Router, h *CatalogHandler) {
	read := middleware.HasPermission(models.PermissionCatalogRead)

	router.Get("/currencies", read, h.Currencies)
	router.Get("/corridors", read, h.Corridors)
	router.Get("/corridors/:origin/:destination", read, h.Corridor)
	router.Get("/partners", read, h.Partners)
	router.Get("/rates/:from/:to", read, h.Rate)
}

func setupAdminRoutes(router fiber.Router, h Handlers) {
	admin := router.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Post("/transfers/:id/retry", middleware.HasPermission(models.PermissionWriteAdmin), h.Transfers.Retry)
	admin.Put("/partners/:id/performance", middleware.HasPermission(models.PermissionWriteAdmin), h.Catalog.UpdatePartnerPerformance)
}
