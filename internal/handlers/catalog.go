package handlers

import (
	"context"
	"strings"

	apperrors "remit/internal/errors"
	"remit/internal/middleware"
	"remit/internal/models"
	"remit/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type CurrencyLister interface {
	List() []models.Currency
}

type CorridorCatalog interface {
	List(activeOnly bool) []*models.PaymentCorridor
	Resolve(originCountry, destinationCountry string) (*models.PaymentCorridor, error)
}

type PartnerDirectory interface {
	List() []*models.TransferPartner
	UpdatePerformance(ctx context.Context, id string, successRate float64) error
}

type RateQuoter interface {
	GetRate(ctx context.Context, from, to string) (models.ExchangeRate, error)
}

// CatalogHandler serves the read-only reference data: currencies,
// corridors, partners and rate quotes.
type CatalogHandler struct {
	currencies CurrencyLister
	corridors  CorridorCatalog
	partners   PartnerDirectory
	rates      RateQuoter
}

func NewCatalogHandler(currencies CurrencyLister, corridors CorridorCatalog, partners PartnerDirectory, rates RateQuoter) *CatalogHandler {
	return &CatalogHandler{
		currencies: currencies,
		corridors:  corridors,
		partners:   partners,
		rates:      rates,
	}
}

// Currencies handles GET /api/currencies.
func (h *CatalogHandler) Currencies(c *fiber.Ctx) error {
	return response.Success(c, "currencies retrieved", h.currencies.List())
}

// Corridors handles GET /api/corridors. Pass active=false to include
// disabled lanes.
func (h *CatalogHandler) Corridors(c *fiber.Ctx) error {
	activeOnly := c.Query("active", "true") != "false"
	return response.Success(c, "corridors retrieved", h.corridors.List(activeOnly))
}

// Corridor handles GET /api/corridors/:origin/:destination.
func (h *CatalogHandler) Corridor(c *fiber.Ctx) error {
	corridor, err := h.corridors.Resolve(c.Params("origin"), c.Params("destination"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "corridor retrieved", corridor)
}

// Partners handles GET /api/partners. Endpoints are only shown to admins.
func (h *CatalogHandler) Partners(c *fiber.Ctx) error {
	claims, _ := middleware.Claims(c)
	list := h.partners.List()
	if claims == nil || !claims.IsAdmin() {
		for _, p := range list {
			p.APIEndpoint = ""
		}
	}
	return response.Success(c, "partners retrieved", list)
}

// UpdatePartnerPerformance handles PUT /api/admin/partners/:id/performance.
func (h *CatalogHandler) UpdatePartnerPerformance(c *fiber.Ctx) error {
	var req struct {
		SuccessRate *float64 `json:"success_rate"`
	}
	if err := c.BodyParser(&req); err != nil || req.SuccessRate == nil {
		return response.FromError(c, apperrors.Validation("success_rate is required"))
	}
	if err := h.partners.UpdatePerformance(c.UserContext(), c.Params("id"), *req.SuccessRate); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "partner performance updated", fiber.Map{
		"id":           c.Params("id"),
		"success_rate": *req.SuccessRate,
	})
}

// Rate handles GET /api/rates/:from/:to.
func (h *CatalogHandler) Rate(c *fiber.Ctx) error {
	from := strings.ToUpper(c.Params("from"))
	to := strings.ToUpper(c.Params("to"))
	rate, err := h.rates.GetRate(c.UserContext(), from, to)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "rate retrieved", rate)
}
