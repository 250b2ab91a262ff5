package handlers

import (
	"context"
	"time"

	apperrors "remit/internal/errors"
	"remit/internal/models"
	"remit/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type ReportGenerator interface {
	GenerateReport(ctx context.Context, start, end time.Time) (*models.RemittanceReport, error)
}

type ReportHandler struct {
	reports ReportGenerator
}

func NewReportHandler(reports ReportGenerator) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Generate handles GET /api/reports?start=...&end=... with RFC 3339 times.
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		return response.FromError(c, apperrors.Validation("start must be an RFC 3339 timestamp"))
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		return response.FromError(c, apperrors.Validation("end must be an RFC 3339 timestamp"))
	}

	report, err := h.reports.GenerateReport(c.UserContext(), start, end)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "report generated", report)
}
