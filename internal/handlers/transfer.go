package handlers

import (
	"errors"
	"log/slog"

	apperrors "remit/internal/errors"
	"remit/internal/middleware"
	"remit/internal/models"
	"remit/internal/services/transfer"
	"remit/internal/utils/pagination"
	"remit/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// TransferHandler exposes the transfer lifecycle operations.
type TransferHandler struct {
	service transfer.Service
	logger  *slog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(s transfer.Service, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{service: s, logger: logger}
}

// Initiate handles POST /api/transfers.
func (h *TransferHandler) Initiate(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req transfer.InitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, apperrors.Validation("invalid request body"))
	}
	req.SenderID = claims.UserID

	t, err := h.service.InitiateTransfer(c.UserContext(), req)
	if err != nil {
		return response.FromError(c, err)
	}
	message := "transfer awaiting payment"
	if t.Status == models.StatusComplianceCheck {
		message = "transfer held for compliance review"
	}
	return response.Created(c, message, t)
}

// Get handles GET /api/transfers/:id.
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	t, err := h.owned(c, c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "transfer retrieved", t)
}

// Track handles GET /api/track/:tracking.
func (h *TransferHandler) Track(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}
	t, err := h.service.TrackTransfer(c.UserContext(), c.Params("tracking"))
	if err != nil {
		return response.FromError(c, err)
	}
	if !claims.IsAdmin() && t.SenderID != claims.UserID {
		return response.FromError(c, apperrors.NotFound("transfer %s not found", c.Params("tracking")))
	}
	return response.Success(c, "transfer retrieved", t)
}

// List handles GET /api/transfers. Admins may pass sender_id.
func (h *TransferHandler) List(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}
	senderID := claims.UserID
	if claims.IsAdmin() && c.Query("sender_id") != "" {
		senderID = c.Query("sender_id")
	}

	p := pagination.ParseFromRequest(c)
	list, total, err := h.service.ListTransfers(c.UserContext(), senderID, p.Limit, p.Offset)
	if err != nil {
		return response.FromError(c, err)
	}
	p.Total = total
	return c.JSON(pagination.Response(p, list))
}

// ProcessPayment handles POST /api/transfers/:id/payment.
func (h *TransferHandler) ProcessPayment(c *fiber.Ctx) error {
	var req struct {
		Proof string `json:"proof"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.FromError(c, apperrors.Validation("invalid request body"))
	}
	if _, err := h.owned(c, c.Params("id")); err != nil {
		return response.FromError(c, err)
	}

	t, err := h.service.ProcessPayment(c.UserContext(), c.Params("id"), req.Proof)
	if errors.Is(err, transfer.ErrDispatchTimeout) && t != nil {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "payment confirmed; partner dispatch pending",
			"data":    t,
		})
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "payment processed", t)
}

// Cancel handles POST /api/transfers/:id/cancel.
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.FromError(c, apperrors.Validation("invalid request body"))
		}
	}
	if _, err := h.owned(c, c.Params("id")); err != nil {
		return response.FromError(c, err)
	}

	t, err := h.service.CancelTransfer(c.UserContext(), c.Params("id"), req.Reason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "transfer "+string(t.Status), t)
}

// Retry handles POST /api/admin/transfers/:id/retry.
func (h *TransferHandler) Retry(c *fiber.Ctx) error {
	t, err := h.service.RetryDispatch(c.UserContext(), c.Params("id"))
	if errors.Is(err, transfer.ErrDispatchTimeout) && t != nil {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "partner dispatch pending",
			"data":    t,
		})
	}
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "dispatch retried", t)
}

// owned loads the transfer and hides it from anyone but its sender or an admin.
func (h *TransferHandler) owned(c *fiber.Ctx, id string) (*models.Transfer, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil, apperrors.NotFound("transfer %s not found", id)
	}
	t, err := h.service.GetTransferStatus(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && t.SenderID != claims.UserID {
		h.logger.Warn("transfer access denied", "transfer_id", id, "user_id", claims.UserID)
		return nil, apperrors.NotFound("transfer %s not found", id)
	}
	return t, nil
}
