package response

import (
	"errors"

	apperrors "remit/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case apperrors.CodeNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeInvalidState:
		return fiber.StatusConflict
	case apperrors.CodeAmountOutOfBounds, apperrors.CodeCorridorUnavailable:
		return fiber.StatusUnprocessableEntity
	case apperrors.CodeValidation:
		return fiber.StatusBadRequest
	case apperrors.CodeExternalService:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// FromError writes err as {"error", "code"}. Errors outside the domain
// taxonomy are reported as a generic 500 without their text.
func FromError(c *fiber.Ctx, err error) error {
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
			"code":  "INTERNAL",
		})
	}
	return c.Status(StatusFor(de.Code)).JSON(fiber.Map{
		"error": err.Error(),
		"code":  de.Code,
	})
}
