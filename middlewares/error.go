package middlewares

import (
	"errors"

	"fieldserve-backend/models"
	"fieldserve-backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Domain errors: bad input (400)
	switch {
	case errors.Is(err, models.ErrInvalidTarget),
		errors.Is(err, models.ErrPeriodMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	// 4) Domain errors: state conflicts (409)
	switch {
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrNegativeBalance),
		errors.Is(err, models.ErrOverRelease),
		errors.Is(err, models.ErrReservationNotFound),
		errors.Is(err, models.ErrDuplicateAllocation),
		errors.Is(err, models.ErrAllocationNotActive),
		errors.Is(err, models.ErrAlreadyRecognized),
		errors.Is(err, models.ErrNotRecognized),
		errors.Is(err, models.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	}

	// 5) Unknown errors (500)
	utils.LogError(err, map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
