package handlers

import (
	"errors"

	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// respondServiceError maps the service error taxonomy onto HTTP
// responses. Conflict-class errors (unavailable products, stale stock,
// invalid transitions) tell the caller to refresh and retry by hand;
// persistence failures are reported as temporarily unavailable.
func respondServiceError(c *fiber.Ctx, err error) error {
	var (
		validationErr  *services.ValidationError
		unavailableErr *services.ProductUnavailableError
		stockErr       *services.InsufficientStockError
		transitionErr  *services.InvalidTransitionError
		persistenceErr *services.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request",
			"error":   validationErr.Error(),
		})
	case errors.As(err, &unavailableErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":     "Some products are unavailable, please refresh your cart",
			"error":       unavailableErr.Error(),
			"product_ids": unavailableErr.ProductIDs,
		})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Insufficient stock",
			"error":   stockErr.Error(),
		})
	case errors.As(err, &transitionErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Invalid status transition",
			"error":   transitionErr.Error(),
		})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
			"error":   err.Error(),
		})
	case errors.As(err, &persistenceErr):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Storage temporarily unavailable, please try again",
			"error":   persistenceErr.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal error",
			"error":   err.Error(),
		})
	}
}
