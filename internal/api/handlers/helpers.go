package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/publora/publora/internal/apperr"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := strconv.Atoi(c.Locals("user_id").(string))
	return int64(userID)
}

// ErrorResponse maps service error kinds to HTTP statuses.
func ErrorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidState):
		status = fiber.StatusConflict
	case errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrGeneration):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrGateway):
		status = fiber.StatusBadGateway
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
