package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ecgscan/internal/services"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondServiceError maps service sentinels onto HTTP statuses. Transport
// and storage details are logged, never returned.
func (handler *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrPasswordChangeInvalidInput),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrNewPasswordMustDiffer):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAuthCredentialsInvalid),
		errors.Is(err, services.ErrInvalidCurrentPassword),
		errors.Is(err, services.ErrUnauthenticated):
		return apiError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return apiError(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidState):
		return apiError(c, fiber.StatusConflict, "record is not pending")
	case errors.Is(err, services.ErrAuthEmailTaken):
		return apiError(c, fiber.StatusConflict, "email already exists")
	case errors.Is(err, services.ErrStorage):
		handler.logger.WithError(err).WithField("path", c.Path()).Error("blob storage failed")
		return apiError(c, fiber.StatusBadGateway, "image upload failed")
	case errors.Is(err, services.ErrTransport):
		handler.logger.WithError(err).WithField("path", c.Path()).Error("store unavailable")
		return apiError(c, fiber.StatusServiceUnavailable, "service unavailable")
	default:
		handler.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}
