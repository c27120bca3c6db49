package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ecgscan/internal/models"
)

func (handler *Handler) PhysicianOnly(c *fiber.Ctx) error {
	return requireRole(c, models.RolePhysician, "physician access required")
}

func (handler *Handler) NurseOnly(c *fiber.Ctx) error {
	return requireRole(c, models.RoleNurse, "nurse access required")
}

func requireRole(c *fiber.Ctx, role models.Role, message string) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if identity.Role != role {
		return apiError(c, fiber.StatusForbidden, message)
	}
	return c.Next()
}
