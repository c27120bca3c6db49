package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return apiError(c, fiber.StatusNotFound, "not found")
	}
	return c.Status(fiber.StatusNotFound).SendString("not found")
}

// BindLifecycle ties open event streams to ctx so shutdown can end them.
func (handler *Handler) BindLifecycle(ctx context.Context) {
	handler.lifecycleMu.Lock()
	defer handler.lifecycleMu.Unlock()
	handler.lifecycle = ctx
}

func (handler *Handler) lifecycleContext() context.Context {
	handler.lifecycleMu.RLock()
	defer handler.lifecycleMu.RUnlock()
	if handler.lifecycle == nil {
		return context.Background()
	}
	return handler.lifecycle
}
