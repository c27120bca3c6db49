package api

import (
	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) QueueOverview(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	counts, err := handler.queueSelector.Counts(c.UserContext(), identity)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"queues": counts})
}

// NextPending answers 204 when the class has nothing waiting.
func (handler *Handler) NextPending(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	record, err := handler.queueSelector.NextPending(c.UserContext(), identity, c.Params("priority"))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	if record == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(record)
}
