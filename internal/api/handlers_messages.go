package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/ecgscan/internal/models"
	"github.com/terraincognita07/ecgscan/internal/services"
	"github.com/valyala/fasthttp"
)

const streamHeartbeatInterval = 15 * time.Second

func (handler *Handler) ListMessages(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	messages, err := handler.chatService.History(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (handler *Handler) PostMessage(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	input := messageInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	message, err := handler.chatService.PostMessage(c.UserContext(), identity, c.Params("id"), input.Body)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// StreamMessages sends the thread as server-sent events: the history first,
// then every message posted while the connection stays open. The live feed
// is opened before history is read, and the view drops ids already sent.
func (handler *Handler) StreamMessages(c *fiber.Ctx) error {
	identity, _ := currentIdentity(c)
	recordID := c.Params("id")

	streamCtx, cancel := context.WithCancel(handler.lifecycleContext())
	subscription, err := handler.chatService.Subscribe(streamCtx, identity, recordID)
	if err != nil {
		cancel()
		return handler.respondServiceError(c, err)
	}
	history, err := handler.chatService.History(c.UserContext(), identity, recordID)
	if err != nil {
		subscription.Close()
		cancel()
		return handler.respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := handler.logger.WithField("record_id", recordID)
	var stream fasthttp.StreamWriter = func(writer *bufio.Writer) {
		defer cancel()
		defer subscription.Close()

		view := services.NewMessageView()
		view.Seed(history)
		for _, message := range view.Messages() {
			if err := writeMessageEvent(writer, message); err != nil {
				return
			}
		}
		if err := writer.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(streamHeartbeatInterval)
		defer heartbeat.Stop()
		for {
			select {
			case message, ok := <-subscription.Messages():
				if !ok {
					return
				}
				if !view.Merge(message) {
					continue
				}
				if err := writeMessageEvent(writer, message); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := writer.WriteString(": ping\n\n"); err != nil {
					return
				}
			}
			if err := writer.Flush(); err != nil {
				logger.WithError(err).Debug("chat stream closed by client")
				return
			}
		}
	}
	c.Context().SetBodyStreamWriter(stream)
	return nil
}

func writeMessageEvent(writer *bufio.Writer, message models.ChatMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(writer, "id: %s\nevent: message\ndata: %s\n\n", message.ID, payload)
	return err
}
