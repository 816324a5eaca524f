package handlers

import (
	"strings"

	"sportsmatch/internal/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// EventsHandler streams domain events over websocket
type EventsHandler struct {
	hub *websocket.Hub
}

func NewEventsHandler(hub *websocket.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Upgrade rejects plain HTTP requests on the websocket route
func (h *EventsHandler) Upgrade(c *fiber.Ctx) error {
	if fiberws.IsWebSocketUpgrade(c) {
		c.Locals("keys", c.Query("keys"))
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Stream handles GET /ws?keys=matchId,... ; without keys every event is sent.
func (h *EventsHandler) Stream() fiber.Handler {
	return fiberws.New(func(conn *fiberws.Conn) {
		var keys []string
		if raw, _ := conn.Locals("keys").(string); raw != "" {
			for _, k := range strings.Split(raw, ",") {
				if k = strings.TrimSpace(k); k != "" {
					keys = append(keys, k)
				}
			}
		}
		websocket.ServeWS(h.hub, conn, keys)
	})
}

// Clients handles GET /api/v1/ws/clients
func (h *EventsHandler) Clients(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, fiber.Map{"clients": h.hub.GetClientCount()})
}
