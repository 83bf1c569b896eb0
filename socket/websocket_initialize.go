package socket

import (
	"SOCIAL_server/schemas"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// InitializeSocket rejects requests that are not a websocket upgrade
func InitializeSocket(c *fiber.Ctx) error {

	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	return c.Status(fiber.StatusUpgradeRequired).JSON(schemas.ErrorResponse{
		Error:       true,
		Problem:     "websocket_upgrade",
		Description: fiber.ErrUpgradeRequired.Error(),
	})
}
