package helpers

import (
	"SOCIAL_server/config"
	"context"

	"github.com/gofiber/fiber/v2"
)

// CurrentUsername is the username authenticated for the request
func CurrentUsername(c *fiber.Ctx) string {
	username, _ := c.Locals("username").(string)
	return username
}

// CurrentUserID is the user id authenticated for the request
func CurrentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("userid").(string)
	return userID
}

// RequestContext bounds the store work of a request by config.StoreTimeout
func RequestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := config.Config.StoreTimeout
	if timeout <= 0 {
		timeout = config.Default().StoreTimeout
	}
	return context.WithTimeout(c.UserContext(), timeout)
}
