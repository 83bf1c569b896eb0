package routes

import (
	"SOCIAL_server/services"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
)

func publicRoutes(api fiber.Router, s *services.Services) {
	public := api.Group("/public")
	public.Use(cache.New(cache.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Query("refresh") == "true"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Path() + "?" + c.Query("userName")
		},
		Expiration:   time.Minute,
		CacheControl: true,
	}))
	public.Get("/check-username-unique", s.CheckUsernameUnique)
}
