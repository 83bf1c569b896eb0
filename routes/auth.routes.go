package routes

import (
	"SOCIAL_server/middlewares"
	"SOCIAL_server/services"

	"github.com/gofiber/fiber/v2"
)

// authRoutes are registered before userRoutes so register and login skip authentication
func authRoutes(api fiber.Router, s *services.Services) {
	auth := api.Group("/user")
	auth.Post("/register", s.Register)
	auth.Post("/login", s.Login)
	auth.Post("/logout", middlewares.Authenticate, s.Logout)
}
