package routes

import (
	"SOCIAL_server/middlewares"
	"SOCIAL_server/services"

	"github.com/gofiber/fiber/v2"
)

func notificationRoutes(api fiber.Router, s *services.Services) {
	notification := api.Group("/notification", middlewares.Authenticate)
	notification.Get("/", s.Notifications)
	notification.Delete("/", s.DeleteNotification)
	notification.Put("/seen", s.MarkNotificationsSeen)
}
