package routes

import (
	"SOCIAL_server/config"
	"SOCIAL_server/middlewares"
	"SOCIAL_server/services"
	"SOCIAL_server/socket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
)

// SetRoutes sets all routes of server
func SetRoutes(app *fiber.App, s *services.Services, socketServer *socket.Server) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.Config.Origin,
		AllowCredentials: config.Config.Origin != "*",
		ExposeHeaders:    "x-refreshed, x-session-id, x-refresh-token, x-refresh-token-expire, x-access-token",
	}))

	app.Use("/stream", middlewares.AuthenticateStream, socket.InitializeSocket, websocket.New(socketServer.ClientSocket))

	api := app.Group("/api")

	publicRoutes(api, s)
	authRoutes(api, s)
	userRoutes(api, s)
	groupRoutes(api, s)
	notificationRoutes(api, s)
	taskRoutes(api, s)
}
