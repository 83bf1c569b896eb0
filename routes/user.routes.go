package routes

import (
	"SOCIAL_server/middlewares"
	"SOCIAL_server/services"

	"github.com/gofiber/fiber/v2"
)

func userRoutes(api fiber.Router, s *services.Services) {
	user := api.Group("/user", middlewares.Authenticate)
	user.Get("/search", s.SearchUsers)
	user.Put("/update-password", s.UpdatePassword)
	user.Put("/update-profile-image", s.UpdateProfileImage)

	relationRoutes(user, s)
	messageRoutes(user, s)

	user.Get("/get-connected-users", s.ConnectedUsers)
	user.Post("/create-user-sorting-list", s.CreateSortList)
	user.Put("/update-user-sorting-list", s.UpdateSortList)
	user.Delete("/delete-user-sorting-list", s.DeleteSortList)
	user.Post("/add-user-to-chat-sort-list", s.AddToSortList)
}

func relationRoutes(user fiber.Router, s *services.Services) {
	user.Post("/message-request", s.SendMessageRequest)
	user.Post("/accept-message-request", s.AcceptMessageRequest)
	user.Post("/decline-private-message-request", s.DeclineMessageRequest)
	user.Delete("/end-connection", s.EndConnection)
}

func messageRoutes(user fiber.Router, s *services.Services) {
	user.Post("/send-message", s.SendMessage)
	user.Post("/send-voice-message", s.SendVoiceMessage)
	user.Get("/audio/:messageID", s.Audio)
	user.Get("/get-previous-messages/:peer", s.PreviousMessages)
}
