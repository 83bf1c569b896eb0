package routes

import (
	"SOCIAL_server/middlewares"
	"SOCIAL_server/services"

	"github.com/gofiber/fiber/v2"
)

func groupRoutes(api fiber.Router, s *services.Services) {
	group := api.Group("/group", middlewares.Authenticate)
	group.Post("/create", s.CreateGroup)
	group.Get("/mine", s.MyGroups)
	group.Get("/search", s.SearchGroups)
	group.Post("/send-group-join-request", s.SendGroupJoinRequest)
	group.Post("/accept-group-join-request", s.AcceptGroupJoinRequest)
	group.Post("/decline-group-join-request", s.DeclineGroupJoinRequest)
	group.Post("/send-group-message", s.SendGroupMessage)
	group.Get("/:groupName/messages", s.GroupMessages)
	group.Delete("/:groupName", s.DeleteGroup)
}
