package routes

import (
	"SOCIAL_server/middlewares"
	"SOCIAL_server/services"

	"github.com/gofiber/fiber/v2"
)

func taskRoutes(api fiber.Router, s *services.Services) {
	task := api.Group("/task", middlewares.Authenticate)
	task.Get("/get-all-daily-tasks", s.DailyTasks)
	task.Post("/create-daily-task", s.CreateDailyTask)
	task.Patch("/complete-daily-task", s.CompleteDailyTask)
	task.Delete("/delete-daily-task", s.DeleteDailyTask)
}
