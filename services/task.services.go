package services

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/helpers"
	"SOCIAL_server/schemas"
	"SOCIAL_server/tasks"

	"github.com/gofiber/fiber/v2"
)

// CreateDailyTask adds a task to the list of the current user
func (s *Services) CreateDailyTask(c *fiber.Ctx) error {

	req := new(schemas.CreateTaskSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	task, err := s.Tasks.Create(ctx, helpers.CurrentUsername(c), tasks.Draft{
		Time:        req.Time,
		Title:       req.Title,
		Description: req.Description,
		Links:       req.Links,
		Completed:   req.Completed,
	})
	if err != nil {
		return errors.HandleServiceError(c, "create_task", err)
	}

	return helpers.DataResponse(c, fiber.StatusCreated, "Task created successfully", task)
}

// DailyTasks lists the tasks of the current user
func (s *Services) DailyTasks(c *fiber.Ctx) error {

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	list, err := s.Tasks.List(ctx, helpers.CurrentUsername(c))
	if err != nil {
		return errors.HandleServiceError(c, "daily_tasks", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", list)
}

// CompleteDailyTask sets the completed flag of a task of the current user
func (s *Services) CompleteDailyTask(c *fiber.Ctx) error {

	req := new(schemas.CompleteTaskSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	task, err := s.Tasks.SetCompleted(ctx, helpers.CurrentUsername(c), req.TaskID, *req.Completed)
	if err != nil {
		return errors.HandleServiceError(c, "complete_task", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "Task status updated successfully", task)
}

// DeleteDailyTask deletes a task of the current user
func (s *Services) DeleteDailyTask(c *fiber.Ctx) error {

	req := new(schemas.TaskIDSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if err := s.Tasks.Delete(ctx, helpers.CurrentUsername(c), req.TaskID); err != nil {
		return errors.HandleServiceError(c, "delete_task", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "Task deleted successfully", req)
}
