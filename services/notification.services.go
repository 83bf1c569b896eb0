package services

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/helpers"
	"SOCIAL_server/schemas"

	"github.com/gofiber/fiber/v2"
)

// Notifications renders the notification record of the current user
func (s *Services) Notifications(c *fiber.Ctx) error {

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	view, err := s.Engine.Notifications(ctx, helpers.CurrentUsername(c))
	if err != nil {
		return errors.HandleServiceError(c, "notifications", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", view)
}

// MarkNotificationsSeen flags every notification of the current user as seen
func (s *Services) MarkNotificationsSeen(c *fiber.Ctx) error {

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if _, err := s.Engine.MarkAllSeen(ctx, helpers.CurrentUsername(c)); err != nil {
		return errors.HandleServiceError(c, "mark_seen", err)
	}

	return helpers.OKResponse(c)
}

// DeleteNotification removes one entry of a notification sub-list
func (s *Services) DeleteNotification(c *fiber.Ctx) error {

	req := new(schemas.DeleteNotificationSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if err := s.Engine.DeleteNotification(ctx, helpers.CurrentUsername(c), req.SubList, *req.Index); err != nil {
		return errors.HandleServiceError(c, "delete_notification", err)
	}

	return helpers.OKResponse(c)
}
