package services

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/helpers"
	"SOCIAL_server/relay"
	"SOCIAL_server/schemas"

	"github.com/gofiber/fiber/v2"
)

// parseUserName parses the other user of a relation request from the body
func parseUserName(c *fiber.Ctx) (*schemas.UserNameSchema, bool, error) {
	req := new(schemas.UserNameSchema)

	if err := c.BodyParser(req); err != nil {
		return nil, false, errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return nil, false, errors.HandleValidatorError(c, err)
	}

	return req, true, nil
}

// SendMessageRequest asks another user for a private conversation
func (s *Services) SendMessageRequest(c *fiber.Ctx) error {

	req, ok, err := parseUserName(c)
	if !ok {
		return err
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	current := helpers.CurrentUsername(c)
	if err := s.Engine.SendPrivateMessageRequest(ctx, current, req.UserName); err != nil {
		return errors.HandleServiceError(c, "send_message_request", err)
	}

	s.notify(req.UserName, relay.Notification{
		Type: relay.NotifyPrivateRequest,
		From: current,
	})

	return helpers.DataResponse(c, fiber.StatusCreated, "Request sent", req)
}

// AcceptMessageRequest connects the current user with the requester
func (s *Services) AcceptMessageRequest(c *fiber.Ctx) error {

	req, ok, err := parseUserName(c)
	if !ok {
		return err
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	current := helpers.CurrentUsername(c)
	conversationID, err := s.Engine.AcceptPrivateMessageRequest(ctx, current, req.UserName)
	if err != nil {
		return errors.HandleServiceError(c, "accept_message_request", err)
	}

	s.notify(req.UserName, relay.Notification{
		Type: relay.NotifyPrivateRequestAccepted,
		From: current,
	})

	return helpers.DataResponse(c, fiber.StatusOK, "Request accepted", schemas.ConnectionResponse{
		UserName:       req.UserName,
		ConversationID: conversationID,
	})
}

// DeclineMessageRequest declines the request of another user
func (s *Services) DeclineMessageRequest(c *fiber.Ctx) error {

	req, ok, err := parseUserName(c)
	if !ok {
		return err
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	current := helpers.CurrentUsername(c)
	if err := s.Engine.DeclinePrivateMessageRequest(ctx, current, req.UserName); err != nil {
		return errors.HandleServiceError(c, "decline_message_request", err)
	}

	s.notify(req.UserName, relay.Notification{
		Type: relay.NotifyPrivateRequestDeclined,
		From: current,
	})

	return helpers.OKResponse(c)
}

// EndConnection removes the connection between the current user and another
func (s *Services) EndConnection(c *fiber.Ctx) error {

	req, ok, err := parseUserName(c)
	if !ok {
		return err
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	current := helpers.CurrentUsername(c)
	if err := s.Engine.Unfriend(ctx, current, req.UserName); err != nil {
		return errors.HandleServiceError(c, "end_connection", err)
	}

	s.notify(req.UserName, relay.Notification{
		Type: relay.NotifyUnfriended,
		From: current,
	})

	return helpers.OKResponse(c)
}
