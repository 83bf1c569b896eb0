package services

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/helpers"
	"SOCIAL_server/relay"
	"SOCIAL_server/schemas"

	"github.com/gofiber/fiber/v2"
)

// CreateGroup creates a group administered by the current user
func (s *Services) CreateGroup(c *fiber.Ctx) error {

	req := new(schemas.CreateGroupSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	group, err := s.Groups.Create(ctx, req.GroupName, helpers.CurrentUsername(c), req.ImageURL)
	if err != nil {
		return errors.HandleServiceError(c, "create_group", err)
	}

	return helpers.DataResponse(c, fiber.StatusCreated, "Group created successfully", group)
}

// MyGroups lists the groups of the current user
func (s *Services) MyGroups(c *fiber.Ctx) error {

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	groups, err := s.Groups.ForUser(ctx, helpers.CurrentUsername(c))
	if err != nil {
		return errors.HandleServiceError(c, "my_groups", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", groups)
}

// DeleteGroup deletes :groupName, admin only
func (s *Services) DeleteGroup(c *fiber.Ctx) error {

	name := c.Params("groupName")
	if name == "" {
		return errors.HandleBadRequestError(c, "groupName", "missing")
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if _, err := s.Groups.Delete(ctx, helpers.CurrentUsername(c), name); err != nil {
		return errors.HandleServiceError(c, "delete_group", err)
	}

	return helpers.OKResponse(c)
}

// SearchGroups searches groups by name
func (s *Services) SearchGroups(c *fiber.Ctx) error {

	req := new(schemas.SearchSchema)

	if err := c.QueryParser(req); err != nil {
		return errors.HandleBadRequestError(c, "Query", "invalid")
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	groups, err := s.Groups.Search(ctx, req.Query)
	if err != nil {
		return errors.HandleServiceError(c, "search_groups", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", groups)
}

// SendGroupJoinRequest asks the admin of a group to let the current user in
func (s *Services) SendGroupJoinRequest(c *fiber.Ctx) error {

	req := new(schemas.GroupNameSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	current := helpers.CurrentUsername(c)
	admin, err := s.Engine.SendGroupJoinRequest(ctx, current, req.GroupName)
	if err != nil {
		return errors.HandleServiceError(c, "send_group_request", err)
	}

	s.notify(admin, relay.Notification{
		Type:      relay.NotifyGroupRequest,
		From:      current,
		GroupName: req.GroupName,
	})

	return helpers.DataResponse(c, fiber.StatusCreated, "Request sent", req)
}

func parseGroupRequest(c *fiber.Ctx) (*schemas.GroupRequestSchema, bool, error) {
	req := new(schemas.GroupRequestSchema)

	if err := c.BodyParser(req); err != nil {
		return nil, false, errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return nil, false, errors.HandleValidatorError(c, err)
	}

	return req, true, nil
}

// AcceptGroupJoinRequest admits a requester, admin only
func (s *Services) AcceptGroupJoinRequest(c *fiber.Ctx) error {

	req, ok, err := parseGroupRequest(c)
	if !ok {
		return err
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	current := helpers.CurrentUsername(c)
	group, err := s.Engine.AcceptGroupJoinRequest(ctx, current, req.UserName, req.GroupName)
	if err != nil {
		return errors.HandleServiceError(c, "accept_group_request", err)
	}

	s.notify(req.UserName, relay.Notification{
		Type:      relay.NotifyGroupRequestAccepted,
		From:      current,
		GroupName: group.Name,
	})

	return helpers.DataResponse(c, fiber.StatusOK, "Request accepted", group)
}

// DeclineGroupJoinRequest turns a requester down, admin only
func (s *Services) DeclineGroupJoinRequest(c *fiber.Ctx) error {

	req, ok, err := parseGroupRequest(c)
	if !ok {
		return err
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	current := helpers.CurrentUsername(c)
	if err := s.Engine.DeclineGroupJoinRequest(ctx, current, req.UserName, req.GroupName); err != nil {
		return errors.HandleServiceError(c, "decline_group_request", err)
	}

	s.notify(req.UserName, relay.Notification{
		Type:      relay.NotifyGroupRequestDeclined,
		From:      current,
		GroupName: req.GroupName,
	})

	return helpers.OKResponse(c)
}

// SendGroupMessage posts a message to a group of the current user
func (s *Services) SendGroupMessage(c *fiber.Ctx) error {

	req := new(schemas.GroupMessageSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	message, err := s.Conversations.SendGroupMessage(ctx, req.GroupName, helpers.CurrentUsername(c), req.Content)
	if err != nil {
		return errors.HandleServiceError(c, "send_group_message", err)
	}

	s.push(message)

	return helpers.DataResponse(c, fiber.StatusCreated, "", message)
}

// GroupMessages returns the messages of :groupName grouped by day
func (s *Services) GroupMessages(c *fiber.Ctx) error {

	name := c.Params("groupName")
	if name == "" {
		return errors.HandleBadRequestError(c, "groupName", "missing")
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	days, err := s.Conversations.GroupMessages(ctx, name, helpers.CurrentUsername(c))
	if err != nil {
		return errors.HandleServiceError(c, "group_messages", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", days)
}
