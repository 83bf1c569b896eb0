package services

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/helpers"
	"SOCIAL_server/schemas"

	"github.com/gofiber/fiber/v2"
)

// SearchUsers searches users by username
func (s *Services) SearchUsers(c *fiber.Ctx) error {

	req := new(schemas.SearchSchema)

	if err := c.QueryParser(req); err != nil {
		return errors.HandleBadRequestError(c, "Query", "invalid")
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	users, err := s.Accounts.Search(ctx, helpers.CurrentUsername(c), req.Query)
	if err != nil {
		return errors.HandleServiceError(c, "search_users", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", users)
}

// UpdatePassword changes the password of the current user
func (s *Services) UpdatePassword(c *fiber.Ctx) error {

	req := new(schemas.UpdatePasswordSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if err := s.Accounts.UpdatePassword(ctx, helpers.CurrentUsername(c), req.CurrentPassword, req.NewPassword); err != nil {
		return errors.HandleServiceError(c, "update_password", err)
	}

	return helpers.OKResponse(c)
}

// UpdateProfileImage changes the profile image of the current user
func (s *Services) UpdateProfileImage(c *fiber.Ctx) error {

	req := new(schemas.UpdateProfileImageSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	image, err := s.Accounts.UpdateProfileImage(ctx, helpers.CurrentUsername(c), req.ImageURL)
	if err != nil {
		return errors.HandleServiceError(c, "update_profile_image", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", fiber.Map{"ProfileImage": image})
}

// ConnectedUsers lists the sort lists of the current user with last messages
func (s *Services) ConnectedUsers(c *fiber.Ctx) error {

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	lists, err := s.Accounts.ConnectedUsers(ctx, helpers.CurrentUsername(c))
	if err != nil {
		return errors.HandleServiceError(c, "connected_users", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", lists)
}

// CreateSortList adds a sort list
func (s *Services) CreateSortList(c *fiber.Ctx) error {

	req := new(schemas.SortListSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	list, err := s.Accounts.CreateSortList(ctx, helpers.CurrentUsername(c), req.ListName)
	if err != nil {
		return errors.HandleServiceError(c, "create_sort_list", err)
	}

	return helpers.DataResponse(c, fiber.StatusCreated, "List created successfully", list)
}

// UpdateSortList renames a sort list
func (s *Services) UpdateSortList(c *fiber.Ctx) error {

	req := new(schemas.UpdateSortListSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if err := s.Accounts.RenameSortList(ctx, helpers.CurrentUsername(c), req.CurrentListName, req.UpdatedListName); err != nil {
		return errors.HandleServiceError(c, "update_sort_list", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "List updated successfully", req)
}

// DeleteSortList removes the sort list named by the listName query
func (s *Services) DeleteSortList(c *fiber.Ctx) error {

	req := new(schemas.SortListSchema)

	if err := c.QueryParser(req); err != nil {
		return errors.HandleBadRequestError(c, "Query", "invalid")
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if err := s.Accounts.DeleteSortList(ctx, helpers.CurrentUsername(c), req.ListName); err != nil {
		return errors.HandleServiceError(c, "delete_sort_list", err)
	}

	return helpers.OKResponse(c)
}

// AddToSortList moves a connected user into a sort list
func (s *Services) AddToSortList(c *fiber.Ctx) error {

	req := new(schemas.AddToSortListSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	if err := s.Accounts.AddToSortList(ctx, helpers.CurrentUsername(c), req.UserName, req.ListName); err != nil {
		return errors.HandleServiceError(c, "add_to_sort_list", err)
	}

	return helpers.DataResponse(c, fiber.StatusOK, "", req)
}
