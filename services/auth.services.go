package services

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/helpers"
	"SOCIAL_server/schemas"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Register users
func (s *Services) Register(c *fiber.Ctx) error {

	req := new(schemas.RegisterSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	user, err := s.Accounts.Register(ctx, req.Username, req.Password, req.ImageURL)
	if err != nil {
		return errors.HandleServiceError(c, "register", err)
	}

	return helpers.DataResponse(c, fiber.StatusCreated, "User Registered Successfully!", fiber.Map{
		"UserName":     user.Username,
		"PublicKey":    user.PublicKey,
		"ProfileImage": user.ProfileImage,
	})
}

// Login users
func (s *Services) Login(c *fiber.Ctx) error {

	req := new(schemas.LoginSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	user, err := s.Accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return errors.HandleServiceError(c, "login", err)
	}

	sessionID, err := helpers.RandomTokenString(16)
	if err != nil {
		return errors.HandleInternalError(c, "session_id", "hex token error")
	}

	tokens, err := helpers.GenerateAndRefreshTokens(c, user.ID, user.Username, sessionID)
	if err != nil {
		return errors.HandleInternalError(c, "tokens", err.Error())
	}

	global.MonitorLogger.WithFields(logrus.Fields{
		"ip":   c.IP(),
		"user": user.Username,
	}).Info("login")

	return c.JSON(schemas.LoginResponse{
		UserName:     user.Username,
		PublicKey:    user.PublicKey,
		ProfileImage: user.ProfileImage,
		SessionID:    sessionID,
		Tokens:       tokens,
	})
}

// Logout revokes the refresh token of a session of the current user
func (s *Services) Logout(c *fiber.Ctx) error {

	req := new(schemas.LogoutSchema)

	if err := c.BodyParser(req); err != nil {
		return errors.HandleBadJsonError(c)
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	owner, err := helpers.SessionOwner(req.SessionID)
	if err != nil {
		return errors.HandleInternalError(c, "get_refresh_tokens", "Redis: "+err.Error())
	}
	if owner == "" {
		return helpers.OKResponse(c)
	}
	if owner != helpers.CurrentUserID(c) {
		return errors.HandleUnauthorizedError(c)
	}

	if err := helpers.RevokeRefreshTokens(req.SessionID); err != nil {
		return errors.HandleInternalError(c, "del_refresh_tokens", "Redis: "+err.Error())
	}

	return helpers.OKResponse(c)
}

// CheckUsernameUnique reports whether a username is still free
func (s *Services) CheckUsernameUnique(c *fiber.Ctx) error {

	req := new(schemas.UsernameQuerySchema)

	if err := c.QueryParser(req); err != nil {
		return errors.HandleBadRequestError(c, "Query", "invalid")
	}

	if err := global.Validator.Struct(req); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ctx, cancel := helpers.RequestContext(c)
	defer cancel()

	available, err := s.Accounts.UsernameAvailable(ctx, req.UserName)
	if err != nil {
		return errors.HandleServiceError(c, "check_username", err)
	}

	return c.JSON(schemas.UsernameAvailableResponse{
		IsUnique: available,
	})
}
