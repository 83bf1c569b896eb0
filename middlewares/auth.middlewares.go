package middlewares

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/helpers"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func bearerToken(c *fiber.Ctx) string {
	authorization := string(c.Request().Header.Peek("Authorization"))
	if !strings.HasPrefix(authorization, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authorization, "Bearer ")
}

// Authenticate authenticates the access token. An expired token is refreshed
// when the request carries x-refresh: true with its session id and refresh token.
func Authenticate(c *fiber.Ctx) error {

	accessToken := bearerToken(c)
	if accessToken == "" {
		return errors.HandleUnauthorizedError(c)
	}

	claims, err := helpers.ParseJWT(accessToken)
	if errors.Is(err, helpers.ErrTokenExpired) {
		sessionID := string(c.Request().Header.Peek("x-session-id"))
		refreshToken := string(c.Request().Header.Peek("x-refresh-token"))
		if string(c.Request().Header.Peek("x-refresh")) != "true" || sessionID == "" || refreshToken == "" {
			return errors.HandleBadRequestError(c, "AccessToken", "expired")
		}
		if claims, err = helpers.RefreshSession(c, sessionID, refreshToken); err != nil {
			return errors.HandleServiceError(c, "refresh_session", err)
		}
	} else if err != nil {
		return errors.HandleUnauthorizedError(c)
	}

	c.Locals("userid", claims.UserID)
	c.Locals("username", claims.Username)
	return c.Next()
}

// AuthenticateStream authenticates websocket connection
func AuthenticateStream(c *fiber.Ctx) error {

	if !websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	claims, err := helpers.ParseJWT(c.Query("token"))
	if errors.Is(err, helpers.ErrTokenExpired) {
		return errors.HandleBadRequestError(c, "AccessToken", "expired")
	} else if err != nil {
		return errors.HandleUnauthorizedError(c)
	}

	c.Locals("userid", claims.UserID)
	c.Locals("username", claims.Username)
	return c.Next()
}
