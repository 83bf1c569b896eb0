package helpers

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/schemas"
	Errors "errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
)

const refreshTokensKey = "refreshtokens:"

// ErrTokenExpired is returned by ParseJWT for a well signed but expired token
var ErrTokenExpired = Errors.New("token expired")

var errSigningMethod = Errors.New("unexpected signing method")

// Claims carried by an access token
type Claims struct {
	UserID   string
	Username string
}

// GenerateJWT generates a jwt token with a claim
func GenerateJWT(userID string, username string) (string, error) {
	user := jwt.MapClaims{}
	user["id"] = userID
	user["username"] = username
	user["exp"] = time.Now().Add(global.AccessTokenDuration).Unix()
	jt := jwt.NewWithClaims(jwt.SigningMethodRS256, user)
	return jt.SignedString(global.JwtKey)
}

// ParseJWT parses a jwt to its claims
func ParseJWT(jwtString string) (Claims, error) {
	token, err := jwt.Parse(jwtString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errSigningMethod
		}
		return global.JwtParseKey, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if Errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, err
	}
	user, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, errors.ErrUnauthorized
	}
	userID, _ := user["id"].(string)
	username, _ := user["username"].(string)
	if userID == "" || username == "" {
		return Claims{}, errors.ErrUnauthorized
	}
	return Claims{UserID: userID, Username: username}, nil
}

// GenerateAndRefreshTokens stores a new refresh token for sessionID in redis,
// signs an access token and sets both as response headers. Nothing is written
// to the body, callers report the error.
func GenerateAndRefreshTokens(c *fiber.Ctx, userID string, username string, sessionID string) (schemas.TokensSchema, error) {

	var tokens schemas.TokensSchema
	var err error

	tokens.RefreshToken.Token, err = RandomTokenString(40)
	if err != nil {
		return tokens, err
	}
	tokens.RefreshToken.ExpireAt = time.Now().UTC().Add(global.RefreshTokenDuration).Unix()

	tokens.AccessToken, err = GenerateJWT(userID, username)
	if err != nil {
		return tokens, fmt.Errorf("jwt: %w", err)
	}

	query := map[string]interface{}{
		"token":    tokens.RefreshToken.Token,
		"userid":   userID,
		"username": username,
		"ip":       c.IP(),
	}

	_, err = global.RedisClient.Pipelined(global.Context, func(pipe redis.Pipeliner) error {
		pipe.HSet(global.Context, refreshTokensKey+sessionID, query)
		pipe.Expire(global.Context, refreshTokensKey+sessionID, global.RefreshTokenDuration)
		return nil
	})
	if err != nil {
		return tokens, fmt.Errorf("redis: %w", err)
	}

	c.Response().Header.Add("x-refreshed", "true")
	c.Response().Header.Add("x-session-id", sessionID)
	c.Response().Header.Add("x-refresh-token", tokens.RefreshToken.Token)
	c.Response().Header.Add("x-refresh-token-expire", fmt.Sprint(tokens.RefreshToken.ExpireAt))
	c.Response().Header.Add("x-access-token", tokens.AccessToken)
	return tokens, nil
}

// RefreshSession checks the refresh token of sessionID and issues new tokens.
// A mismatching token revokes the session.
func RefreshSession(c *fiber.Ctx, sessionID string, refreshToken string) (Claims, error) {

	res, err := global.RedisClient.HGetAll(global.Context, refreshTokensKey+sessionID).Result()
	if err != nil {
		return Claims{}, fmt.Errorf("redis: %w", err)
	}

	if token, ok := res["token"]; !ok || token != refreshToken {
		if ok {
			if err = RevokeRefreshTokens(sessionID); err != nil {
				return Claims{}, fmt.Errorf("redis: %w", err)
			}
		}
		return Claims{}, errors.Wrap(errors.ErrUnauthorized, "invalid refresh token")
	}

	claims := Claims{UserID: res["userid"], Username: res["username"]}
	if _, err = GenerateAndRefreshTokens(c, claims.UserID, claims.Username, sessionID); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// RevokeRefreshTokens deletes the refresh token of sessionID
func RevokeRefreshTokens(sessionID string) error {
	return global.RedisClient.Del(global.Context, refreshTokensKey+sessionID).Err()
}

// SessionOwner returns the user id a refresh session belongs to, "" when the
// session does not exist
func SessionOwner(sessionID string) (string, error) {
	userID, err := global.RedisClient.HGet(global.Context, refreshTokensKey+sessionID, "userid").Result()
	if Errors.Is(err, redis.Nil) {
		return "", nil
	}
	return userID, err
}
