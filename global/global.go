package global

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	minio "github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
)

// Logger for lifecycle and relay events
var Logger = logrus.New()

// InternalLogger records errors that should never happen in normal circumstances
var InternalLogger = logrus.New()

// MonitorLogger records client errors worth watching
var MonitorLogger = logrus.New()

// RedisClient for global redis queries
var RedisClient *redis.Client

// MinIOClient for global min io access
var MinIOClient *minio.Client

// JwtKey used to sign jwt tokens
var JwtKey *rsa.PrivateKey

// JwtParseKey used to parse jwt tokens
var JwtParseKey *rsa.PublicKey

// AccessTokenDuration determines the length of an access token
var AccessTokenDuration time.Duration = time.Hour

// RefreshTokenDuration determines the length of a refresh token (60 days)
var RefreshTokenDuration time.Duration = time.Hour * 24 * 60

// Location is the reference time zone for day grouping and notification dates
var Location = time.UTC

// Context is the default context
var Context = context.Background()

// Validator validates incoming bodys of data
var Validator = validator.New()
