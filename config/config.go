package config

import (
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
)

// Config file (global)
var Config JSONConfig

// Store backends
const (
	BackendBadger = "badger"
	BackendScylla = "scylla"
)

// JSONConfig structure based on config.json, env variables override it
type JSONConfig struct {
	Origin        string        `json:"origin" env:"ORIGIN"`
	Port          string        `json:"port" env:"PORT"`
	Version       string        `json:"version" env:"VERSION"`
	LogDir        string        `json:"logDir" env:"LOG_DIR"`
	TimeZone      string        `json:"timeZone" env:"TIME_ZONE"`
	StoreBackend  string        `json:"storeBackend" env:"STORE_BACKEND"`
	StoreTimeout  time.Duration `json:"-" env:"STORE_TIMEOUT"`
	SessionBuffer int           `json:"sessionBuffer" env:"SESSION_BUFFER"`
	Badger        BadgerConfig  `json:"badger"`
	Scylla        ScyllaConfig  `json:"scylla"`
	Redis         RedisConfig   `json:"redis"`
	MinIO         MinIOConfig   `json:"minIO"`
	JWT           JWTConfig     `json:"jwt"`
}

// BadgerConfig structure is the config of the embedded store
type BadgerConfig struct {
	Path string `json:"path" env:"BADGER_PATH"`
}

// ScyllaConfig structure is the config for ScyllaDB connection
type ScyllaConfig struct {
	Hosts    []string `json:"hosts"`
	Keyspace string   `json:"keyspace" env:"SCYLLA_KEYSPACE"`
}

// RedisConfig structure is the config for Redis connection
type RedisConfig struct {
	Addr     string `json:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB"`
}

// MinIOConfig structure is the config for MinIO connectoin
type MinIOConfig struct {
	Endpoint   string `json:"endpoint" env:"MINIO_ENDPOINT"`
	User       string `json:"user" env:"MINIO_USER"`
	Password   string `json:"password" env:"MINIO_PASSWORD"`
	Bucket     string `json:"bucket" env:"MINIO_BUCKET"`
	Secure     bool   `json:"secure" env:"MINIO_SECURE"`
	ExpireDays int    `json:"expireDays" env:"MINIO_EXPIRE_DAYS"`
}

// JWTConfig structure locates the signing keys. Lifetimes only come from the environment.
type JWTConfig struct {
	PrivateKeyPath       string        `json:"privateKeyPath" env:"JWT_PRIVATE_KEY_PATH"`
	PublicKeyPath        string        `json:"publicKeyPath" env:"JWT_PUBLIC_KEY_PATH"`
	AccessTokenDuration  time.Duration `json:"-" env:"ACCESS_TOKEN_DURATION"`
	RefreshTokenDuration time.Duration `json:"-" env:"REFRESH_TOKEN_DURATION"`
}

// Default returns the configuration used for anything config.json leaves out
func Default() JSONConfig {
	return JSONConfig{
		Origin:        "*",
		Port:          ":8080",
		Version:       "v1",
		LogDir:        ".",
		TimeZone:      "UTC",
		StoreBackend:  BackendBadger,
		StoreTimeout:  5 * time.Second,
		SessionBuffer: 64,
		Badger:        BadgerConfig{Path: "./data"},
		Scylla:        ScyllaConfig{Hosts: []string{"127.0.0.1:9042"}, Keyspace: "socialdb"},
		Redis:         RedisConfig{Addr: "127.0.0.1:6379"},
		MinIO: MinIOConfig{
			Endpoint:   "127.0.0.1:9000",
			Bucket:     "audio",
			ExpireDays: 0,
		},
		JWT: JWTConfig{
			PrivateKeyPath:       "./jwt_key.pem",
			PublicKeyPath:        "./jwt_key.pub",
			AccessTokenDuration:  time.Hour,
			RefreshTokenDuration: time.Hour * 24 * 60,
		},
	}
}

// Load reads path over the defaults, then applies .env and the environment.
// A missing config file or .env is not an error.
func Load(path string) (JSONConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err = jsoniter.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err = godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if _, err = env.UnmarshalFromEnviron(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Location resolves TimeZone, UTC when empty
func (c JSONConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}
