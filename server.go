package main

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"SOCIAL_server/account"
	"SOCIAL_server/config"
	"SOCIAL_server/conversation"
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/group"
	"SOCIAL_server/relation"
	"SOCIAL_server/relay"
	"SOCIAL_server/routes"
	"SOCIAL_server/services"
	"SOCIAL_server/socket"
	"SOCIAL_server/store"
	"SOCIAL_server/store/badgerstore"
	"SOCIAL_server/store/scyllastore"
	"SOCIAL_server/tasks"

	redis "github.com/go-redis/redis/v8"
	"github.com/gocql/gocql"
	fiber "github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

func init() {
	var err error
	config.Config, err = config.Load("./config.json")
	errors.HandleFatalError(err)

	err = os.MkdirAll(config.Config.LogDir, 0755)
	errors.HandleFatalError(err)

	internalErrorsFile, err := os.OpenFile(filepath.Join(config.Config.LogDir, "internal_errors.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	errors.HandleFatalError(err)

	monitorErrorsFile, err := os.OpenFile(filepath.Join(config.Config.LogDir, "monitor_logs.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	errors.HandleFatalError(err)

	global.InternalLogger.SetOutput(internalErrorsFile)
	global.InternalLogger.SetFormatter(&logrus.JSONFormatter{})
	global.MonitorLogger.SetOutput(monitorErrorsFile)
	global.MonitorLogger.SetFormatter(&logrus.JSONFormatter{})

	global.Location, err = config.Config.Location()
	errors.HandleFatalError(err)
	global.AccessTokenDuration = config.Config.JWT.AccessTokenDuration
	global.RefreshTokenDuration = config.Config.JWT.RefreshTokenDuration

	global.JwtKey, err = readPrivateKey(config.Config.JWT.PrivateKeyPath)
	errors.HandleFatalError(err)

	global.JwtParseKey, err = readPublicKey(config.Config.JWT.PublicKeyPath)
	errors.HandleFatalError(err)

	global.MinIOClient, err = minio.New(config.Config.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Config.MinIO.User, config.Config.MinIO.Password, ""),
		Secure: config.Config.MinIO.Secure,
	})
	errors.HandleFatalError(err)

	global.RedisClient = redis.NewClient(&redis.Options{
		Addr:     config.Config.Redis.Addr,
		Password: config.Config.Redis.Password,
		DB:       config.Config.Redis.DB,
	})
}

func readPEM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block", path)
	}
	return block.Bytes, nil
}

// readPrivateKey accepts PKCS1 and PKCS8 RSA keys
func readPrivateKey(path string) (*rsa.PrivateKey, error) {
	der, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s: not an RSA key", path)
	}
	return key, nil
}

// readPublicKey accepts PKCS1 and PKIX RSA keys
func readPublicKey(path string) (*rsa.PublicKey, error) {
	der, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	if key, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%s: not an RSA key", path)
	}
	return key, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch config.Config.StoreBackend {
	case config.BackendScylla:
		cluster := gocql.NewCluster(config.Config.Scylla.Hosts...)
		cluster.Keyspace = config.Config.Scylla.Keyspace
		cluster.Consistency = gocql.Quorum
		session, err := cluster.CreateSession()
		if err != nil {
			return nil, err
		}
		s := scyllastore.New(session)
		if err = s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		global.Logger.WithField("keyspace", cluster.Keyspace).Info("ScyllaDB initialized")
		return s, nil
	case config.BackendBadger:
		s, err := badgerstore.Open(config.Config.Badger.Path)
		if err != nil {
			return nil, err
		}
		global.Logger.WithField("path", config.Config.Badger.Path).Info("Badger initialized")
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", config.Config.StoreBackend)
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	errors.HandleFatalError(err)
	defer s.Close()

	objects := conversation.NewMinIOStorage(global.MinIOClient, config.Config.MinIO.Bucket)
	err = objects.EnsureBucket(ctx, config.Config.MinIO.ExpireDays)
	errors.HandleFatalError(err)

	conversations := conversation.New(s, objects, global.Location)
	sessions := socket.NewSessions(config.Config.SessionBuffer)
	r := relay.New(sessions)
	go r.Run(ctx)

	svc := &services.Services{
		Accounts:      account.New(s, conversations),
		Groups:        group.New(s, conversations),
		Engine:        relation.New(s, conversations),
		Conversations: conversations,
		Tasks:         tasks.New(s),
		Relay:         r,
	}

	app := fiber.New(fiber.Config{
		AppName:     "SOCIAL_server " + config.Config.Version,
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
		BodyLimit:   conversation.MaxVoiceMessageSize + 1<<20,
	})

	routes.SetRoutes(app, svc, socket.NewServer(sessions, r, s, config.Config.StoreTimeout))

	go func() {
		<-ctx.Done()
		global.Logger.Info("shutting down")
		errors.HandleBasicError(app.Shutdown())
	}()

	global.Logger.WithField("port", config.Config.Port).Info("Starting server")
	if err := app.Listen(config.Config.Port); err != nil {
		global.Logger.Errorln(err)
	}
}
