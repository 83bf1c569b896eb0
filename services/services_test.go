package services_test

import (
	"SOCIAL_server/account"
	"SOCIAL_server/config"
	"SOCIAL_server/conversation"
	"SOCIAL_server/global"
	"SOCIAL_server/group"
	"SOCIAL_server/helpers"
	"SOCIAL_server/models"
	"SOCIAL_server/relation"
	"SOCIAL_server/relay"
	"SOCIAL_server/routes"
	"SOCIAL_server/schemas"
	"SOCIAL_server/services"
	"SOCIAL_server/socket"
	"SOCIAL_server/store"
	"SOCIAL_server/store/badgerstore"
	"SOCIAL_server/tasks"
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app   *fiber.App
	store store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	global.JwtKey = key
	global.JwtParseKey = &key.PublicKey
	config.Config = config.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	s := badgerstore.New(db)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conversations := conversation.New(s, nil, time.UTC)
	sessions := socket.NewSessions(8)
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
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
	})
	routes.SetRoutes(app, svc, socket.NewServer(sessions, r, s, 0))

	return &fixture{app: app, store: s}
}

// user creates a user directly in the store and returns its access token
func (f *fixture) user(t *testing.T, name string) string {
	t.Helper()
	ctx := context.Background()
	u := models.NewUser(name, "hash", "", "", "")
	require.NoError(t, f.store.CreateUser(ctx, u))
	_, _, err := f.store.FindOrCreateNotification(ctx, u.ID)
	require.NoError(t, err)
	token, err := helpers.GenerateJWT(u.ID, u.Username)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := jsoniter.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	res, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/user/register", "", fiber.Map{
		"userName": "alice",
		"password": "Passw0rd!",
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	require.Equal(t, "alice", jsoniter.Get(body, "Data", "UserName").ToString())
	require.NotEmpty(t, jsoniter.Get(body, "Data", "PublicKey").ToString())

	status, _ = f.do(t, http.MethodPost, "/api/user/register", "", fiber.Map{
		"userName": "alice",
		"password": "Passw0rd!",
	})
	require.Equal(t, fiber.StatusConflict, status)

	status, body = f.do(t, http.MethodPost, "/api/user/register", "", fiber.Map{
		"userName": "bob",
		"password": "short",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.True(t, jsoniter.Get(body, "Error").ToBool())

	status, body = f.do(t, http.MethodGet, "/api/public/check-username-unique?userName=alice", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.False(t, jsoniter.Get(body, "IsUnique").ToBool())
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodGet, "/api/user/get-connected-users", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodGet, "/api/user/get-connected-users", "not-a-jwt", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodGet, "/stream", "", nil)
	require.Equal(t, fiber.StatusUpgradeRequired, status)
}

func TestPrivateFlow(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	status, body := f.do(t, http.MethodPost, "/api/user/message-request", alice, schemas.UserNameSchema{UserName: "bob"})
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, _ = f.do(t, http.MethodPost, "/api/user/message-request", alice, schemas.UserNameSchema{UserName: "bob"})
	require.Equal(t, fiber.StatusConflict, status)

	status, _ = f.do(t, http.MethodPost, "/api/user/message-request", alice, schemas.UserNameSchema{UserName: "ghost"})
	require.Equal(t, fiber.StatusNotFound, status)

	status, body = f.do(t, http.MethodGet, "/api/notification", bob, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "alice", jsoniter.Get(body, "Data", "receivedPrivateMessageRequest", 0, "Name").ToString())

	status, body = f.do(t, http.MethodPost, "/api/user/accept-message-request", bob, schemas.UserNameSchema{UserName: "alice"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	conversationID := jsoniter.Get(body, "Data", "ConversationID").ToString()
	require.NotEmpty(t, conversationID)

	status, body = f.do(t, http.MethodPost, "/api/user/send-message", alice, schemas.SendMessageSchema{Receiver: "bob", Content: "hi"})
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, body = f.do(t, http.MethodGet, "/api/user/get-previous-messages/alice", bob, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "hi", jsoniter.Get(body, "Data", 0, "Messages", 0, "Content").ToString())

	status, body = f.do(t, http.MethodGet, "/api/user/get-connected-users", bob, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, conversationID, jsoniter.Get(body, "Data", 0, "Members", 0, "PrivateConversationID").ToString())

	status, _ = f.do(t, http.MethodDelete, "/api/user/end-connection", alice, schemas.UserNameSchema{UserName: "bob"})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, http.MethodPost, "/api/user/send-message", alice, schemas.SendMessageSchema{Receiver: "bob", Content: "still there?"})
	require.NotEqual(t, fiber.StatusCreated, status)
}

func TestGroupFlow(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	status, body := f.do(t, http.MethodPost, "/api/group/create", alice, schemas.CreateGroupSchema{GroupName: "gophers"})
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, _ = f.do(t, http.MethodPost, "/api/group/send-group-join-request", bob, schemas.GroupNameSchema{GroupName: "gophers"})
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = f.do(t, http.MethodPost, "/api/group/accept-group-join-request", bob, schemas.GroupRequestSchema{GroupName: "gophers", UserName: "bob"})
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodPost, "/api/group/accept-group-join-request", alice, schemas.GroupRequestSchema{GroupName: "gophers", UserName: "bob"})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, http.MethodPost, "/api/group/send-group-message", bob, schemas.GroupMessageSchema{GroupName: "gophers", Content: "hello"})
	require.Equal(t, fiber.StatusCreated, status)

	status, body = f.do(t, http.MethodGet, "/api/group/gophers/messages", alice, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "hello", jsoniter.Get(body, "Data", 0, "Messages", 0, "Content").ToString())

	status, body = f.do(t, http.MethodGet, "/api/group/mine", bob, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, jsoniter.Get(body, "Data").Size())

	status, _ = f.do(t, http.MethodDelete, "/api/group/gophers", bob, nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = f.do(t, http.MethodDelete, "/api/group/gophers", alice, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, http.MethodGet, "/api/group/gophers/messages", alice, nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.user(t, "bob")

	status, _ := f.do(t, http.MethodPost, "/api/user/message-request", alice, schemas.UserNameSchema{UserName: "bob"})
	require.Equal(t, fiber.StatusCreated, status)

	bob, err := helpers.GenerateJWT("unused", "bob")
	require.NoError(t, err)

	status, body := f.do(t, http.MethodGet, "/api/notification", bob, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, jsoniter.Get(body, "Data", "Unseen").ToInt())

	status, _ = f.do(t, http.MethodPut, "/api/notification/seen", bob, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = f.do(t, http.MethodGet, "/api/notification", bob, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 0, jsoniter.Get(body, "Data", "Unseen").ToInt())

	index := 3
	status, _ = f.do(t, http.MethodDelete, "/api/notification", bob, schemas.DeleteNotificationSchema{SubList: "receivedPrivateMessageRequest", Index: &index})
	require.Equal(t, fiber.StatusBadRequest, status)

	index = 0
	status, _ = f.do(t, http.MethodDelete, "/api/notification", bob, schemas.DeleteNotificationSchema{SubList: "receivedPrivateMessageRequest", Index: &index})
	require.Equal(t, fiber.StatusOK, status)

	status, body = f.do(t, http.MethodGet, "/api/notification", bob, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 0, jsoniter.Get(body, "Data", "receivedPrivateMessageRequest").Size())
}

func TestDailyTasks(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	status, _ := f.do(t, http.MethodGet, "/api/task/get-all-daily-tasks", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)

	status, body := f.do(t, http.MethodPost, "/api/task/create-daily-task", alice, schemas.CreateTaskSchema{
		Time:        "07:30",
		Title:       "warm up",
		Description: []string{"stretch"},
		Links:       []string{"not a url"},
	})
	require.Equal(t, fiber.StatusBadRequest, status, string(body))

	status, body = f.do(t, http.MethodPost, "/api/task/create-daily-task", alice, schemas.CreateTaskSchema{
		Time:        "07:30",
		Title:       "warm up",
		Description: []string{"stretch"},
		Links:       []string{"https://go.dev"},
	})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	taskID := jsoniter.Get(body, "Data", "ID").ToString()
	require.NotEmpty(t, taskID)

	status, body = f.do(t, http.MethodGet, "/api/task/get-all-daily-tasks", alice, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, jsoniter.Get(body, "Data").Size())
	require.False(t, jsoniter.Get(body, "Data", 0, "Completed").ToBool())

	completed := true
	status, _ = f.do(t, http.MethodPatch, "/api/task/complete-daily-task", alice, schemas.CompleteTaskSchema{TaskID: taskID})
	require.Equal(t, fiber.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPatch, "/api/task/complete-daily-task", bob, schemas.CompleteTaskSchema{TaskID: taskID, Completed: &completed})
	require.Equal(t, fiber.StatusForbidden, status)

	status, body = f.do(t, http.MethodPatch, "/api/task/complete-daily-task", alice, schemas.CompleteTaskSchema{TaskID: taskID, Completed: &completed})
	require.Equal(t, fiber.StatusOK, status, string(body))
	require.True(t, jsoniter.Get(body, "Data", "Completed").ToBool())

	status, _ = f.do(t, http.MethodDelete, "/api/task/delete-daily-task", alice, schemas.TaskIDSchema{TaskID: taskID})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, http.MethodDelete, "/api/task/delete-daily-task", alice, schemas.TaskIDSchema{TaskID: taskID})
	require.Equal(t, fiber.StatusNotFound, status)

	status, body = f.do(t, http.MethodGet, "/api/task/get-all-daily-tasks", alice, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 0, jsoniter.Get(body, "Data").Size())
}
