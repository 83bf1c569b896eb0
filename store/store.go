// Package store defines the document store consumed by the domain packages.
//
// Every Update* call is an atomic read-modify-write of a single document.
// Sequences spanning several documents are not atomic and callers must treat
// each call as an independent step.
package store

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/models"
	"context"
	Errors "errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document or index entry is missing
	ErrNotFound = fmt.Errorf("store: %w", errors.ErrNotFound)
	// ErrAlreadyExists is returned when a unique index is already taken
	ErrAlreadyExists = fmt.Errorf("store: %w", errors.ErrAlreadyExists)
	// ErrNoChange may be returned by an update callback to skip the write
	ErrNoChange = Errors.New("store: no change")
)

// Store is implemented by badgerstore and scyllastore
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByName(ctx context.Context, username string) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	SearchGroups(ctx context.Context, query string) ([]models.Group, error)
	GroupsByMember(ctx context.Context, userID string) ([]models.Group, error)
	UpdateGroup(ctx context.Context, id string, fn func(*models.Group) error) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error

	FindOrCreateNotification(ctx context.Context, userID string) (*models.Notification, bool, error)
	GetNotification(ctx context.Context, userID string) (*models.Notification, error)
	UpdateNotification(ctx context.Context, userID string, fn func(*models.Notification) error) (*models.Notification, error)

	FindOrCreatePrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, bool, error)
	FindPrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, error)
	GetPrivateConversation(ctx context.Context, id string) (*models.PrivateConversation, error)
	UpdatePrivateConversation(ctx context.Context, id string, fn func(*models.PrivateConversation) error) (*models.PrivateConversation, error)
	DeletePrivateConversation(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	GetMessages(ctx context.Context, ids []string) ([]models.Message, error)
	DeleteMessages(ctx context.Context, ids []string) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetTasks(ctx context.Context, ids []string) ([]models.Task, error)
	UpdateTask(ctx context.Context, id string, fn func(*models.Task) error) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	Close() error
}
