// Package relation runs the request lifecycle of private message requests and
// group join requests.
//
// A request touches four independent documents: the sender's outbox (on the
// sender's user), the recipient's inbox and history (on the recipient's
// notification) and the sender's history (on the sender's notification).
// Operations apply their writes as an ordered list of steps. A failing step
// aborts the remaining ones and is reported as an errors.StepError. Completed
// steps are kept, every step being idempotent so that replaying an operation
// converges.
package relation

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"

	"github.com/sirupsen/logrus"
)

// Conversations is the part of the conversation manager the engine drives
type Conversations interface {
	GetOrCreatePrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Engine applies lifecycle transitions over a store
type Engine struct {
	store         store.Store
	conversations Conversations
}

// New creates an engine
func New(s store.Store, conversations Conversations) *Engine {
	return &Engine{store: s, conversations: conversations}
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

func runSteps(ctx context.Context, op string, steps []step) error {
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			global.Logger.WithFields(logrus.Fields{
				"op":   op,
				"step": s.name,
			}).WithError(err).Warn("lifecycle step failed, earlier steps kept")
			return errors.Step(op, s.name, err)
		}
	}
	return nil
}

// changed turns a "nothing to do" mutation into a skipped write
func changed(ok bool) error {
	if ok {
		return nil
	}
	return store.ErrNoChange
}

func (e *Engine) user(ctx context.Context, username string) (*models.User, error) {
	user, err := e.store.GetUserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "user %q", username)
	}
	return user, err
}

func (e *Engine) group(ctx context.Context, name string) (*models.Group, error) {
	group, err := e.store.GetGroupByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "group %q", name)
	}
	return group, err
}

// notification reads a record that may not exist yet, an absent record is empty
func (e *Engine) notification(ctx context.Context, userID string) (*models.Notification, error) {
	n, err := e.store.GetNotification(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewNotification(userID), nil
	}
	return n, err
}

func (e *Engine) updateNotification(ctx context.Context, userID string, fn func(*models.Notification) error) error {
	if _, _, err := e.store.FindOrCreateNotification(ctx, userID); err != nil {
		return err
	}
	_, err := e.store.UpdateNotification(ctx, userID, fn)
	return err
}

func (e *Engine) updateUser(ctx context.Context, id string, fn func(*models.User) bool) error {
	_, err := e.store.UpdateUser(ctx, id, func(u *models.User) error {
		return changed(fn(u))
	})
	return err
}
