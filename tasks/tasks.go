// Package tasks keeps the daily task list of each user.
package tasks

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Draft holds the fields of a new task
type Draft struct {
	Time        string
	Title       string
	Description []string
	Links       []string
	Completed   bool
}

// Service manages daily tasks
type Service struct {
	store store.Store
}

// New creates a task service
func New(s store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) user(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "user %q", username)
	}
	return user, err
}

// owned loads task id and checks it belongs to user
func (s *Service) owned(ctx context.Context, user *models.User, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "task %q", id)
	}
	if err != nil {
		return nil, err
	}
	if task.Owner != user.ID {
		return nil, errors.Wrap(errors.ErrForbidden, "task %q belongs to another user", id)
	}
	return task, nil
}

// Create adds a task to the list of username
func (s *Service) Create(ctx context.Context, username string, draft Draft) (*models.Task, error) {
	draft.Time = strings.TrimSpace(draft.Time)
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = lo.Compact(lo.Map(draft.Description, func(line string, _ int) string {
		return strings.TrimSpace(line)
	}))
	if draft.Time == "" || draft.Title == "" || len(draft.Description) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "time, title and description are required")
	}
	user, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}

	task := models.NewTask(user.ID, draft.Time, draft.Title, draft.Description, lo.Uniq(draft.Links))
	task.Completed = draft.Completed
	if err = s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if !u.AddTask(task.ID) {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, errors.Step("create_task", "owner_tasks", err)
	}

	global.Logger.WithFields(logrus.Fields{"task": task.ID, "owner": username}).Debug("task created")
	return task, nil
}

// List returns the tasks of username, oldest first
func (s *Service) List(ctx context.Context, username string) ([]models.Task, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.store.GetTasks(ctx, user.DailyTask)
}

// SetCompleted flags a task of username as completed or open again
func (s *Service) SetCompleted(ctx context.Context, username, id string, completed bool) (*models.Task, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err = s.owned(ctx, user, id); err != nil {
		return nil, err
	}
	task, err := s.store.UpdateTask(ctx, id, func(t *models.Task) error {
		if !t.SetCompleted(completed) {
			return store.ErrNoChange
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "task %q", id)
	}
	return task, err
}

// Delete removes a task of username and pulls it from the list
func (s *Service) Delete(ctx context.Context, username, id string) error {
	user, err := s.user(ctx, username)
	if err != nil {
		return err
	}
	if _, err = s.owned(ctx, user, id); err != nil {
		return err
	}
	if err = s.store.DeleteTask(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if !u.RemoveTask(id) {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return errors.Step("delete_task", "owner_tasks", err)
	}

	global.Logger.WithFields(logrus.Fields{"task": id, "owner": username}).Debug("task deleted")
	return nil
}
