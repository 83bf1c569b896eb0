// Package group creates, lists and deletes groups.
package group

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Group name bounds, in characters
const (
	MinNameLength = 3
	MaxNameLength = 15
)

// Messages deletes the message thread of a group
type Messages interface {
	DeleteGroupMessages(ctx context.Context, group *models.Group) error
}

// Service manages groups
type Service struct {
	store    store.Store
	messages Messages
}

// New creates a group service
func New(s store.Store, messages Messages) *Service {
	return &Service{store: s, messages: messages}
}

// Summary is a group as listed by a search
type Summary struct {
	GroupName string
	Image     string
}

func (s *Service) user(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "user %q", username)
	}
	return user, err
}

// Create creates a group administered by adminName, who becomes its first member
func (s *Service) Create(ctx context.Context, name, adminName, image string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < MinNameLength || n > MaxNameLength {
		return nil, errors.Wrap(errors.ErrInvalidInput, "group name must be %d to %d characters", MinNameLength, MaxNameLength)
	}
	admin, err := s.user(ctx, adminName)
	if err != nil {
		return nil, err
	}

	group := models.NewGroup(name, admin.ID, image)
	if err = s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	_, err = s.store.UpdateUser(ctx, admin.ID, func(u *models.User) error {
		if !u.JoinGroup(group.ID, group.Name) {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, errors.Step("create_group", "admin_groups", err)
	}

	global.Logger.WithFields(logrus.Fields{"group": group.Name, "admin": admin.Username}).Info("group created")
	return group, nil
}

// Delete removes a group, detaching every member and dropping pending join
// requests and messages. Only the admin may delete.
func (s *Service) Delete(ctx context.Context, adminName, name string) (*models.Group, error) {
	admin, err := s.user(ctx, adminName)
	if err != nil {
		return nil, err
	}
	group, err := s.store.GetGroupByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "group %q", name)
	}
	if err != nil {
		return nil, err
	}
	if group.Admin != admin.ID {
		return nil, errors.Wrap(errors.ErrUnauthorized, "%q is not the admin of %q", adminName, name)
	}

	if err = s.store.DeleteGroup(ctx, group.ID); err != nil {
		return nil, err
	}

	for _, member := range group.Members {
		_, err = s.store.UpdateUser(ctx, member, func(u *models.User) error {
			if !u.LeaveGroup(group.ID) {
				return store.ErrNoChange
			}
			return nil
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, errors.Step("delete_group", "members", err)
		}
	}

	var requesters []string
	_, err = s.store.UpdateNotification(ctx, admin.ID, func(n *models.Notification) error {
		requesters = nil
		pending, ok := n.GroupRequests(group.Name)
		if !ok {
			return store.ErrNoChange
		}
		for _, entry := range pending.RequestedUsers {
			requesters = append(requesters, entry.UserID)
		}
		for _, id := range requesters {
			n.RemoveGroupRequest(group.Name, id)
		}
		return nil
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Step("delete_group", "pending_requests", err)
	}
	for _, id := range requesters {
		_, err = s.store.UpdateUser(ctx, id, func(u *models.User) error {
			if !u.RemoveSentGroupRequest(group.Name) {
				return store.ErrNoChange
			}
			return nil
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, errors.Step("delete_group", "requester_outbox", err)
		}
	}

	if err = s.messages.DeleteGroupMessages(ctx, group); err != nil {
		return nil, errors.Step("delete_group", "messages", err)
	}

	global.Logger.WithFields(logrus.Fields{"group": group.Name, "members": len(group.Members)}).Info("group deleted")
	return group, nil
}

// Search finds groups whose name contains query, ignoring case
func (s *Service) Search(ctx context.Context, query string) ([]Summary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty query")
	}
	groups, err := s.store.SearchGroups(ctx, query)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, len(groups))
	for i, g := range groups {
		summaries[i] = Summary{GroupName: g.Name, Image: g.Image}
	}
	return summaries, nil
}

// ForUser lists the groups username belongs to
func (s *Service) ForUser(ctx context.Context, username string) ([]models.Group, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.GroupsByMember(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}
