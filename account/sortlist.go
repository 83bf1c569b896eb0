package account

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
)

func reserved(listName string) error {
	if listName == models.AllConnectedUsers {
		return errors.Wrap(errors.ErrInvalidInput, "%q cannot be modified directly", listName)
	}
	return nil
}

// CreateSortList adds an empty list to the sort lists of username
func (s *Service) CreateSortList(ctx context.Context, username, listName string) (*models.SortList, error) {
	listName = strings.TrimSpace(listName)
	if listName == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty list name")
	}
	user, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}
	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if _, ok := u.SortList(listName); ok {
			return errors.Wrap(errors.ErrAlreadyExists, "list %q", listName)
		}
		u.ChatSortList = append(u.ChatSortList, models.SortList{ListName: listName, Members: []string{}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.SortList{ListName: listName, Members: []string{}}, nil
}

// RenameSortList renames a list. The new name must not match any list, ignoring case.
func (s *Service) RenameSortList(ctx context.Context, username, currentName, updatedName string) error {
	updatedName = strings.TrimSpace(updatedName)
	if updatedName == "" {
		return errors.Wrap(errors.ErrInvalidInput, "empty list name")
	}
	if err := reserved(currentName); err != nil {
		return err
	}
	user, err := s.user(ctx, username)
	if err != nil {
		return err
	}
	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if u.HasSortListFold(updatedName) {
			return errors.Wrap(errors.ErrAlreadyExists, "list %q", updatedName)
		}
		if !u.RenameSortList(currentName, updatedName) {
			return errors.Wrap(errors.ErrNotFound, "list %q", currentName)
		}
		return nil
	})
	return err
}

// DeleteSortList removes a list of username
func (s *Service) DeleteSortList(ctx context.Context, username, listName string) error {
	if err := reserved(listName); err != nil {
		return err
	}
	user, err := s.user(ctx, username)
	if err != nil {
		return err
	}
	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		if !u.DeleteSortList(listName) {
			return errors.Wrap(errors.ErrNotFound, "list %q", listName)
		}
		return nil
	})
	return err
}

// AddToSortList moves a connected user into listName, creating the list if
// needed. The member leaves every other list except the reserved one.
func (s *Service) AddToSortList(ctx context.Context, username, memberName, listName string) error {
	if err := reserved(listName); err != nil {
		return err
	}
	if strings.TrimSpace(listName) == "" {
		return errors.Wrap(errors.ErrInvalidInput, "empty list name")
	}
	user, err := s.user(ctx, username)
	if err != nil {
		return err
	}
	member, err := s.user(ctx, memberName)
	if err != nil {
		return err
	}
	_, err = s.store.UpdateUser(ctx, user.ID, func(u *models.User) error {
		connected, ok := u.SortList(models.AllConnectedUsers)
		if !ok || !lo.Contains(connected.Members, member.ID) {
			return errors.Wrap(errors.ErrInvalidInput, "%q must be in %q first", memberName, models.AllConnectedUsers)
		}
		moved := u.RemoveFromSortLists(member.ID, models.AllConnectedUsers, listName)
		added := u.AddToSortList(listName, member.ID)
		if !moved && !added {
			return store.ErrNoChange
		}
		return nil
	})
	return err
}

// ConnectedUser is a member of a sort list with the last message exchanged
type ConnectedUser struct {
	UserName              string
	ProfileImage          string
	LastMessage           string
	LastMessageType       string     `json:",omitempty"`
	LastMessageTime       *time.Time `json:",omitempty"`
	PrivateConversationID string
}

// ConnectedList is one sort list as rendered for its owner
type ConnectedList struct {
	ListName string
	Members  []ConnectedUser
}

// ConnectedUsers renders the sort lists of username with the last message of each member
func (s *Service) ConnectedUsers(ctx context.Context, username string) ([]ConnectedList, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}

	members := map[string]*ConnectedUser{}
	resolve := func(id string) (*ConnectedUser, error) {
		if c, ok := members[id]; ok {
			return c, nil
		}
		member, err := s.store.GetUser(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			members[id] = nil
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		c := &ConnectedUser{UserName: member.Username, ProfileImage: member.ProfileImage}
		for _, pc := range user.PrivateChatList {
			if pc.FriendUsername != member.Username {
				continue
			}
			c.PrivateConversationID = pc.ConversationID
			last, err := s.conversations.LastMessage(ctx, pc.ConversationID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			if last != nil {
				c.LastMessage = last.Content
				c.LastMessageType = last.ContentType
				createdAt := last.CreatedAt
				c.LastMessageTime = &createdAt
			}
			break
		}
		members[id] = c
		return c, nil
	}

	lists := make([]ConnectedList, len(user.ChatSortList))
	for i, list := range user.ChatSortList {
		lists[i] = ConnectedList{ListName: list.ListName, Members: []ConnectedUser{}}
		for _, id := range list.Members {
			c, err := resolve(id)
			if err != nil {
				return nil, err
			}
			if c != nil {
				lists[i].Members = append(lists[i].Members, *c)
			}
		}
	}
	return lists, nil
}
