package conversation

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
)

func (m *Manager) memberOf(ctx context.Context, groupName, username string) (*models.Group, *models.User, error) {
	user, err := m.user(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	group, err := m.store.GetGroupByName(ctx, groupName)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, errors.Wrap(errors.ErrNotFound, "group %q", groupName)
	}
	if err != nil {
		return nil, nil, err
	}
	if !group.IsMember(user.ID) {
		return nil, nil, errors.Wrap(errors.ErrForbidden, "%q is not a member of %q", username, groupName)
	}
	return group, user, nil
}

// SendGroupMessage appends a text message to a group the sender belongs to
func (m *Manager) SendGroupMessage(ctx context.Context, groupName, senderName, content string) (*models.Message, error) {
	if content == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty message")
	}
	group, sender, err := m.memberOf(ctx, groupName, senderName)
	if err != nil {
		return nil, err
	}
	message := newMessage(sender, group.Name, models.ContentText, content)
	message.IsGroupMsg = true
	message.GroupID = group.ID
	if err = m.store.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	_, err = m.store.UpdateGroup(ctx, group.ID, func(g *models.Group) error {
		g.MessageList = append(g.MessageList, message.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// GroupMessages returns the history of a group grouped by day
func (m *Manager) GroupMessages(ctx context.Context, groupName, username string) ([]Day, error) {
	group, _, err := m.memberOf(ctx, groupName, username)
	if err != nil {
		return nil, err
	}
	messages, err := m.store.GetMessages(ctx, group.MessageList)
	if err != nil {
		return nil, err
	}
	return GroupByDay(messages, m.location), nil
}

// DeleteGroupMessages deletes every message of a group
func (m *Manager) DeleteGroupMessages(ctx context.Context, group *models.Group) error {
	return m.store.DeleteMessages(ctx, group.MessageList)
}
