// Package conversation locates private and group threads and appends messages to them.
package conversation

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// MaxVoiceMessageSize is the largest accepted audio upload (2 MiB)
const MaxVoiceMessageSize = 2 << 20

// DayFormat keys the day buckets of a message history
const DayFormat = "2006-01-02"

// ObjectStorage keeps audio payloads
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, key string) error
}

// Day is the ordered messages of one calendar day
type Day struct {
	Day      string
	Messages []models.Message
}

// Manager manages conversations and their messages
type Manager struct {
	store    store.Store
	objects  ObjectStorage
	location *time.Location
}

// New creates a manager grouping days in loc
func New(s store.Store, objects ObjectStorage, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{store: s, objects: objects, location: loc}
}

// GroupByDay buckets messages by the calendar day of their creation in loc.
// Messages are expected in creation order and keep it.
func GroupByDay(messages []models.Message, loc *time.Location) []Day {
	days := []Day{}
	for _, m := range messages {
		key := m.CreatedAt.In(loc).Format(DayFormat)
		if n := len(days); n > 0 && days[n-1].Day == key {
			days[n-1].Messages = append(days[n-1].Messages, m)
			continue
		}
		days = append(days, Day{Day: key, Messages: []models.Message{m}})
	}
	return days
}

func (m *Manager) user(ctx context.Context, username string) (*models.User, error) {
	user, err := m.store.GetUserByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(errors.ErrNotFound, "user %q", username)
	}
	return user, err
}

// GetOrCreatePrivateConversation returns the single conversation of a and b,
// creating it on first use
func (m *Manager) GetOrCreatePrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, error) {
	if a == b {
		return nil, errors.Wrap(errors.ErrInvalidInput, "conversation needs two members")
	}
	conversation, created, err := m.store.FindOrCreatePrivateConversation(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if created {
		global.Logger.WithField("conversation", conversation.ID).Info("private conversation created")
	}
	return conversation, nil
}

// AppendMessage stores message and appends it to its private conversation
func (m *Manager) AppendMessage(ctx context.Context, conversationID string, message *models.Message) error {
	if _, err := m.store.GetPrivateConversation(ctx, conversationID); err != nil {
		return err
	}
	message.PrivateConversationID = conversationID
	if err := m.store.CreateMessage(ctx, message); err != nil {
		return err
	}
	_, err := m.store.UpdatePrivateConversation(ctx, conversationID, func(c *models.PrivateConversation) error {
		c.MessageList = append(c.MessageList, message.ID)
		return nil
	})
	return err
}

// DeleteConversation deletes a private conversation with its messages and their audio
func (m *Manager) DeleteConversation(ctx context.Context, id string) error {
	conversation, err := m.store.GetPrivateConversation(ctx, id)
	if err != nil {
		return err
	}
	messages, err := m.store.GetMessages(ctx, conversation.MessageList)
	if err != nil {
		return err
	}
	for _, message := range messages {
		if message.ContentType != models.ContentAudio {
			continue
		}
		if err = m.objects.RemoveObject(ctx, message.Content); err != nil {
			global.Logger.WithFields(logrus.Fields{
				"conversation": id,
				"object":       message.Content,
			}).WithError(err).Warn("audio object left behind")
		}
	}
	if err = m.store.DeleteMessages(ctx, conversation.MessageList); err != nil {
		return err
	}
	return m.store.DeletePrivateConversation(ctx, id)
}

// LastMessage returns the newest message of a private conversation, nil when empty
func (m *Manager) LastMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	conversation, err := m.store.GetPrivateConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(conversation.MessageList) == 0 {
		return nil, nil
	}
	return m.store.GetMessage(ctx, conversation.MessageList[len(conversation.MessageList)-1])
}

func (m *Manager) privatePair(ctx context.Context, fromName, toName string) (*models.User, *models.User, *models.PrivateConversation, error) {
	from, err := m.user(ctx, fromName)
	if err != nil {
		return nil, nil, nil, err
	}
	to, err := m.user(ctx, toName)
	if err != nil {
		return nil, nil, nil, err
	}
	conversation, err := m.store.FindPrivateConversation(ctx, from.ID, to.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil, errors.Wrap(errors.ErrForbidden, "%q and %q are not connected", fromName, toName)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return from, to, conversation, nil
}

func newMessage(from *models.User, to, contentType, content string) *models.Message {
	return &models.Message{
		ID:                 models.NewID(),
		From:               from.Username,
		To:                 to,
		ContentType:        contentType,
		Content:            content,
		SenderProfileImage: from.ProfileImage,
		CreatedAt:          time.Now().UTC(),
	}
}

// SendPrivateMessage appends a text message to the conversation of from and to
func (m *Manager) SendPrivateMessage(ctx context.Context, fromName, toName, content string) (*models.Message, error) {
	if content == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty message")
	}
	from, to, conversation, err := m.privatePair(ctx, fromName, toName)
	if err != nil {
		return nil, err
	}
	message := newMessage(from, to.Username, models.ContentText, content)
	if err = m.AppendMessage(ctx, conversation.ID, message); err != nil {
		return nil, err
	}
	return message, nil
}

// SendVoiceMessage uploads audio and appends it to the conversation of from and to
func (m *Manager) SendVoiceMessage(ctx context.Context, fromName, toName string, r io.Reader, size int64, contentType string) (*models.Message, error) {
	if size <= 0 || size > MaxVoiceMessageSize {
		return nil, errors.Wrap(errors.ErrInvalidInput, "voice message of %d bytes, limit is %d", size, MaxVoiceMessageSize)
	}
	from, to, conversation, err := m.privatePair(ctx, fromName, toName)
	if err != nil {
		return nil, err
	}
	message := newMessage(from, to.Username, models.ContentAudio, "")
	message.Content = "audio/" + conversation.ID + "/" + message.ID
	if err = m.objects.PutObject(ctx, message.Content, r, size, contentType); err != nil {
		return nil, err
	}
	if err = m.AppendMessage(ctx, conversation.ID, message); err != nil {
		return nil, err
	}
	return message, nil
}

// OpenAudio streams the audio of a message to a member of its conversation
func (m *Manager) OpenAudio(ctx context.Context, username, messageID string) (io.ReadCloser, *models.Message, error) {
	user, err := m.user(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	message, err := m.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if message.ContentType != models.ContentAudio {
		return nil, nil, errors.Wrap(errors.ErrInvalidInput, "message %s has no audio", messageID)
	}
	var member bool
	if message.IsGroupMsg {
		group, err := m.store.GetGroup(ctx, message.GroupID)
		if err != nil {
			return nil, nil, err
		}
		member = group.IsMember(user.ID)
	} else {
		conversation, err := m.store.GetPrivateConversation(ctx, message.PrivateConversationID)
		if err != nil {
			return nil, nil, err
		}
		member = conversation.HasMember(user.ID)
	}
	if !member {
		return nil, nil, errors.Wrap(errors.ErrForbidden, "%q cannot read message %s", username, messageID)
	}
	object, err := m.objects.GetObject(ctx, message.Content)
	if err != nil {
		return nil, nil, err
	}
	return object, message, nil
}

// PreviousMessages returns the history shared by current and peer grouped by day
func (m *Manager) PreviousMessages(ctx context.Context, currentName, peerName string) ([]Day, error) {
	_, _, conversation, err := m.privatePair(ctx, currentName, peerName)
	if err != nil {
		return nil, err
	}
	messages, err := m.store.GetMessages(ctx, conversation.MessageList)
	if err != nil {
		return nil, err
	}
	return GroupByDay(messages, m.location), nil
}
