package services

import (
	"SOCIAL_server/account"
	"SOCIAL_server/conversation"
	"SOCIAL_server/global"
	"SOCIAL_server/group"
	"SOCIAL_server/models"
	"SOCIAL_server/relation"
	"SOCIAL_server/relay"
	"SOCIAL_server/tasks"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// relayTimeout bounds a push to the relay from a request
const relayTimeout = 2 * time.Second

// Services holds the domain services the handlers drive
type Services struct {
	Accounts      *account.Service
	Groups        *group.Service
	Engine        *relation.Engine
	Conversations *conversation.Manager
	Tasks         *tasks.Service
	Relay         *relay.Relay
}

// notify pushes a notification to recipient if online. Failures are only logged.
func (s *Services) notify(recipient string, payload relay.Notification) {
	ctx, cancel := context.WithTimeout(global.Context, relayTimeout)
	defer cancel()
	delivered, err := s.Relay.Notify(ctx, recipient, payload)
	if err != nil {
		global.InternalLogger.WithFields(logrus.Fields{
			"recipient": recipient,
			"type":      payload.Type,
		}).Error("relay_notify: " + err.Error())
		return
	}
	global.Logger.WithFields(logrus.Fields{
		"recipient": recipient,
		"type":      payload.Type,
		"delivered": delivered,
	}).Debug("notification pushed")
}

// push relays a stored message to the sessions watching its conversation
func (s *Services) push(message *models.Message) {
	ctx, cancel := context.WithTimeout(global.Context, relayTimeout)
	defer cancel()
	var err error
	if message.IsGroupMsg {
		err = s.Relay.GroupMessage(ctx, message)
	} else {
		err = s.Relay.PrivateMessage(ctx, message)
	}
	if err != nil {
		global.InternalLogger.WithField("message", message.ID).Error("relay_message: " + err.Error())
	}
}
