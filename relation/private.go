package relation

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"

	"github.com/sirupsen/logrus"
)

// SendPrivateMessageRequest records a pending request from sender to receiver
func (e *Engine) SendPrivateMessageRequest(ctx context.Context, senderName, receiverName string) error {
	if senderName == receiverName {
		return errors.Wrap(errors.ErrSelfRequest, "cannot request yourself")
	}
	sender, err := e.user(ctx, senderName)
	if err != nil {
		return err
	}
	receiver, err := e.user(ctx, receiverName)
	if err != nil {
		return err
	}
	if sender.IsFriend(receiver.ID) {
		return errors.Wrap(errors.ErrAlreadyExists, "already connected to %q", receiverName)
	}
	if sender.HasSentPrivateRequest(receiver.Username) {
		return errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", receiverName)
	}
	inbox, err := e.notification(ctx, receiver.ID)
	if err != nil {
		return err
	}
	if inbox.HasPrivateRequestFrom(sender.ID) {
		return errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", receiverName)
	}

	err = runSteps(ctx, "send_private_request", []step{
		{"outbox_add", func(ctx context.Context) error {
			_, err := e.store.UpdateUser(ctx, sender.ID, func(u *models.User) error {
				if !u.AddSentPrivateRequest(receiver.Username) {
					return errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", receiverName)
				}
				return nil
			})
			return err
		}},
		{"notification", func(ctx context.Context) error {
			_, _, err := e.store.FindOrCreateNotification(ctx, receiver.ID)
			return err
		}},
		{"inbox_add", func(ctx context.Context) error {
			_, err := e.store.UpdateNotification(ctx, receiver.ID, func(n *models.Notification) error {
				if !n.AddPrivateRequest(sender.ID) {
					return errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", receiverName)
				}
				return nil
			})
			return err
		}},
	})
	if err != nil {
		return err
	}
	global.Logger.WithFields(logrus.Fields{
		"from": senderName,
		"to":   receiverName,
	}).Info("private message request sent")
	return nil
}

func (e *Engine) pendingPrivate(ctx context.Context, currentName, requesterName string) (*models.User, *models.User, error) {
	current, err := e.user(ctx, currentName)
	if err != nil {
		return nil, nil, err
	}
	requester, err := e.user(ctx, requesterName)
	if err != nil {
		return nil, nil, err
	}
	inbox, err := e.notification(ctx, current.ID)
	if err != nil {
		return nil, nil, err
	}
	if !inbox.HasPrivateRequestFrom(requester.ID) {
		return nil, nil, errors.Wrap(errors.ErrNotFound, "no pending request from %q", requesterName)
	}
	return current, requester, nil
}

func (e *Engine) removeInboxPrivate(ctx context.Context, current, requester *models.User) error {
	_, err := e.store.UpdateNotification(ctx, current.ID, func(n *models.Notification) error {
		if !n.RemovePrivateRequest(requester.ID) {
			return errors.Wrap(errors.ErrNotFound, "no pending request from %q", requester.Username)
		}
		return nil
	})
	return err
}

func (e *Engine) removeOutboxPrivate(ctx context.Context, current, requester *models.User) error {
	return e.updateUser(ctx, requester.ID, func(u *models.User) bool {
		return u.RemoveSentPrivateRequest(current.Username)
	})
}

// AcceptPrivateMessageRequest connects current and requester and returns the
// id of their conversation
func (e *Engine) AcceptPrivateMessageRequest(ctx context.Context, currentName, requesterName string) (string, error) {
	current, requester, err := e.pendingPrivate(ctx, currentName, requesterName)
	if err != nil {
		return "", err
	}

	var conversation *models.PrivateConversation
	err = runSteps(ctx, "accept_private_request", []step{
		{"friend_list_current", func(ctx context.Context) error {
			return e.updateUser(ctx, current.ID, func(u *models.User) bool { return u.AddFriend(requester.ID) })
		}},
		{"friend_list_requester", func(ctx context.Context) error {
			return e.updateUser(ctx, requester.ID, func(u *models.User) bool { return u.AddFriend(current.ID) })
		}},
		{"inbox_remove", func(ctx context.Context) error {
			return e.removeInboxPrivate(ctx, current, requester)
		}},
		{"accepted_history", func(ctx context.Context) error {
			return e.updateNotification(ctx, requester.ID, func(n *models.Notification) error {
				n.AddAcceptedPrivate(current.ID)
				return nil
			})
		}},
		{"outbox_remove", func(ctx context.Context) error {
			return e.removeOutboxPrivate(ctx, current, requester)
		}},
		{"conversation", func(ctx context.Context) error {
			c, err := e.conversations.GetOrCreatePrivateConversation(ctx, current.ID, requester.ID)
			conversation = c
			return err
		}},
		{"chat_list_current", func(ctx context.Context) error {
			return e.updateUser(ctx, current.ID, func(u *models.User) bool {
				return u.AddPrivateChat(requester.Username, conversation.ID)
			})
		}},
		{"chat_list_requester", func(ctx context.Context) error {
			return e.updateUser(ctx, requester.ID, func(u *models.User) bool {
				return u.AddPrivateChat(current.Username, conversation.ID)
			})
		}},
		{"sort_list_current", func(ctx context.Context) error {
			return e.updateUser(ctx, current.ID, func(u *models.User) bool {
				return u.AddToSortList(models.AllConnectedUsers, requester.ID)
			})
		}},
		{"sort_list_requester", func(ctx context.Context) error {
			return e.updateUser(ctx, requester.ID, func(u *models.User) bool {
				return u.AddToSortList(models.AllConnectedUsers, current.ID)
			})
		}},
	})
	if err != nil {
		return "", err
	}
	global.Logger.WithFields(logrus.Fields{
		"current":      currentName,
		"requester":    requesterName,
		"conversation": conversation.ID,
	}).Info("private message request accepted")
	return conversation.ID, nil
}

// DeclinePrivateMessageRequest drops the pending request of requester
func (e *Engine) DeclinePrivateMessageRequest(ctx context.Context, currentName, requesterName string) error {
	current, requester, err := e.pendingPrivate(ctx, currentName, requesterName)
	if err != nil {
		return err
	}
	return runSteps(ctx, "decline_private_request", []step{
		{"inbox_remove", func(ctx context.Context) error {
			return e.removeInboxPrivate(ctx, current, requester)
		}},
		{"declined_history", func(ctx context.Context) error {
			return e.updateNotification(ctx, requester.ID, func(n *models.Notification) error {
				n.AddDeclinedPrivate(current.ID)
				return nil
			})
		}},
		{"outbox_remove", func(ctx context.Context) error {
			return e.removeOutboxPrivate(ctx, current, requester)
		}},
	})
}

// Unfriend removes every link between current and other, including their
// conversation and its messages
func (e *Engine) Unfriend(ctx context.Context, currentName, otherName string) error {
	current, err := e.user(ctx, currentName)
	if err != nil {
		return err
	}
	other, err := e.user(ctx, otherName)
	if err != nil {
		return err
	}
	if !current.IsFriend(other.ID) {
		return errors.Wrap(errors.ErrNotFound, "%q is not connected to %q", otherName, currentName)
	}

	detach := func(u *models.User, peer *models.User) bool {
		friend := u.RemoveFriend(peer.ID)
		_, chat := u.RemovePrivateChat(peer.Username)
		sorted := u.RemoveFromSortLists(peer.ID)
		return friend || chat || sorted
	}
	return runSteps(ctx, "unfriend", []step{
		{"users", func(ctx context.Context) error {
			if err := e.updateUser(ctx, current.ID, func(u *models.User) bool { return detach(u, other) }); err != nil {
				return err
			}
			return e.updateUser(ctx, other.ID, func(u *models.User) bool { return detach(u, current) })
		}},
		{"conversation", func(ctx context.Context) error {
			conversation, err := e.store.FindPrivateConversation(ctx, current.ID, other.ID)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return e.conversations.DeleteConversation(ctx, conversation.ID)
		}},
	})
}
