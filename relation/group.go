package relation

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"context"

	"github.com/sirupsen/logrus"
)

// SendGroupJoinRequest files a join request in the inbox of the group's admin
// and returns the admin's username
func (e *Engine) SendGroupJoinRequest(ctx context.Context, senderName, groupName string) (string, error) {
	sender, err := e.user(ctx, senderName)
	if err != nil {
		return "", err
	}
	group, err := e.group(ctx, groupName)
	if err != nil {
		return "", err
	}
	if group.Admin == sender.ID {
		return "", errors.Wrap(errors.ErrSelfRequest, "%q administers %q", senderName, groupName)
	}
	if group.IsMember(sender.ID) {
		return "", errors.Wrap(errors.ErrAlreadyExists, "%q already joined %q", senderName, groupName)
	}
	if sender.HasSentGroupRequest(groupName) {
		return "", errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", groupName)
	}
	admin, err := e.store.GetUser(ctx, group.Admin)
	if err != nil {
		return "", err
	}
	inbox, err := e.notification(ctx, admin.ID)
	if err != nil {
		return "", err
	}
	if inbox.HasGroupRequest(groupName, sender.ID) {
		return "", errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", groupName)
	}

	err = runSteps(ctx, "send_group_request", []step{
		{"outbox_add", func(ctx context.Context) error {
			_, err := e.store.UpdateUser(ctx, sender.ID, func(u *models.User) error {
				if !u.AddSentGroupRequest(groupName) {
					return errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", groupName)
				}
				return nil
			})
			return err
		}},
		{"admin_notification", func(ctx context.Context) error {
			_, _, err := e.store.FindOrCreateNotification(ctx, admin.ID)
			return err
		}},
		{"inbox_add", func(ctx context.Context) error {
			_, err := e.store.UpdateNotification(ctx, admin.ID, func(n *models.Notification) error {
				if !n.AddGroupRequest(groupName, sender.ID) {
					return errors.Wrap(errors.ErrAlreadyExists, "request to %q already pending", groupName)
				}
				return nil
			})
			return err
		}},
	})
	if err != nil {
		return "", err
	}
	global.Logger.WithFields(logrus.Fields{
		"from":  senderName,
		"group": groupName,
	}).Info("group join request sent")
	return admin.Username, nil
}

func (e *Engine) pendingGroup(ctx context.Context, adminName, requesterName, groupName string) (*models.User, *models.User, *models.Group, error) {
	admin, err := e.user(ctx, adminName)
	if err != nil {
		return nil, nil, nil, err
	}
	requester, err := e.user(ctx, requesterName)
	if err != nil {
		return nil, nil, nil, err
	}
	group, err := e.group(ctx, groupName)
	if err != nil {
		return nil, nil, nil, err
	}
	if group.Admin != admin.ID {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "%q does not administer %q", adminName, groupName)
	}
	inbox, err := e.notification(ctx, admin.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !inbox.HasGroupRequest(groupName, requester.ID) {
		return nil, nil, nil, errors.Wrap(errors.ErrNotFound, "no pending request from %q for %q", requesterName, groupName)
	}
	return admin, requester, group, nil
}

func (e *Engine) removeInboxGroup(ctx context.Context, admin, requester *models.User, group *models.Group) error {
	_, err := e.store.UpdateNotification(ctx, admin.ID, func(n *models.Notification) error {
		if !n.RemoveGroupRequest(group.Name, requester.ID) {
			return errors.Wrap(errors.ErrNotFound, "no pending request from %q for %q", requester.Username, group.Name)
		}
		return nil
	})
	return err
}

func (e *Engine) removeOutboxGroup(ctx context.Context, requester *models.User, group *models.Group) error {
	return e.updateUser(ctx, requester.ID, func(u *models.User) bool {
		return u.RemoveSentGroupRequest(group.Name)
	})
}

// AcceptGroupJoinRequest adds requester to the group. Only the admin may accept.
func (e *Engine) AcceptGroupJoinRequest(ctx context.Context, adminName, requesterName, groupName string) (*models.Group, error) {
	admin, requester, group, err := e.pendingGroup(ctx, adminName, requesterName, groupName)
	if err != nil {
		return nil, err
	}
	err = runSteps(ctx, "accept_group_request", []step{
		{"inbox_remove", func(ctx context.Context) error {
			return e.removeInboxGroup(ctx, admin, requester, group)
		}},
		{"group_members", func(ctx context.Context) error {
			g, err := e.store.UpdateGroup(ctx, group.ID, func(g *models.Group) error {
				return changed(g.AddMember(requester.ID))
			})
			if err == nil {
				group = g
			}
			return err
		}},
		{"user_groups", func(ctx context.Context) error {
			return e.updateUser(ctx, requester.ID, func(u *models.User) bool {
				return u.JoinGroup(group.ID, group.Name)
			})
		}},
		{"outbox_remove", func(ctx context.Context) error {
			return e.removeOutboxGroup(ctx, requester, group)
		}},
		{"accepted_history", func(ctx context.Context) error {
			return e.updateNotification(ctx, requester.ID, func(n *models.Notification) error {
				n.AddAcceptedGroup(group.ID)
				return nil
			})
		}},
	})
	if err != nil {
		return nil, err
	}
	global.Logger.WithFields(logrus.Fields{
		"group":     groupName,
		"requester": requesterName,
	}).Info("group join request accepted")
	return group, nil
}

// DeclineGroupJoinRequest drops the pending join request. Only the admin may decline.
func (e *Engine) DeclineGroupJoinRequest(ctx context.Context, adminName, requesterName, groupName string) error {
	admin, requester, group, err := e.pendingGroup(ctx, adminName, requesterName, groupName)
	if err != nil {
		return err
	}
	return runSteps(ctx, "decline_group_request", []step{
		{"inbox_remove", func(ctx context.Context) error {
			return e.removeInboxGroup(ctx, admin, requester, group)
		}},
		{"declined_history", func(ctx context.Context) error {
			return e.updateNotification(ctx, requester.ID, func(n *models.Notification) error {
				n.AddDeclinedGroup(group.ID)
				return nil
			})
		}},
		{"outbox_remove", func(ctx context.Context) error {
			return e.removeOutboxGroup(ctx, requester, group)
		}},
	})
}
