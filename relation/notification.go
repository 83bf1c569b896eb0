package relation

import (
	"SOCIAL_server/errors"
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"time"

	"github.com/samber/lo"
)

// DateFormat renders notification dates, e.g. 24/03/24 - 09:15 PM
const DateFormat = "02/01/06 - 03:04 PM"

// Item is one rendered notification entry
type Item struct {
	ID        string
	Name      string
	Image     string
	GroupName string `json:",omitempty"`
	Date      string
	IsSeen    bool
}

// View is the rendered notification record. Indexes of each list are the
// ones DeleteNotification expects.
type View struct {
	ReceivedPrivateMessageRequest     []Item `json:"receivedPrivateMessageRequest"`
	AcceptedSentPrivateMessageRequest []Item `json:"acceptedSentPrivateMessageRequest"`
	DeclinedSentPrivateMessageRequest []Item `json:"declinedSentPrivateMessageRequest"`
	ReceivedGroupJoinRequestAsAdmin   []Item `json:"receivedGroupJoinRequestAsAdmin"`
	AcceptedSentGroupMessageRequest   []Item `json:"acceptedSentGroupMessageRequest"`
	DeclinedSentGroupMessageRequest   []Item `json:"declinedSentGroupMessageRequest"`
	Unseen                            int
}

func formatDate(t time.Time) string {
	return t.In(global.Location).Format(DateFormat)
}

// renderer resolves referenced users and groups once per render
type renderer struct {
	ctx    context.Context
	store  store.Store
	users  map[string]*models.User
	groups map[string]*models.Group
	unseen int
}

func (r *renderer) user(entry models.UserEntry) (Item, error) {
	if !entry.Seen {
		r.unseen++
	}
	u, ok := r.users[entry.UserID]
	if !ok {
		var err error
		if u, err = r.store.GetUser(r.ctx, entry.UserID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return Item{}, err
		}
		r.users[entry.UserID] = u
	}
	item := Item{ID: entry.UserID, Date: formatDate(entry.CreatedAt), IsSeen: entry.Seen}
	if u != nil {
		item.Name, item.Image = u.Username, u.ProfileImage
	}
	return item, nil
}

func (r *renderer) group(entry models.GroupEntry) (Item, error) {
	if !entry.Seen {
		r.unseen++
	}
	g, ok := r.groups[entry.GroupID]
	if !ok {
		var err error
		if g, err = r.store.GetGroup(r.ctx, entry.GroupID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return Item{}, err
		}
		r.groups[entry.GroupID] = g
	}
	item := Item{ID: entry.GroupID, Date: formatDate(entry.CreatedAt), IsSeen: entry.Seen}
	if g != nil {
		item.Name, item.Image, item.GroupName = g.Name, g.Image, g.Name
	}
	return item, nil
}

func (r *renderer) userItems(entries []models.UserEntry) ([]Item, error) {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		item, err := r.user(entry)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *renderer) groupItems(entries []models.GroupEntry) ([]Item, error) {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		item, err := r.group(entry)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Notifications renders the record of username. Entries whose target was
// deleted keep their slot with an empty name.
func (e *Engine) Notifications(ctx context.Context, username string) (*View, error) {
	user, err := e.user(ctx, username)
	if err != nil {
		return nil, err
	}
	n, err := e.notification(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	r := &renderer{
		ctx:    ctx,
		store:  e.store,
		users:  map[string]*models.User{},
		groups: map[string]*models.Group{},
	}
	view := new(View)
	if view.ReceivedPrivateMessageRequest, err = r.userItems(n.ReceivedPrivateMessageRequest); err != nil {
		return nil, err
	}
	if view.AcceptedSentPrivateMessageRequest, err = r.userItems(n.AcceptedSentPrivateMessageRequest); err != nil {
		return nil, err
	}
	if view.DeclinedSentPrivateMessageRequest, err = r.userItems(n.DeclinedSentPrivateMessageRequest); err != nil {
		return nil, err
	}
	view.ReceivedGroupJoinRequestAsAdmin = []Item{}
	for _, grouping := range n.ReceivedGroupJoinRequestAsAdmin {
		items, err := r.userItems(grouping.RequestedUsers)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].GroupName = grouping.GroupName
		}
		view.ReceivedGroupJoinRequestAsAdmin = append(view.ReceivedGroupJoinRequestAsAdmin, items...)
	}
	if view.AcceptedSentGroupMessageRequest, err = r.groupItems(n.AcceptedSentGroupJoinRequest); err != nil {
		return nil, err
	}
	if view.DeclinedSentGroupMessageRequest, err = r.groupItems(n.DeclinedSentGroupJoinRequest); err != nil {
		return nil, err
	}
	view.Unseen = r.unseen
	return view, nil
}

// MarkAllSeen flags every entry of the record as seen, nested requesters included
func (e *Engine) MarkAllSeen(ctx context.Context, username string) (*models.Notification, error) {
	user, err := e.user(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, _, err = e.store.FindOrCreateNotification(ctx, user.ID); err != nil {
		return nil, err
	}
	return e.store.UpdateNotification(ctx, user.ID, func(n *models.Notification) error {
		return changed(n.MarkAllSeen() > 0)
	})
}

// DeleteNotification removes the entry at index of the named sub-list.
// A stale index fails with ErrIndexOutOfRange, the caller refetches.
// Deleting a received request also withdraws it from the requester's outbox.
func (e *Engine) DeleteNotification(ctx context.Context, username, subList string, index int) error {
	if !lo.Contains(models.SubLists, subList) {
		return errors.Wrap(errors.ErrInvalidInput, "unknown notification list %q", subList)
	}
	user, err := e.user(ctx, username)
	if err != nil {
		return err
	}

	var requesterID, groupName string
	return runSteps(ctx, "delete_notification", []step{
		{"entry_remove", func(ctx context.Context) error {
			_, err := e.store.UpdateNotification(ctx, user.ID, func(n *models.Notification) error {
				requesterID, groupName = "", ""
				size, ok := n.Len(subList)
				if !ok {
					return errors.Wrap(errors.ErrInvalidInput, "unknown notification list %q", subList)
				}
				if index < 0 || index >= size {
					return errors.Wrap(errors.ErrIndexOutOfRange, "index %d of %q (%d entries)", index, subList, size)
				}
				requesterID, groupName, _ = n.RequesterAt(subList, index)
				n.RemoveAt(subList, index)
				return nil
			})
			if errors.Is(err, store.ErrNotFound) {
				return errors.Wrap(errors.ErrIndexOutOfRange, "index %d of %q (no notifications)", index, subList)
			}
			return err
		}},
		{"outbox_remove", func(ctx context.Context) error {
			if requesterID == "" {
				return nil
			}
			err := e.updateUser(ctx, requesterID, func(u *models.User) bool {
				if groupName != "" {
					return u.RemoveSentGroupRequest(groupName)
				}
				return u.RemoveSentPrivateRequest(user.Username)
			})
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}},
	})
}
