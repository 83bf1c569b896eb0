package relation

import (
	"SOCIAL_server/conversation"
	"SOCIAL_server/errors"
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"SOCIAL_server/store/badgerstore"
	"context"
	Errors "errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

var errDiskFull = Errors.New("disk full")

// flakyStore fails notification updates of one user
type flakyStore struct {
	store.Store
	failUser string
}

func (f *flakyStore) UpdateNotification(ctx context.Context, userID string, fn func(*models.Notification) error) (*models.Notification, error) {
	if userID == f.failUser {
		return nil, errDiskFull
	}
	return f.Store.UpdateNotification(ctx, userID, fn)
}

type fixture struct {
	engine        *Engine
	store         store.Store
	conversations *conversation.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	s := badgerstore.New(db)
	t.Cleanup(func() { _ = s.Close() })
	conversations := conversation.New(s, nil, time.UTC)
	return &fixture{engine: New(s, conversations), store: s, conversations: conversations}
}

func (f *fixture) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := models.NewUser(name, "hash", "", "", "")
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) reload(t *testing.T, u *models.User) *models.User {
	t.Helper()
	got, err := f.store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) notification(t *testing.T, u *models.User) *models.Notification {
	t.Helper()
	n, _, err := f.store.FindOrCreateNotification(context.Background(), u.ID)
	require.NoError(t, err)
	return n
}

func TestSendPrivateMessageRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("records outbox and inbox", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		bob := f.createUser(t, "bob")

		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))

		req.Equal([]string{"bob"}, f.reload(t, alice).SentPrivateMessageRequest)
		inbox := f.notification(t, bob).ReceivedPrivateMessageRequest
		req.Len(inbox, 1)
		req.Equal(alice.ID, inbox[0].UserID)
		req.False(inbox[0].Seen)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		f.createUser(t, "alice")
		f.createUser(t, "bob")

		req.ErrorIs(f.engine.SendPrivateMessageRequest(ctx, "alice", "alice"), errors.ErrSelfRequest)
		req.ErrorIs(f.engine.SendPrivateMessageRequest(ctx, "alice", "nobody"), errors.ErrNotFound)
		req.ErrorIs(f.engine.SendPrivateMessageRequest(ctx, "nobody", "alice"), errors.ErrNotFound)

		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))
		req.ErrorIs(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"), errors.ErrAlreadyExists)
	})

	t.Run("rejects when the receiver inbox already lists the sender", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		_, err := f.store.UpdateNotification(ctx, f.notification(t, bob).UserID, func(n *models.Notification) error {
			n.AddPrivateRequest(alice.ID)
			return nil
		})
		req.NoError(err)

		req.ErrorIs(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"), errors.ErrAlreadyExists)
		req.Empty(f.reload(t, alice).SentPrivateMessageRequest)
	})

	t.Run("failed inbox write leaves the outbox entry", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		f.engine.store = &flakyStore{Store: f.store, failUser: bob.ID}

		err := f.engine.SendPrivateMessageRequest(ctx, "alice", "bob")
		var step *errors.StepError
		req.ErrorAs(err, &step)
		req.Equal("inbox_add", step.Step)
		req.ErrorIs(err, errDiskFull)
		req.Equal([]string{"bob"}, f.reload(t, alice).SentPrivateMessageRequest, "outbox entry is orphaned")
		req.Empty(f.notification(t, bob).ReceivedPrivateMessageRequest)
	})
}

func TestAcceptPrivateMessageRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("connects both users", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))

		convID, err := f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice")
		req.NoError(err)

		alice, bob = f.reload(t, alice), f.reload(t, bob)
		req.Equal([]string{bob.ID}, alice.FriendList)
		req.Equal([]string{alice.ID}, bob.FriendList)
		req.Equal([]models.PrivateChat{{FriendUsername: "bob", ConversationID: convID}}, alice.PrivateChatList)
		req.Equal([]models.PrivateChat{{FriendUsername: "alice", ConversationID: convID}}, bob.PrivateChatList)
		req.Empty(alice.SentPrivateMessageRequest)

		connected, ok := alice.SortList(models.AllConnectedUsers)
		req.True(ok)
		req.Equal([]string{bob.ID}, connected.Members)

		req.Empty(f.notification(t, bob).ReceivedPrivateMessageRequest)
		accepted := f.notification(t, alice).AcceptedSentPrivateMessageRequest
		req.Len(accepted, 1)
		req.Equal(bob.ID, accepted[0].UserID)

		conv, err := f.store.FindPrivateConversation(ctx, alice.ID, bob.ID)
		req.NoError(err)
		req.Equal(convID, conv.ID)
	})

	t.Run("reuses an existing conversation", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		existing, err := f.conversations.GetOrCreatePrivateConversation(ctx, bob.ID, alice.ID)
		req.NoError(err)
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))

		convID, err := f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice")
		req.NoError(err)
		req.Equal(existing.ID, convID)
	})

	t.Run("absent request", func(t *testing.T) {
		f := newFixture(t)
		f.createUser(t, "alice")
		f.createUser(t, "bob")

		_, err := f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice")
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("failing step is named and earlier steps stay", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))
		f.engine.store = &flakyStore{Store: f.store, failUser: alice.ID}

		_, err := f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice")
		var step *errors.StepError
		req.ErrorAs(err, &step)
		req.Equal("accept_private_request", step.Op)
		req.Equal("accepted_history", step.Step)

		req.True(f.reload(t, bob).IsFriend(alice.ID))
		req.Empty(f.notification(t, bob).ReceivedPrivateMessageRequest)
		req.Equal([]string{"bob"}, f.reload(t, alice).SentPrivateMessageRequest, "outbox step never ran")
	})

	t.Run("concurrent accepts stay duplicate free", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice"); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		req.Equal(1, succeeded)
		alice, bob = f.reload(t, alice), f.reload(t, bob)
		req.Equal([]string{bob.ID}, alice.FriendList)
		req.Equal([]string{alice.ID}, bob.FriendList)
		req.Len(alice.PrivateChatList, 1)
		req.Len(bob.PrivateChatList, 1)
		req.Len(f.notification(t, alice).AcceptedSentPrivateMessageRequest, 1)
	})
}

func TestDeclinePrivateMessageRequest(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))

	req.NoError(f.engine.DeclinePrivateMessageRequest(ctx, "bob", "alice"))

	req.Empty(f.notification(t, bob).ReceivedPrivateMessageRequest)
	declined := f.notification(t, alice).DeclinedSentPrivateMessageRequest
	req.Len(declined, 1)
	req.Equal(bob.ID, declined[0].UserID)
	req.False(declined[0].CreatedAt.IsZero())
	req.Empty(f.reload(t, alice).SentPrivateMessageRequest)
	req.Empty(f.reload(t, bob).FriendList)

	req.ErrorIs(f.engine.DeclinePrivateMessageRequest(ctx, "bob", "alice"), errors.ErrNotFound)
	req.Len(f.notification(t, alice).DeclinedSentPrivateMessageRequest, 1)

	req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"), "a declined request can be sent again")
}

func TestUnfriend(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))
	convID, err := f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice")
	req.NoError(err)

	const n = 3
	var ids []string
	for i := 0; i < n; i++ {
		msg, err := f.conversations.SendPrivateMessage(ctx, "alice", "bob", "hi")
		req.NoError(err)
		ids = append(ids, msg.ID)
	}
	_, err = f.store.UpdateUser(ctx, alice.ID, func(u *models.User) error {
		u.AddToSortList("Family", bob.ID)
		return nil
	})
	req.NoError(err)

	req.NoError(f.engine.Unfriend(ctx, "alice", "bob"))

	alice, bob = f.reload(t, alice), f.reload(t, bob)
	req.Empty(alice.FriendList)
	req.Empty(bob.FriendList)
	req.Empty(alice.PrivateChatList)
	req.Empty(bob.PrivateChatList)
	for _, list := range alice.ChatSortList {
		req.NotContains(list.Members, bob.ID)
	}

	_, err = f.store.GetPrivateConversation(ctx, convID)
	req.ErrorIs(err, store.ErrNotFound)
	messages, err := f.store.GetMessages(ctx, ids)
	req.NoError(err)
	req.Empty(messages)

	req.ErrorIs(f.engine.Unfriend(ctx, "alice", "bob"), errors.ErrNotFound)
}

func TestGroupJoinRequests(t *testing.T) {
	ctx := context.Background()

	setupGroup := func(t *testing.T) (*fixture, *models.User, *models.Group) {
		f := newFixture(t)
		admin := f.createUser(t, "admin")
		group := models.NewGroup("gophers", admin.ID, "")
		require.NoError(t, f.store.CreateGroup(ctx, group))
		return f, admin, group
	}

	t.Run("grouping disappears with its last requester", func(t *testing.T) {
		req := require.New(t)
		f, admin, group := setupGroup(t)
		u1 := f.createUser(t, "u1")
		u2 := f.createUser(t, "u2")

		adminName, err := f.engine.SendGroupJoinRequest(ctx, "u1", "gophers")
		req.NoError(err)
		req.Equal("admin", adminName)
		_, err = f.engine.SendGroupJoinRequest(ctx, "u2", "gophers")
		req.NoError(err)

		inbox := f.notification(t, admin).ReceivedGroupJoinRequestAsAdmin
		req.Len(inbox, 1)
		req.Len(inbox[0].RequestedUsers, 2)

		joined, err := f.engine.AcceptGroupJoinRequest(ctx, "admin", "u1", "gophers")
		req.NoError(err)
		req.True(joined.IsMember(u1.ID))
		req.True(f.notification(t, admin).HasGroupRequest("gophers", u2.ID))

		req.NoError(f.engine.DeclineGroupJoinRequest(ctx, "admin", "u2", "gophers"))
		_, ok := f.notification(t, admin).GroupRequests("gophers")
		req.False(ok)

		u1 = f.reload(t, u1)
		req.Equal([]string{group.ID}, u1.JoinedGroupList)
		req.Equal([]models.GroupChat{{GroupName: "gophers", GroupID: group.ID}}, u1.GroupChatList)
		req.Empty(u1.SentGroupJoinRequest)
		req.Len(f.notification(t, u1).AcceptedSentGroupJoinRequest, 1)

		declined := f.notification(t, u2).DeclinedSentGroupJoinRequest
		req.Len(declined, 1)
		req.Equal(group.ID, declined[0].GroupID)
		req.Empty(f.reload(t, u2).SentGroupJoinRequest)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		req := require.New(t)
		f, _, _ := setupGroup(t)
		f.createUser(t, "u1")
		f.createUser(t, "eve")

		_, err := f.engine.SendGroupJoinRequest(ctx, "admin", "gophers")
		req.ErrorIs(err, errors.ErrSelfRequest)
		_, err = f.engine.SendGroupJoinRequest(ctx, "u1", "rustaceans")
		req.ErrorIs(err, errors.ErrNotFound)

		_, err = f.engine.SendGroupJoinRequest(ctx, "u1", "gophers")
		req.NoError(err)
		_, err = f.engine.SendGroupJoinRequest(ctx, "u1", "gophers")
		req.ErrorIs(err, errors.ErrAlreadyExists)

		_, err = f.engine.AcceptGroupJoinRequest(ctx, "eve", "u1", "gophers")
		req.ErrorIs(err, errors.ErrUnauthorized)
		req.ErrorIs(f.engine.DeclineGroupJoinRequest(ctx, "eve", "u1", "gophers"), errors.ErrUnauthorized)

		_, err = f.engine.AcceptGroupJoinRequest(ctx, "admin", "eve", "gophers")
		req.ErrorIs(err, errors.ErrNotFound)

		_, err = f.engine.AcceptGroupJoinRequest(ctx, "admin", "u1", "gophers")
		req.NoError(err)
		_, err = f.engine.SendGroupJoinRequest(ctx, "u1", "gophers")
		req.ErrorIs(err, errors.ErrAlreadyExists, "members cannot request again")
	})

	t.Run("failed inbox write names its step", func(t *testing.T) {
		req := require.New(t)
		f, admin, _ := setupGroup(t)
		u1 := f.createUser(t, "u1")
		f.engine.store = &flakyStore{Store: f.store, failUser: admin.ID}

		_, err := f.engine.SendGroupJoinRequest(ctx, "u1", "gophers")
		var step *errors.StepError
		req.ErrorAs(err, &step)
		req.Equal("send_group_request", step.Op)
		req.Equal("inbox_add", step.Step)
		req.ErrorIs(err, errDiskFull)

		req.Equal([]string{"gophers"}, f.reload(t, u1).SentGroupJoinRequest, "outbox entry is orphaned")
		req.Empty(f.notification(t, admin).ReceivedGroupJoinRequestAsAdmin)
	})
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("mark all seen", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		f.createUser(t, "carol")
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "carol", "bob"))

		view, err := f.engine.Notifications(ctx, "bob")
		req.NoError(err)
		req.Equal(2, view.Unseen)
		req.Equal("alice", view.ReceivedPrivateMessageRequest[0].Name)

		n, err := f.engine.MarkAllSeen(ctx, "bob")
		req.NoError(err)
		for _, e := range n.ReceivedPrivateMessageRequest {
			req.True(e.Seen)
		}

		_, err = f.engine.MarkAllSeen(ctx, "bob")
		req.NoError(err)
		req.True(f.notification(t, bob).ReceivedPrivateMessageRequest[0].Seen)

		view, err = f.engine.Notifications(ctx, "bob")
		req.NoError(err)
		req.Zero(view.Unseen)
	})

	t.Run("delete by index", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		f.createUser(t, "alice")
		bob := f.createUser(t, "bob")
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))

		req.ErrorIs(f.engine.DeleteNotification(ctx, "bob", "unknown", 0), errors.ErrInvalidInput)
		req.ErrorIs(f.engine.DeleteNotification(ctx, "bob", models.ReceivedPrivateMessageRequest, 1), errors.ErrIndexOutOfRange)
		req.ErrorIs(f.engine.DeleteNotification(ctx, "bob", models.ReceivedPrivateMessageRequest, -1), errors.ErrIndexOutOfRange)

		req.NoError(f.engine.DeleteNotification(ctx, "bob", models.ReceivedPrivateMessageRequest, 0))
		req.Empty(f.notification(t, bob).ReceivedPrivateMessageRequest)
		req.ErrorIs(f.engine.DeleteNotification(ctx, "bob", models.ReceivedPrivateMessageRequest, 0), errors.ErrIndexOutOfRange)
	})

	t.Run("deleting a received private request withdraws it", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		f.createUser(t, "bob")
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))

		req.NoError(f.engine.DeleteNotification(ctx, "bob", models.ReceivedPrivateMessageRequest, 0))
		req.Empty(f.reload(t, alice).SentPrivateMessageRequest)

		_, err := f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice")
		req.ErrorIs(err, errors.ErrNotFound)
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"), "request can be sent again")
		_, err = f.engine.AcceptPrivateMessageRequest(ctx, "bob", "alice")
		req.NoError(err)
	})

	t.Run("deleting a received group request withdraws it", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		admin := f.createUser(t, "admin")
		u1 := f.createUser(t, "u1")
		u2 := f.createUser(t, "u2")
		req.NoError(f.store.CreateGroup(ctx, models.NewGroup("gophers", admin.ID, "")))
		req.NoError(f.store.CreateGroup(ctx, models.NewGroup("rustaceans", admin.ID, "")))
		_, err := f.engine.SendGroupJoinRequest(ctx, "u1", "gophers")
		req.NoError(err)
		_, err = f.engine.SendGroupJoinRequest(ctx, "u2", "rustaceans")
		req.NoError(err)

		req.NoError(f.engine.DeleteNotification(ctx, "admin", models.ReceivedGroupJoinRequestAsAdmin, 1))
		req.Empty(f.reload(t, u2).SentGroupJoinRequest)
		req.Equal([]string{"gophers"}, f.reload(t, u1).SentGroupJoinRequest)

		_, err = f.engine.SendGroupJoinRequest(ctx, "u2", "rustaceans")
		req.NoError(err, "request can be sent again")
		_, err = f.engine.AcceptGroupJoinRequest(ctx, "admin", "u2", "rustaceans")
		req.NoError(err)
	})

	t.Run("deleting history leaves outboxes alone", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.createUser(t, "alice")
		f.createUser(t, "bob")
		f.createUser(t, "carol")
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "bob"))
		req.NoError(f.engine.SendPrivateMessageRequest(ctx, "alice", "carol"))
		req.NoError(f.engine.DeclinePrivateMessageRequest(ctx, "bob", "alice"))

		req.NoError(f.engine.DeleteNotification(ctx, "alice", models.DeclinedSentPrivateMessageRequest, 0))
		req.Empty(f.notification(t, alice).DeclinedSentPrivateMessageRequest)
		req.Equal([]string{"carol"}, f.reload(t, alice).SentPrivateMessageRequest)
	})

	t.Run("group requests render flattened with their group", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		admin := f.createUser(t, "admin")
		f.createUser(t, "u1")
		req.NoError(f.store.CreateGroup(ctx, models.NewGroup("gophers", admin.ID, "")))
		_, err := f.engine.SendGroupJoinRequest(ctx, "u1", "gophers")
		req.NoError(err)

		view, err := f.engine.Notifications(ctx, "admin")
		req.NoError(err)
		req.Len(view.ReceivedGroupJoinRequestAsAdmin, 1)
		item := view.ReceivedGroupJoinRequestAsAdmin[0]
		req.Equal("u1", item.Name)
		req.Equal("gophers", item.GroupName)
		req.Regexp(`^\d{2}/\d{2}/\d{2} - \d{2}:\d{2} (AM|PM)$`, item.Date)
	})
}
