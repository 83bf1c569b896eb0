package badgerstore

import (
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()

	t.Run("username is unique", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		req.NoError(s.CreateUser(ctx, models.NewUser("alice", "h", "", "", "")))
		err := s.CreateUser(ctx, models.NewUser("alice", "h2", "", "", ""))
		req.ErrorIs(err, store.ErrAlreadyExists)
	})

	t.Run("lookup by name and search", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)
		alice := models.NewUser("alice", "h", "", "", "")
		req.NoError(s.CreateUser(ctx, alice))
		req.NoError(s.CreateUser(ctx, models.NewUser("Alina", "h", "", "", "")))
		req.NoError(s.CreateUser(ctx, models.NewUser("bob", "h", "", "", "")))

		got, err := s.GetUserByName(ctx, "alice")
		req.NoError(err)
		req.Equal(alice.ID, got.ID)

		found, err := s.SearchUsers(ctx, "AL")
		req.NoError(err)
		req.Len(found, 2)

		_, err = s.GetUserByName(ctx, "nobody")
		req.ErrorIs(err, store.ErrNotFound)
	})

	t.Run("update skips write on no change", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)
		alice := models.NewUser("alice", "h", "", "", "")
		req.NoError(s.CreateUser(ctx, alice))

		updated, err := s.UpdateUser(ctx, alice.ID, func(u *models.User) error {
			u.AddFriend("bob")
			return nil
		})
		req.NoError(err)
		req.Equal([]string{"bob"}, updated.FriendList)

		_, err = s.UpdateUser(ctx, alice.ID, func(u *models.User) error {
			u.ProfileImage = "ignored"
			return store.ErrNoChange
		})
		req.NoError(err)

		got, err := s.GetUser(ctx, alice.ID)
		req.NoError(err)
		req.Empty(got.ProfileImage)
		req.Equal([]string{"bob"}, got.FriendList)
	})
}

func TestStore_FindOrCreatePrivateConversation_Concurrent(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()

	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 1 {
				a, b = b, a
			}
			conv, _, err := s.FindOrCreatePrivateConversation(ctx, a, b)
			req.NoError(err)
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		req.Equal(ids[0], id)
	}

	conv, err := s.FindPrivateConversation(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(ids[0], conv.ID)
}

func TestStore_FindOrCreateNotification_Concurrent(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := s.FindOrCreateNotification(ctx, "alice")
			req.NoError(err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	req.Equal(1, created)
}

func TestStore_ConversationAndMessages(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()

	conv, created, err := s.FindOrCreatePrivateConversation(ctx, "a", "b")
	req.NoError(err)
	req.True(created)

	first := &models.Message{ID: models.NewID(), From: "a", To: "b", Content: "hi", PrivateConversationID: conv.ID}
	req.NoError(s.CreateMessage(ctx, first))
	req.NoError(s.DeleteMessages(ctx, []string{first.ID}))
	_, err = s.GetMessage(ctx, first.ID)
	req.ErrorIs(err, store.ErrNotFound)

	req.NoError(s.DeletePrivateConversation(ctx, conv.ID))
	_, err = s.FindPrivateConversation(ctx, "a", "b")
	req.ErrorIs(err, store.ErrNotFound)

	again, created, err := s.FindOrCreatePrivateConversation(ctx, "b", "a")
	req.NoError(err)
	req.True(created)
	req.NotEqual(conv.ID, again.ID)
}

func TestStore_Groups(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()

	g := models.NewGroup("gophers", "admin", "")
	req.NoError(s.CreateGroup(ctx, g))
	req.ErrorIs(s.CreateGroup(ctx, models.NewGroup("gophers", "other", "")), store.ErrAlreadyExists)

	_, err := s.UpdateGroup(ctx, g.ID, func(g *models.Group) error {
		g.AddMember("bob")
		return nil
	})
	req.NoError(err)

	mine, err := s.GroupsByMember(ctx, "bob")
	req.NoError(err)
	req.Len(mine, 1)

	req.NoError(s.DeleteGroup(ctx, g.ID))
	_, err = s.GetGroupByName(ctx, "gophers")
	req.ErrorIs(err, store.ErrNotFound)
}

func TestStore_Tasks(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	s := newStore(t)

	first := models.NewTask("u1", "08:00", "run", []string{"5k"}, nil)
	second := models.NewTask("u1", "09:00", "read", []string{"ch. 3"}, []string{"https://go.dev"})
	second.CreatedAt = first.CreatedAt.Add(1)
	req.NoError(s.CreateTask(ctx, second))
	req.NoError(s.CreateTask(ctx, first))

	tasks, err := s.GetTasks(ctx, []string{second.ID, "gone", first.ID})
	req.NoError(err)
	req.Len(tasks, 2)
	req.Equal(first.ID, tasks[0].ID)
	req.Equal([]string{}, tasks[0].Links)

	done, err := s.UpdateTask(ctx, first.ID, func(task *models.Task) error {
		if !task.SetCompleted(true) {
			return store.ErrNoChange
		}
		return nil
	})
	req.NoError(err)
	req.True(done.Completed)

	req.NoError(s.DeleteTask(ctx, first.ID))
	_, err = s.GetTask(ctx, first.ID)
	req.ErrorIs(err, store.ErrNotFound)
	req.ErrorIs(s.DeleteTask(ctx, first.ID), store.ErrNotFound)
}
