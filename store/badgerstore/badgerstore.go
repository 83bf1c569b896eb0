// Package badgerstore is the embedded document store.
// Documents are encoded with jsoniter under prefixed keys:
//
//	user:{id}            username:{name} -> id
//	group:{id}           groupname:{name} -> id
//	notification:{user}
//	conversation:{id}    pair:{a}:{b} -> id
//	message:{id}
//	task:{id}
//
// Unique indexes and find-or-create are checked and written in the same
// transaction. Badger aborts the loser of two conflicting transactions with
// ErrConflict, which is retried, so the index key acts as the uniqueness constraint.
package badgerstore

import (
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
)

const maxConflictRetries = 64

const (
	userPrefix         = "user:"
	usernamePrefix     = "username:"
	groupPrefix        = "group:"
	groupnamePrefix    = "groupname:"
	notificationPrefix = "notification:"
	conversationPrefix = "conversation:"
	pairPrefix         = "pair:"
	messagePrefix      = "message:"
	taskPrefix         = "task:"
)

// Store implements store.Store over BadgerDB
type Store struct {
	db *badger.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a badger database at path
func Open(path string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an opened badger database
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func get[T any](txn *badger.Txn, key string) (*T, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc := new(T)
	err = item.Value(func(val []byte) error {
		return jsoniter.Unmarshal(val, doc)
	})
	return doc, err
}

func getIndex(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	return string(val), err
}

func set(txn *badger.Txn, key string, doc interface{}) error {
	b, err := jsoniter.Marshal(doc)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), b)
}

func getDoc[T any](ctx context.Context, s *Store, key string) (*T, error) {
	var doc *T
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		doc, err = get[T](txn, key)
		return err
	})
	return doc, err
}

func getByIndex[T any](ctx context.Context, s *Store, indexKey, docPrefix string) (*T, error) {
	var doc *T
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := getIndex(txn, indexKey)
		if err != nil {
			return err
		}
		doc, err = get[T](txn, docPrefix+id)
		return err
	})
	return doc, err
}

func updateDoc[T any](ctx context.Context, s *Store, key string, fn func(*T) error) (*T, error) {
	var doc *T
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		if doc, err = get[T](txn, key); err != nil {
			return err
		}
		if err = fn(doc); err != nil {
			if errors.Is(err, store.ErrNoChange) {
				return nil
			}
			return err
		}
		return set(txn, key, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// scan decodes every document under prefix accepted by keep
func scan[T any](ctx context.Context, s *Store, prefix string, keep func(*T) bool) ([]T, error) {
	var docs []T
	err := s.view(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			doc := new(T)
			if err := it.Item().Value(func(val []byte) error {
				return jsoniter.Unmarshal(val, doc)
			}); err != nil {
				return err
			}
			if keep(doc) {
				docs = append(docs, *doc)
			}
		}
		return nil
	})
	return docs, err
}

func matches(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

//////////////////////////////////////// USERS ////////////////////////////////////////

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := getIndex(txn, usernamePrefix+user.Username); err == nil {
			return store.ErrAlreadyExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := set(txn, userPrefix+user.ID, user); err != nil {
			return err
		}
		return txn.Set([]byte(usernamePrefix+user.Username), []byte(user.ID))
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return getDoc[models.User](ctx, s, userPrefix+id)
}

func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	return getByIndex[models.User](ctx, s, usernamePrefix+username, userPrefix)
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	users, err := scan(ctx, s, userPrefix, func(u *models.User) bool {
		return matches(u.Username, query)
	})
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, err
}

func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	return updateDoc(ctx, s, userPrefix+id, fn)
}

//////////////////////////////////////// GROUPS ////////////////////////////////////////

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := getIndex(txn, groupnamePrefix+group.Name); err == nil {
			return store.ErrAlreadyExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := set(txn, groupPrefix+group.ID, group); err != nil {
			return err
		}
		return txn.Set([]byte(groupnamePrefix+group.Name), []byte(group.ID))
	})
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return getDoc[models.Group](ctx, s, groupPrefix+id)
}

func (s *Store) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	return getByIndex[models.Group](ctx, s, groupnamePrefix+name, groupPrefix)
}

func (s *Store) SearchGroups(ctx context.Context, query string) ([]models.Group, error) {
	groups, err := scan(ctx, s, groupPrefix, func(g *models.Group) bool {
		return matches(g.Name, query)
	})
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, err
}

func (s *Store) GroupsByMember(ctx context.Context, userID string) ([]models.Group, error) {
	return scan(ctx, s, groupPrefix, func(g *models.Group) bool {
		return g.IsMember(userID)
	})
}

func (s *Store) UpdateGroup(ctx context.Context, id string, fn func(*models.Group) error) (*models.Group, error) {
	return updateDoc(ctx, s, groupPrefix+id, fn)
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		group, err := get[models.Group](txn, groupPrefix+id)
		if err != nil {
			return err
		}
		if err = txn.Delete([]byte(groupnamePrefix + group.Name)); err != nil {
			return err
		}
		return txn.Delete([]byte(groupPrefix + id))
	})
}

//////////////////////////////////////// NOTIFICATIONS ////////////////////////////////////////

func (s *Store) FindOrCreateNotification(ctx context.Context, userID string) (*models.Notification, bool, error) {
	var (
		notification *models.Notification
		created      bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		created = false
		notification, err = get[models.Notification](txn, notificationPrefix+userID)
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		notification = models.NewNotification(userID)
		created = true
		return set(txn, notificationPrefix+userID, notification)
	})
	if err != nil {
		return nil, false, err
	}
	return notification, created, nil
}

func (s *Store) GetNotification(ctx context.Context, userID string) (*models.Notification, error) {
	return getDoc[models.Notification](ctx, s, notificationPrefix+userID)
}

func (s *Store) UpdateNotification(ctx context.Context, userID string, fn func(*models.Notification) error) (*models.Notification, error) {
	return updateDoc(ctx, s, notificationPrefix+userID, fn)
}

//////////////////////////////////////// PRIVATE CONVERSATIONS ////////////////////////////////////////

func (s *Store) FindOrCreatePrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, bool, error) {
	var (
		conversation *models.PrivateConversation
		created      bool
	)
	pairKey := pairPrefix + models.PairKey(a, b)
	err := s.update(ctx, func(txn *badger.Txn) error {
		created = false
		id, err := getIndex(txn, pairKey)
		if err == nil {
			conversation, err = get[models.PrivateConversation](txn, conversationPrefix+id)
			return err
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		conversation = models.NewPrivateConversation(a, b)
		created = true
		if err = set(txn, conversationPrefix+conversation.ID, conversation); err != nil {
			return err
		}
		return txn.Set([]byte(pairKey), []byte(conversation.ID))
	})
	if err != nil {
		return nil, false, err
	}
	return conversation, created, nil
}

func (s *Store) FindPrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, error) {
	return getByIndex[models.PrivateConversation](ctx, s, pairPrefix+models.PairKey(a, b), conversationPrefix)
}

func (s *Store) GetPrivateConversation(ctx context.Context, id string) (*models.PrivateConversation, error) {
	return getDoc[models.PrivateConversation](ctx, s, conversationPrefix+id)
}

func (s *Store) UpdatePrivateConversation(ctx context.Context, id string, fn func(*models.PrivateConversation) error) (*models.PrivateConversation, error) {
	return updateDoc(ctx, s, conversationPrefix+id, fn)
}

func (s *Store) DeletePrivateConversation(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		conversation, err := get[models.PrivateConversation](txn, conversationPrefix+id)
		if err != nil {
			return err
		}
		if len(conversation.Members) == 2 {
			if err = txn.Delete([]byte(pairPrefix + models.PairKey(conversation.Members[0], conversation.Members[1]))); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(conversationPrefix + id))
	})
}

//////////////////////////////////////// MESSAGES ////////////////////////////////////////

func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return set(txn, messagePrefix+message.ID, message)
	})
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	return getDoc[models.Message](ctx, s, messagePrefix+id)
}

// GetMessages skips ids whose message is gone and sorts by creation time
func (s *Store) GetMessages(ctx context.Context, ids []string) ([]models.Message, error) {
	messages := make([]models.Message, 0, len(ids))
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			message, err := get[models.Message](txn, messagePrefix+id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			messages = append(messages, *message)
		}
		return nil
	})
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, err
}

func (s *Store) DeleteMessages(ctx context.Context, ids []string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Delete([]byte(messagePrefix + id)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

//////////////////////////////////////// TASKS ////////////////////////////////////////

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return set(txn, taskPrefix+task.ID, task)
	})
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return getDoc[models.Task](ctx, s, taskPrefix+id)
}

// GetTasks skips ids whose task is gone and sorts by creation time
func (s *Store) GetTasks(ctx context.Context, ids []string) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(ids))
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			task, err := get[models.Task](txn, taskPrefix+id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			tasks = append(tasks, *task)
		}
		return nil
	})
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, err
}

func (s *Store) UpdateTask(ctx context.Context, id string, fn func(*models.Task) error) (*models.Task, error) {
	return updateDoc(ctx, s, taskPrefix+id, fn)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := get[models.Task](txn, taskPrefix+id); err != nil {
			return err
		}
		return txn.Delete([]byte(taskPrefix + id))
	})
}
