// Package scyllastore keeps documents in ScyllaDB.
//
// Each document kind has a table of (id, body, version), body being the
// jsoniter encoding of the document. Unique names and member pairs are lookup
// tables written with lightweight transactions, and updates compare-and-set
// on version. Rows of a table updated with compare-and-set are also inserted
// and deleted with lightweight transactions, since Scylla does not order plain
// writes against them. Messages are never updated and use plain writes.
package scyllastore

import (
	"SOCIAL_server/models"
	"SOCIAL_server/store"
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/gocql/gocql"
	jsoniter "github.com/json-iterator/go"
)

const maxCASRetries = 16

// ErrContention is returned when an update keeps losing its compare-and-set
var ErrContention = errors.New("scyllastore: too much contention")

const (
	usersTable         = "users"
	groupsTable        = "groups"
	notificationsTable = "notifications"
	conversationsTable = "conversations"
	messagesTable      = "messages"
	tasksTable         = "tasks"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (id text, body text, version int, PRIMARY KEY (id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS users_by_name (username text, id text, PRIMARY KEY (username))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS groups (id text, body text, version int, PRIMARY KEY (id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS groups_by_name (name text, id text, PRIMARY KEY (name))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS notifications (id text, body text, version int, PRIMARY KEY (id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS conversations (id text, body text, version int, PRIMARY KEY (id))
		WITH compaction = { 'class' :  'SizeTieredCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS conversations_by_pair (pair text, id text, PRIMARY KEY (pair))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS messages (id text, body text, version int, PRIMARY KEY (id))
		WITH compaction = { 'class' :  'SizeTieredCompactionStrategy'  };`,
	`CREATE TABLE IF NOT EXISTS tasks (id text, body text, version int, PRIMARY KEY (id))
		WITH compaction = { 'class' :  'LeveledCompactionStrategy'  };`,
}

// Store implements store.Store over a gocql session
type Store struct {
	session *gocql.Session
}

var _ store.Store = (*Store)(nil)

// New wraps an opened session bound to the keyspace
func New(session *gocql.Session) *Store {
	return &Store{session: session}
}

// Migrate creates the tables when missing
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the session
func (s *Store) Close() error {
	s.session.Close()
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return store.ErrNotFound
	}
	return err
}

func getDoc[T any](ctx context.Context, s *Store, table, id string) (*T, int, error) {
	var (
		body    string
		version int
	)
	err := s.session.Query(`SELECT body, version FROM `+table+` WHERE id = ? LIMIT 1;`, id).
		WithContext(ctx).Scan(&body, &version)
	if err != nil {
		return nil, 0, notFound(err)
	}
	doc := new(T)
	if err = jsoniter.UnmarshalFromString(body, doc); err != nil {
		return nil, 0, err
	}
	return doc, version, nil
}

// putDoc inserts a new document, ErrAlreadyExists if id is taken
func putDoc(ctx context.Context, s *Store, table, id string, doc interface{}) error {
	body, err := jsoniter.MarshalToString(doc)
	if err != nil {
		return err
	}
	applied, err := s.session.Query(`INSERT INTO `+table+` (id, body, version) VALUES (?, ?, 0) IF NOT EXISTS;`, id, body).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return store.ErrAlreadyExists
	}
	return nil
}

// deleteDoc removes a document, ErrNotFound if it is already gone
func deleteDoc(ctx context.Context, s *Store, table, id string) error {
	applied, err := s.session.Query(`DELETE FROM `+table+` WHERE id = ? IF EXISTS;`, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return store.ErrNotFound
	}
	return nil
}

func updateDoc[T any](ctx context.Context, s *Store, table, id string, fn func(*T) error) (*T, error) {
	for i := 0; i < maxCASRetries; i++ {
		doc, version, err := getDoc[T](ctx, s, table, id)
		if err != nil {
			return nil, err
		}
		if err = fn(doc); err != nil {
			if errors.Is(err, store.ErrNoChange) {
				return doc, nil
			}
			return nil, err
		}
		body, err := jsoniter.MarshalToString(doc)
		if err != nil {
			return nil, err
		}
		applied, err := s.session.Query(`UPDATE `+table+` SET body = ?, version = ? WHERE id = ? IF version = ?;`,
			body, version+1, id, version,
		).WithContext(ctx).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return nil, err
		}
		if applied {
			return doc, nil
		}
	}
	return nil, ErrContention
}

// claim inserts key -> id into a lookup table unless key is taken and returns the owner
func claim(ctx context.Context, s *Store, table, column, key, id string) (string, bool, error) {
	existing := map[string]interface{}{}
	applied, err := s.session.Query(`INSERT INTO `+table+` (`+column+`, id) VALUES (?, ?) IF NOT EXISTS;`, key, id).
		WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return "", false, err
	}
	if applied {
		return id, true, nil
	}
	owner, _ := existing["id"].(string)
	return owner, false, nil
}

// release deletes key from a lookup table if it still points at id
func release(ctx context.Context, s *Store, table, column, key, id string) error {
	_, err := s.session.Query(`DELETE FROM `+table+` WHERE `+column+` = ? IF id = ?;`, key, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	return err
}

// claimDoc claims key for id and then inserts the document, giving the
// claim back when the insert fails
func claimDoc(ctx context.Context, s *Store, lookupTable, column, key, table, id string, doc interface{}) error {
	_, ok, err := claim(ctx, s, lookupTable, column, key, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	if err = putDoc(ctx, s, table, id, doc); err != nil {
		if releaseErr := release(ctx, s, lookupTable, column, key, id); releaseErr != nil {
			return errors.Join(err, releaseErr)
		}
		return err
	}
	return nil
}

func lookup(ctx context.Context, s *Store, table, column, key string) (string, error) {
	var id string
	err := s.session.Query(`SELECT id FROM `+table+` WHERE `+column+` = ? LIMIT 1;`, key).
		WithContext(ctx).Scan(&id)
	return id, notFound(err)
}

func scan[T any](ctx context.Context, s *Store, table string, keep func(*T) bool) ([]T, error) {
	var (
		body string
		docs []T
	)
	iter := s.session.Query(`SELECT body FROM ` + table + `;`).WithContext(ctx).Iter()
	for iter.Scan(&body) {
		doc := new(T)
		if err := jsoniter.UnmarshalFromString(body, doc); err != nil {
			iter.Close()
			return nil, err
		}
		if keep(doc) {
			docs = append(docs, *doc)
		}
	}
	return docs, iter.Close()
}

func matches(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

//////////////////////////////////////// USERS ////////////////////////////////////////

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return claimDoc(ctx, s, "users_by_name", "username", user.Username, usersTable, user.ID, user)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, _, err := getDoc[models.User](ctx, s, usersTable, id)
	return user, err
}

func (s *Store) GetUserByName(ctx context.Context, username string) (*models.User, error) {
	id, err := lookup(ctx, s, "users_by_name", "username", username)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	users, err := scan(ctx, s, usersTable, func(u *models.User) bool {
		return matches(u.Username, query)
	})
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, err
}

func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	return updateDoc(ctx, s, usersTable, id, fn)
}

//////////////////////////////////////// GROUPS ////////////////////////////////////////

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	return claimDoc(ctx, s, "groups_by_name", "name", group.Name, groupsTable, group.ID, group)
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group, _, err := getDoc[models.Group](ctx, s, groupsTable, id)
	return group, err
}

func (s *Store) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	id, err := lookup(ctx, s, "groups_by_name", "name", name)
	if err != nil {
		return nil, err
	}
	return s.GetGroup(ctx, id)
}

func (s *Store) SearchGroups(ctx context.Context, query string) ([]models.Group, error) {
	groups, err := scan(ctx, s, groupsTable, func(g *models.Group) bool {
		return matches(g.Name, query)
	})
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, err
}

func (s *Store) GroupsByMember(ctx context.Context, userID string) ([]models.Group, error) {
	return scan(ctx, s, groupsTable, func(g *models.Group) bool {
		return g.IsMember(userID)
	})
}

func (s *Store) UpdateGroup(ctx context.Context, id string, fn func(*models.Group) error) (*models.Group, error) {
	return updateDoc(ctx, s, groupsTable, id, fn)
}

func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return err
	}
	if err = release(ctx, s, "groups_by_name", "name", group.Name, id); err != nil {
		return err
	}
	return deleteDoc(ctx, s, groupsTable, id)
}

//////////////////////////////////////// NOTIFICATIONS ////////////////////////////////////////

func (s *Store) FindOrCreateNotification(ctx context.Context, userID string) (*models.Notification, bool, error) {
	notification := models.NewNotification(userID)
	body, err := jsoniter.MarshalToString(notification)
	if err != nil {
		return nil, false, err
	}
	existing := map[string]interface{}{}
	applied, err := s.session.Query(`INSERT INTO notifications (id, body, version) VALUES (?, ?, 0) IF NOT EXISTS;`, userID, body).
		WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return nil, false, err
	}
	if applied {
		return notification, true, nil
	}
	stored, _ := existing["body"].(string)
	notification = new(models.Notification)
	if err = jsoniter.UnmarshalFromString(stored, notification); err != nil {
		return nil, false, err
	}
	return notification, false, nil
}

func (s *Store) GetNotification(ctx context.Context, userID string) (*models.Notification, error) {
	notification, _, err := getDoc[models.Notification](ctx, s, notificationsTable, userID)
	return notification, err
}

func (s *Store) UpdateNotification(ctx context.Context, userID string, fn func(*models.Notification) error) (*models.Notification, error) {
	return updateDoc(ctx, s, notificationsTable, userID, fn)
}

//////////////////////////////////////// PRIVATE CONVERSATIONS ////////////////////////////////////////

func (s *Store) FindOrCreatePrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, bool, error) {
	pair := models.PairKey(a, b)
	if id, err := lookup(ctx, s, "conversations_by_pair", "pair", pair); err == nil {
		conversation, err := s.GetPrivateConversation(ctx, id)
		return conversation, false, err
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	conversation := models.NewPrivateConversation(a, b)
	if err := putDoc(ctx, s, conversationsTable, conversation.ID, conversation); err != nil {
		return nil, false, err
	}
	owner, ok, err := claim(ctx, s, "conversations_by_pair", "pair", pair, conversation.ID)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return conversation, true, nil
	}
	// lost the race, drop the unreferenced copy
	if err = deleteDoc(ctx, s, conversationsTable, conversation.ID); err != nil {
		return nil, false, err
	}
	existing, err := s.GetPrivateConversation(ctx, owner)
	return existing, false, err
}

func (s *Store) FindPrivateConversation(ctx context.Context, a, b string) (*models.PrivateConversation, error) {
	id, err := lookup(ctx, s, "conversations_by_pair", "pair", models.PairKey(a, b))
	if err != nil {
		return nil, err
	}
	return s.GetPrivateConversation(ctx, id)
}

func (s *Store) GetPrivateConversation(ctx context.Context, id string) (*models.PrivateConversation, error) {
	conversation, _, err := getDoc[models.PrivateConversation](ctx, s, conversationsTable, id)
	return conversation, err
}

func (s *Store) UpdatePrivateConversation(ctx context.Context, id string, fn func(*models.PrivateConversation) error) (*models.PrivateConversation, error) {
	return updateDoc(ctx, s, conversationsTable, id, fn)
}

func (s *Store) DeletePrivateConversation(ctx context.Context, id string) error {
	conversation, err := s.GetPrivateConversation(ctx, id)
	if err != nil {
		return err
	}
	if len(conversation.Members) == 2 {
		pair := models.PairKey(conversation.Members[0], conversation.Members[1])
		if err = release(ctx, s, "conversations_by_pair", "pair", pair, id); err != nil {
			return err
		}
	}
	return deleteDoc(ctx, s, conversationsTable, id)
}

//////////////////////////////////////// MESSAGES ////////////////////////////////////////

func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	body, err := jsoniter.MarshalToString(message)
	if err != nil {
		return err
	}
	return s.session.Query(`INSERT INTO messages (id, body, version) VALUES (?, ?, 0);`, message.ID, body).
		WithContext(ctx).Exec()
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	message, _, err := getDoc[models.Message](ctx, s, messagesTable, id)
	return message, err
}

func (s *Store) GetMessages(ctx context.Context, ids []string) ([]models.Message, error) {
	messages := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		message, err := s.GetMessage(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (s *Store) DeleteMessages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := s.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, id := range ids {
		batch.Query(`DELETE FROM messages WHERE id = ?;`, id)
	}
	return s.session.ExecuteBatch(batch)
}

//////////////////////////////////////// TASKS ////////////////////////////////////////

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	return putDoc(ctx, s, tasksTable, task.ID, task)
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, _, err := getDoc[models.Task](ctx, s, tasksTable, id)
	return task, err
}

func (s *Store) GetTasks(ctx context.Context, ids []string) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.GetTask(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, id string, fn func(*models.Task) error) (*models.Task, error) {
	return updateDoc(ctx, s, tasksTable, id, fn)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return deleteDoc(ctx, s, tasksTable, id)
}
