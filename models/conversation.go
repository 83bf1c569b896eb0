package models

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Content types of a message
const (
	ContentText  = "text"
	ContentAudio = "audio"
)

// Group document
type Group struct {
	ID          string
	Name        string
	Image       string
	Members     []string
	Admin       string
	MessageList []string
	CreatedAt   time.Time
}

// NewGroup creates a group whose only member is its admin
func NewGroup(name, adminID, image string) *Group {
	return &Group{
		ID:        NewID(),
		Name:      name,
		Image:     image,
		Members:   []string{adminID},
		Admin:     adminID,
		CreatedAt: time.Now().UTC(),
	}
}

// IsMember reports whether userID belongs to the group
func (g *Group) IsMember(userID string) bool {
	return lo.Contains(g.Members, userID)
}

// AddMember adds userID to the group, once
func (g *Group) AddMember(userID string) bool {
	if g.IsMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

// PrivateConversation is the thread shared by exactly two users
type PrivateConversation struct {
	ID          string
	Members     []string
	MessageList []string
	CreatedAt   time.Time
}

// PairKey is the order independent key of two members
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// NewPrivateConversation creates the thread of a and b
func NewPrivateConversation(a, b string) *PrivateConversation {
	return &PrivateConversation{
		ID:        NewID(),
		Members:   []string{a, b},
		CreatedAt: time.Now().UTC(),
	}
}

// HasMember reports whether userID is one of the two members
func (p *PrivateConversation) HasMember(userID string) bool {
	return lo.Contains(p.Members, userID)
}

// Message is one entry of a private or group thread
type Message struct {
	ID                    string
	From                  string
	To                    string
	ContentType           string
	Content               string
	IsGroupMsg            bool
	SenderProfileImage    string
	PrivateConversationID string
	GroupID               string
	CreatedAt             time.Time
}

// ConversationID returns the id of the owning thread
func (m *Message) ConversationID() string {
	if m.IsGroupMsg {
		return m.GroupID
	}
	return m.PrivateConversationID
}
