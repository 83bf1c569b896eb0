package models

import (
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/samber/lo"
)

// AllConnectedUsers is the reserved sort list filled when a friend request is accepted
const AllConnectedUsers = "All Connected Users"

// DefaultSortLists are created for every new user
var DefaultSortLists = []string{AllConnectedUsers, "Family", "Friends", "Office", "University"}

// NewID generates a time based id, ordered by creation
func NewID() string {
	return gocql.TimeUUID().String()
}

// User document
type User struct {
	ID           string
	Username     string
	PasswordHash string
	PublicKey    string
	PrivateKey   string
	ProfileImage string

	FriendList                []string
	SentPrivateMessageRequest []string
	SentGroupJoinRequest      []string
	PrivateChatList           []PrivateChat
	GroupChatList             []GroupChat
	JoinedGroupList           []string
	ChatSortList              []SortList
	DailyTask                 []string

	CreatedAt time.Time
}

// PrivateChat links a friend to the conversation shared with them
type PrivateChat struct {
	FriendUsername string
	ConversationID string
}

// GroupChat links a joined group to its message thread
type GroupChat struct {
	GroupName string
	GroupID   string
}

// SortList is a named bucket of connected users
type SortList struct {
	ListName string
	Members  []string
}

// NewUser builds a user with the default sort lists
func NewUser(username, passwordHash, publicKey, privateKey, profileImage string) *User {
	lists := make([]SortList, len(DefaultSortLists))
	for i, name := range DefaultSortLists {
		lists[i] = SortList{ListName: name, Members: []string{}}
	}
	return &User{
		ID:           NewID(),
		Username:     username,
		PasswordHash: passwordHash,
		PublicKey:    publicKey,
		PrivateKey:   privateKey,
		ProfileImage: profileImage,
		ChatSortList: lists,
		CreatedAt:    time.Now().UTC(),
	}
}

// AddFriend adds id to the friend list, reports whether the list changed
func (u *User) AddFriend(id string) bool {
	if lo.Contains(u.FriendList, id) {
		return false
	}
	u.FriendList = append(u.FriendList, id)
	return true
}

// RemoveFriend removes id from the friend list, reports whether the list changed
func (u *User) RemoveFriend(id string) bool {
	n := len(u.FriendList)
	u.FriendList = lo.Without(u.FriendList, id)
	return len(u.FriendList) != n
}

// IsFriend reports whether id is in the friend list
func (u *User) IsFriend(id string) bool {
	return lo.Contains(u.FriendList, id)
}

// AddPrivateChat records the conversation shared with friend, once per friend
func (u *User) AddPrivateChat(friend, conversationID string) bool {
	_, ok := lo.Find(u.PrivateChatList, func(pc PrivateChat) bool {
		return pc.FriendUsername == friend && pc.ConversationID == conversationID
	})
	if ok {
		return false
	}
	u.PrivateChatList = append(u.PrivateChatList, PrivateChat{FriendUsername: friend, ConversationID: conversationID})
	return true
}

// RemovePrivateChat drops the entry for friend and returns its conversation id
func (u *User) RemovePrivateChat(friend string) (string, bool) {
	pc, idx, ok := lo.FindIndexOf(u.PrivateChatList, func(pc PrivateChat) bool {
		return pc.FriendUsername == friend
	})
	if !ok {
		return "", false
	}
	u.PrivateChatList = append(u.PrivateChatList[:idx], u.PrivateChatList[idx+1:]...)
	return pc.ConversationID, true
}

// SortList returns the named list
func (u *User) SortList(name string) (*SortList, bool) {
	for i := range u.ChatSortList {
		if u.ChatSortList[i].ListName == name {
			return &u.ChatSortList[i], true
		}
	}
	return nil, false
}

// AddToSortList adds member to the named list, creating the list if needed
func (u *User) AddToSortList(name, member string) bool {
	list, ok := u.SortList(name)
	if !ok {
		u.ChatSortList = append(u.ChatSortList, SortList{ListName: name, Members: []string{member}})
		return true
	}
	if lo.Contains(list.Members, member) {
		return false
	}
	list.Members = append(list.Members, member)
	return true
}

// RemoveFromSortLists removes member from every list except the ones in keep
func (u *User) RemoveFromSortLists(member string, keep ...string) bool {
	changed := false
	for i := range u.ChatSortList {
		if lo.Contains(keep, u.ChatSortList[i].ListName) {
			continue
		}
		n := len(u.ChatSortList[i].Members)
		u.ChatSortList[i].Members = lo.Without(u.ChatSortList[i].Members, member)
		changed = changed || n != len(u.ChatSortList[i].Members)
	}
	return changed
}

// JoinGroup records membership of a group, once
func (u *User) JoinGroup(groupID, groupName string) bool {
	if lo.Contains(u.JoinedGroupList, groupID) {
		return false
	}
	u.JoinedGroupList = append(u.JoinedGroupList, groupID)
	u.GroupChatList = append(u.GroupChatList, GroupChat{GroupName: groupName, GroupID: groupID})
	return true
}

// LeaveGroup removes every reference to the group
func (u *User) LeaveGroup(groupID string) bool {
	n := len(u.JoinedGroupList)
	u.JoinedGroupList = lo.Without(u.JoinedGroupList, groupID)
	u.GroupChatList = lo.Reject(u.GroupChatList, func(gc GroupChat, _ int) bool {
		return gc.GroupID == groupID
	})
	return n != len(u.JoinedGroupList)
}

// HasSortListFold reports a list named name, ignoring case
func (u *User) HasSortListFold(name string) bool {
	return lo.ContainsBy(u.ChatSortList, func(l SortList) bool {
		return strings.EqualFold(l.ListName, name)
	})
}

// RenameSortList renames the list from to to
func (u *User) RenameSortList(from, to string) bool {
	list, ok := u.SortList(from)
	if !ok {
		return false
	}
	list.ListName = to
	return true
}

// DeleteSortList removes the named list
func (u *User) DeleteSortList(name string) bool {
	n := len(u.ChatSortList)
	u.ChatSortList = lo.Reject(u.ChatSortList, func(l SortList, _ int) bool {
		return l.ListName == name
	})
	return n != len(u.ChatSortList)
}
