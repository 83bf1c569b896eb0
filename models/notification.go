package models

import (
	"time"

	"github.com/samber/lo"
)

// Sub-list names of a notification record, as addressed by clients
const (
	ReceivedPrivateMessageRequest     = "receivedPrivateMessageRequest"
	AcceptedSentPrivateMessageRequest = "acceptedSentPrivateMessageRequest"
	DeclinedSentPrivateMessageRequest = "declinedSentPrivateMessageRequest"
	ReceivedGroupJoinRequestAsAdmin   = "receivedGroupJoinRequestAsAdmin"
	AcceptedSentGroupJoinRequest      = "acceptedSentGroupMessageRequest"
	DeclinedSentGroupJoinRequest      = "declinedSentGroupMessageRequest"
)

// SubLists lists every sub-list name
var SubLists = []string{
	ReceivedPrivateMessageRequest,
	AcceptedSentPrivateMessageRequest,
	DeclinedSentPrivateMessageRequest,
	ReceivedGroupJoinRequestAsAdmin,
	AcceptedSentGroupJoinRequest,
	DeclinedSentGroupJoinRequest,
}

// UserEntry is a notification entry pointing at a user
type UserEntry struct {
	UserID    string
	CreatedAt time.Time
	Seen      bool
}

// GroupEntry is a notification entry pointing at a group
type GroupEntry struct {
	GroupID   string
	CreatedAt time.Time
	Seen      bool
}

// GroupRequests holds every pending requester of one group.
// A group name appears in at most one grouping and a grouping is never empty.
type GroupRequests struct {
	GroupName      string
	RequestedUsers []UserEntry
}

// Notification document, one per user
type Notification struct {
	UserID string

	ReceivedPrivateMessageRequest     []UserEntry
	AcceptedSentPrivateMessageRequest []UserEntry
	DeclinedSentPrivateMessageRequest []UserEntry
	ReceivedGroupJoinRequestAsAdmin   []GroupRequests
	AcceptedSentGroupJoinRequest      []GroupEntry
	DeclinedSentGroupJoinRequest      []GroupEntry

	CreatedAt time.Time
}

// NewNotification creates an empty record owned by userID
func NewNotification(userID string) *Notification {
	return &Notification{UserID: userID, CreatedAt: time.Now().UTC()}
}

func newUserEntry(userID string) UserEntry {
	return UserEntry{UserID: userID, CreatedAt: time.Now().UTC()}
}

func newGroupEntry(groupID string) GroupEntry {
	return GroupEntry{GroupID: groupID, CreatedAt: time.Now().UTC()}
}

func containsUser(entries []UserEntry, userID string) bool {
	return lo.ContainsBy(entries, func(e UserEntry) bool { return e.UserID == userID })
}

func withoutUser(entries []UserEntry, userID string) ([]UserEntry, bool) {
	out := lo.Reject(entries, func(e UserEntry, _ int) bool { return e.UserID == userID })
	return out, len(out) != len(entries)
}

// HasPrivateRequestFrom reports a pending private request from userID
func (n *Notification) HasPrivateRequestFrom(userID string) bool {
	return containsUser(n.ReceivedPrivateMessageRequest, userID)
}

// AddPrivateRequest records a pending private request from userID
func (n *Notification) AddPrivateRequest(userID string) bool {
	if n.HasPrivateRequestFrom(userID) {
		return false
	}
	n.ReceivedPrivateMessageRequest = append(n.ReceivedPrivateMessageRequest, newUserEntry(userID))
	return true
}

// RemovePrivateRequest removes the pending private request from userID
func (n *Notification) RemovePrivateRequest(userID string) bool {
	var ok bool
	n.ReceivedPrivateMessageRequest, ok = withoutUser(n.ReceivedPrivateMessageRequest, userID)
	return ok
}

// AddAcceptedPrivate records that userID accepted a sent request
func (n *Notification) AddAcceptedPrivate(userID string) {
	n.AcceptedSentPrivateMessageRequest = append(n.AcceptedSentPrivateMessageRequest, newUserEntry(userID))
}

// AddDeclinedPrivate records that userID declined a sent request
func (n *Notification) AddDeclinedPrivate(userID string) {
	n.DeclinedSentPrivateMessageRequest = append(n.DeclinedSentPrivateMessageRequest, newUserEntry(userID))
}

// AddAcceptedGroup records that the admin of groupID accepted a join request
func (n *Notification) AddAcceptedGroup(groupID string) {
	n.AcceptedSentGroupJoinRequest = append(n.AcceptedSentGroupJoinRequest, newGroupEntry(groupID))
}

// AddDeclinedGroup records that the admin of groupID declined a join request
func (n *Notification) AddDeclinedGroup(groupID string) {
	n.DeclinedSentGroupJoinRequest = append(n.DeclinedSentGroupJoinRequest, newGroupEntry(groupID))
}

// GroupRequests returns the grouping of groupName
func (n *Notification) GroupRequests(groupName string) (*GroupRequests, bool) {
	for i := range n.ReceivedGroupJoinRequestAsAdmin {
		if n.ReceivedGroupJoinRequestAsAdmin[i].GroupName == groupName {
			return &n.ReceivedGroupJoinRequestAsAdmin[i], true
		}
	}
	return nil, false
}

// HasGroupRequest reports a pending join request of userID for groupName
func (n *Notification) HasGroupRequest(groupName, userID string) bool {
	g, ok := n.GroupRequests(groupName)
	return ok && containsUser(g.RequestedUsers, userID)
}

// AddGroupRequest records a join request, creating the grouping if needed
func (n *Notification) AddGroupRequest(groupName, userID string) bool {
	g, ok := n.GroupRequests(groupName)
	if !ok {
		n.ReceivedGroupJoinRequestAsAdmin = append(n.ReceivedGroupJoinRequestAsAdmin, GroupRequests{
			GroupName:      groupName,
			RequestedUsers: []UserEntry{newUserEntry(userID)},
		})
		return true
	}
	if containsUser(g.RequestedUsers, userID) {
		return false
	}
	g.RequestedUsers = append(g.RequestedUsers, newUserEntry(userID))
	return true
}

// RemoveGroupRequest removes a join request and drops the grouping once empty
func (n *Notification) RemoveGroupRequest(groupName, userID string) bool {
	g, ok := n.GroupRequests(groupName)
	if !ok {
		return false
	}
	if g.RequestedUsers, ok = withoutUser(g.RequestedUsers, userID); !ok {
		return false
	}
	n.dropEmptyGroupings()
	return true
}

func (n *Notification) dropEmptyGroupings() {
	n.ReceivedGroupJoinRequestAsAdmin = lo.Reject(n.ReceivedGroupJoinRequestAsAdmin, func(g GroupRequests, _ int) bool {
		return len(g.RequestedUsers) == 0
	})
}

// MarkAllSeen sets every unseen flag, nested ones included. Returns the number flipped.
func (n *Notification) MarkAllSeen() int {
	flipped := 0
	seeUsers := func(entries []UserEntry) {
		for i := range entries {
			if !entries[i].Seen {
				entries[i].Seen = true
				flipped++
			}
		}
	}
	seeGroups := func(entries []GroupEntry) {
		for i := range entries {
			if !entries[i].Seen {
				entries[i].Seen = true
				flipped++
			}
		}
	}
	seeUsers(n.ReceivedPrivateMessageRequest)
	seeUsers(n.AcceptedSentPrivateMessageRequest)
	seeUsers(n.DeclinedSentPrivateMessageRequest)
	for i := range n.ReceivedGroupJoinRequestAsAdmin {
		seeUsers(n.ReceivedGroupJoinRequestAsAdmin[i].RequestedUsers)
	}
	seeGroups(n.AcceptedSentGroupJoinRequest)
	seeGroups(n.DeclinedSentGroupJoinRequest)
	return flipped
}

// Len returns the number of addressable entries of a sub-list.
// The group join sub-list is addressed through its flattened requesters.
func (n *Notification) Len(subList string) (int, bool) {
	switch subList {
	case ReceivedPrivateMessageRequest:
		return len(n.ReceivedPrivateMessageRequest), true
	case AcceptedSentPrivateMessageRequest:
		return len(n.AcceptedSentPrivateMessageRequest), true
	case DeclinedSentPrivateMessageRequest:
		return len(n.DeclinedSentPrivateMessageRequest), true
	case ReceivedGroupJoinRequestAsAdmin:
		return lo.SumBy(n.ReceivedGroupJoinRequestAsAdmin, func(g GroupRequests) int { return len(g.RequestedUsers) }), true
	case AcceptedSentGroupJoinRequest:
		return len(n.AcceptedSentGroupJoinRequest), true
	case DeclinedSentGroupJoinRequest:
		return len(n.DeclinedSentGroupJoinRequest), true
	}
	return 0, false
}

// RequesterAt returns the requester of a pending request at index of a received
// sub-list, with its group name for group join requests. ok is false for
// history sub-lists. The caller checks bounds with Len.
func (n *Notification) RequesterAt(subList string, index int) (userID, groupName string, ok bool) {
	switch subList {
	case ReceivedPrivateMessageRequest:
		return n.ReceivedPrivateMessageRequest[index].UserID, "", true
	case ReceivedGroupJoinRequestAsAdmin:
		for _, g := range n.ReceivedGroupJoinRequestAsAdmin {
			if index < len(g.RequestedUsers) {
				return g.RequestedUsers[index].UserID, g.GroupName, true
			}
			index -= len(g.RequestedUsers)
		}
	}
	return "", "", false
}

// RemoveAt deletes the entry at index of subList. The caller checks bounds with Len.
func (n *Notification) RemoveAt(subList string, index int) {
	switch subList {
	case ReceivedPrivateMessageRequest:
		n.ReceivedPrivateMessageRequest = removeAt(n.ReceivedPrivateMessageRequest, index)
	case AcceptedSentPrivateMessageRequest:
		n.AcceptedSentPrivateMessageRequest = removeAt(n.AcceptedSentPrivateMessageRequest, index)
	case DeclinedSentPrivateMessageRequest:
		n.DeclinedSentPrivateMessageRequest = removeAt(n.DeclinedSentPrivateMessageRequest, index)
	case ReceivedGroupJoinRequestAsAdmin:
		for i := range n.ReceivedGroupJoinRequestAsAdmin {
			g := &n.ReceivedGroupJoinRequestAsAdmin[i]
			if index < len(g.RequestedUsers) {
				g.RequestedUsers = removeAt(g.RequestedUsers, index)
				break
			}
			index -= len(g.RequestedUsers)
		}
		n.dropEmptyGroupings()
	case AcceptedSentGroupJoinRequest:
		n.AcceptedSentGroupJoinRequest = removeAt(n.AcceptedSentGroupJoinRequest, index)
	case DeclinedSentGroupJoinRequest:
		n.DeclinedSentGroupJoinRequest = removeAt(n.DeclinedSentGroupJoinRequest, index)
	}
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i:i], s[i+1:]...)
}
