package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotification_GroupRequests(t *testing.T) {
	req := require.New(t)
	n := NewNotification("admin")

	req.True(n.AddGroupRequest("gophers", "u1"))
	req.True(n.AddGroupRequest("gophers", "u2"))
	req.False(n.AddGroupRequest("gophers", "u1"))
	req.True(n.AddGroupRequest("rustaceans", "u1"))
	req.Len(n.ReceivedGroupJoinRequestAsAdmin, 2)

	req.True(n.RemoveGroupRequest("gophers", "u1"))
	req.True(n.HasGroupRequest("gophers", "u2"))
	req.True(n.RemoveGroupRequest("gophers", "u2"))

	_, ok := n.GroupRequests("gophers")
	req.False(ok, "empty grouping must be dropped")
	req.Len(n.ReceivedGroupJoinRequestAsAdmin, 1)
	req.False(n.RemoveGroupRequest("gophers", "u2"))
}

func TestNotification_MarkAllSeen(t *testing.T) {
	req := require.New(t)
	n := NewNotification("me")
	n.AddPrivateRequest("a")
	n.AddAcceptedPrivate("b")
	n.AddDeclinedPrivate("c")
	n.AddGroupRequest("g", "d")
	n.AddGroupRequest("g", "e")
	n.AddAcceptedGroup("g1")
	n.AddDeclinedGroup("g2")
	n.ReceivedGroupJoinRequestAsAdmin[0].RequestedUsers[1].Seen = true

	req.Equal(6, n.MarkAllSeen())

	for _, e := range n.ReceivedPrivateMessageRequest {
		req.True(e.Seen)
	}
	for _, e := range n.ReceivedGroupJoinRequestAsAdmin[0].RequestedUsers {
		req.True(e.Seen)
	}
	req.True(n.AcceptedSentGroupJoinRequest[0].Seen)
	req.True(n.DeclinedSentGroupJoinRequest[0].Seen)

	req.Zero(n.MarkAllSeen(), "seen flags never flip back")
}

func TestNotification_RemoveAt_FlattenedGroupRequests(t *testing.T) {
	req := require.New(t)
	n := NewNotification("admin")
	n.AddGroupRequest("g1", "a")
	n.AddGroupRequest("g2", "b")
	n.AddGroupRequest("g2", "c")

	size, ok := n.Len(ReceivedGroupJoinRequestAsAdmin)
	req.True(ok)
	req.Equal(3, size)

	n.RemoveAt(ReceivedGroupJoinRequestAsAdmin, 0)
	req.Len(n.ReceivedGroupJoinRequestAsAdmin, 1)
	req.Equal("g2", n.ReceivedGroupJoinRequestAsAdmin[0].GroupName)

	n.RemoveAt(ReceivedGroupJoinRequestAsAdmin, 1)
	req.Equal("b", n.ReceivedGroupJoinRequestAsAdmin[0].RequestedUsers[0].UserID)

	_, ok = n.Len("unknown")
	req.False(ok)
}

func TestPairKey_IsOrderIndependent(t *testing.T) {
	require.Equal(t, PairKey("b", "a"), PairKey("a", "b"))
}

func TestNotification_RequesterAt(t *testing.T) {
	req := require.New(t)
	n := NewNotification("admin")
	req.True(n.AddPrivateRequest("alice"))
	req.True(n.AddGroupRequest("gophers", "u1"))
	req.True(n.AddGroupRequest("rustaceans", "u2"))

	id, group, ok := n.RequesterAt(ReceivedPrivateMessageRequest, 0)
	req.True(ok)
	req.Equal("alice", id)
	req.Empty(group)

	id, group, ok = n.RequesterAt(ReceivedGroupJoinRequestAsAdmin, 1)
	req.True(ok)
	req.Equal("u2", id)
	req.Equal("rustaceans", group)

	_, _, ok = n.RequesterAt(AcceptedSentPrivateMessageRequest, 0)
	req.False(ok)
}
