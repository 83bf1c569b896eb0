package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndDisconnect(t *testing.T) {
	req := require.New(t)
	r := New()

	r.Register("s1", "alice")
	s, ok := r.LookupSession("alice")
	req.True(ok)
	req.Equal("s1", s)

	identity, ok := r.Disconnect("s1")
	req.True(ok)
	req.Equal("alice", identity)

	_, ok = r.LookupSession("alice")
	req.False(ok)
	_, ok = r.LookupIdentity("s1")
	req.False(ok)

	_, ok = r.Disconnect("s1")
	req.False(ok)
}

func TestRegistry_LatestSessionWins(t *testing.T) {
	req := require.New(t)
	r := New()

	r.Register("s1", "alice")
	previous, replaced := r.Register("s2", "alice")
	req.True(replaced)
	req.Equal("s1", previous)

	r.Disconnect("s1")
	s, ok := r.LookupSession("alice")
	req.True(ok, "closing the stale session keeps the newer one")
	req.Equal("s2", s)

	_, replaced = r.Register("s2", "alice")
	req.False(replaced)
}

func TestRegistry_Rooms(t *testing.T) {
	req := require.New(t)
	r := New()
	r.Register("s1", "alice")
	r.Register("s2", "bob")

	r.JoinRoom("s1", "c1")
	r.JoinRoom("s2", "c1")
	req.Equal([]string{"s1", "s2"}, r.RoomSessions("c1"))

	r.JoinRoom("s1", "c2")
	room, ok := r.CurrentRoom("s1")
	req.True(ok)
	req.Equal("c2", room)
	req.Equal([]string{"s2"}, r.RoomSessions("c1"), "a session is in one room at a time")
	req.True(r.InRoom("s2", "c1"))
	req.False(r.InRoom("s1", "c1"))

	left, ok := r.LeaveRoom("s2")
	req.True(ok)
	req.Equal("c1", left)
	req.Empty(r.RoomSessions("c1"))

	r.Disconnect("s1")
	req.Empty(r.RoomSessions("c2"))
	_, ok = r.CurrentRoom("s1")
	req.False(ok)
	req.Equal([]string{"s2"}, r.Sessions())
	req.Equal([]string{"bob"}, r.Online())
}
