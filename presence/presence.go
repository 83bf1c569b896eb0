// Package presence maps connected identities to their sessions and sessions
// to the room they have open.
//
// A Registry is not safe for concurrent use. It is owned by the relay loop.
package presence

import "sort"

// Registry is a bidirectional identity <-> session index plus room membership
type Registry struct {
	identities map[string]string // session -> identity
	sessions   map[string]string // identity -> session
	rooms      map[string]string // session -> room
	members    map[string]map[string]struct{}
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		identities: make(map[string]string),
		sessions:   make(map[string]string),
		rooms:      make(map[string]string),
		members:    make(map[string]map[string]struct{}),
	}
}

// Register binds sessionID to identity. The latest session of an identity
// wins and the previous one is returned, still open but no longer looked up.
func (r *Registry) Register(sessionID, identity string) (previous string, replaced bool) {
	if old, ok := r.identities[sessionID]; ok && old != identity && r.sessions[old] == sessionID {
		delete(r.sessions, old)
	}
	previous, replaced = r.sessions[identity]
	if previous == sessionID {
		previous, replaced = "", false
	}
	r.identities[sessionID] = identity
	r.sessions[identity] = sessionID
	return previous, replaced
}

// JoinRoom moves sessionID into roomID, leaving its previous room
func (r *Registry) JoinRoom(sessionID, roomID string) {
	r.LeaveRoom(sessionID)
	r.rooms[sessionID] = roomID
	set, ok := r.members[roomID]
	if !ok {
		set = make(map[string]struct{})
		r.members[roomID] = set
	}
	set[sessionID] = struct{}{}
}

// LeaveRoom removes sessionID from its room and returns the room left
func (r *Registry) LeaveRoom(sessionID string) (string, bool) {
	roomID, ok := r.rooms[sessionID]
	if !ok {
		return "", false
	}
	delete(r.rooms, sessionID)
	if set := r.members[roomID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.members, roomID)
		}
	}
	return roomID, true
}

// Disconnect purges sessionID and returns the identity it was bound to.
// The identity entry is only dropped while it still points at sessionID.
func (r *Registry) Disconnect(sessionID string) (string, bool) {
	r.LeaveRoom(sessionID)
	identity, ok := r.identities[sessionID]
	if !ok {
		return "", false
	}
	delete(r.identities, sessionID)
	if r.sessions[identity] == sessionID {
		delete(r.sessions, identity)
	}
	return identity, true
}

// LookupSession returns the current session of identity
func (r *Registry) LookupSession(identity string) (string, bool) {
	sessionID, ok := r.sessions[identity]
	return sessionID, ok
}

// LookupIdentity returns the identity bound to sessionID
func (r *Registry) LookupIdentity(sessionID string) (string, bool) {
	identity, ok := r.identities[sessionID]
	return identity, ok
}

// CurrentRoom returns the room sessionID has open
func (r *Registry) CurrentRoom(sessionID string) (string, bool) {
	roomID, ok := r.rooms[sessionID]
	return roomID, ok
}

// InRoom reports whether sessionID has roomID open
func (r *Registry) InRoom(sessionID, roomID string) bool {
	current, ok := r.rooms[sessionID]
	return ok && current == roomID
}

// RoomSessions lists the sessions in roomID, sorted
func (r *Registry) RoomSessions(roomID string) []string {
	set := r.members[roomID]
	out := make([]string, 0, len(set))
	for sessionID := range set {
		out = append(out, sessionID)
	}
	sort.Strings(out)
	return out
}

// Sessions lists every registered session, sorted
func (r *Registry) Sessions() []string {
	out := make([]string, 0, len(r.identities))
	for sessionID := range r.identities {
		out = append(out, sessionID)
	}
	sort.Strings(out)
	return out
}

// Online lists every identity with a session, sorted
func (r *Registry) Online() []string {
	out := make([]string, 0, len(r.sessions))
	for identity := range r.sessions {
		out = append(out, identity)
	}
	sort.Strings(out)
	return out
}
