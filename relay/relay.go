// Package relay routes real-time events between sessions.
//
// One goroutine (Run) owns the presence registry and applies commands one at a
// time, so the registry needs no locking. Delivery goes through an Emitter,
// undeliverable events are dropped.
package relay

import (
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/presence"
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Event names on the wire
const (
	EventPrivateMessage       = "privatemessage"
	EventPrivateMessageUpdate = "privatemessage:update"
	EventGroupMessage         = "groupmessage"
	EventNotification         = "newNotification"
	EventPresence             = "presence"
)

// ErrStopped is returned once Run has returned
var ErrStopped = errors.New("relay: stopped")

// Emitter writes a frame to one session, false when it could not
type Emitter interface {
	Emit(sessionID string, frame []byte) bool
}

// Frame is the envelope of every event
type Frame struct {
	Event string
	Data  interface{}
}

// Presence is broadcast when a user connects or leaves
type Presence struct {
	UserName string
	Online   bool
}

type command struct {
	fn   func()
	done chan struct{}
}

// Relay owns the presence registry
type Relay struct {
	registry *presence.Registry
	emitter  Emitter
	commands chan command
	stopped  chan struct{}
}

// New creates a relay emitting through emitter
func New(emitter Emitter) *Relay {
	return &Relay{
		registry: presence.New(),
		emitter:  emitter,
		commands: make(chan command),
		stopped:  make(chan struct{}),
	}
}

// Run applies commands until ctx is done
func (r *Relay) Run(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-r.commands:
			c.fn()
			close(c.done)
		}
	}
}

// do runs fn on the relay goroutine and waits for it
func (r *Relay) do(ctx context.Context, fn func()) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case r.commands <- c:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func encode(event string, data interface{}) []byte {
	b, err := jsoniter.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		global.InternalLogger.WithField("event", event).Error("relay encode: " + err.Error())
		return nil
	}
	return b
}

func (r *Relay) emit(sessionID string, frame []byte) bool {
	if frame == nil {
		return false
	}
	if !r.emitter.Emit(sessionID, frame) {
		global.Logger.WithField("session", sessionID).Debug("relay frame dropped")
		return false
	}
	return true
}

func (r *Relay) broadcast(sessions []string, frame []byte) {
	for _, sessionID := range sessions {
		r.emit(sessionID, frame)
	}
}

func (r *Relay) others(except string) []string {
	sessions := r.registry.Sessions()
	out := sessions[:0]
	for _, s := range sessions {
		if s != except {
			out = append(out, s)
		}
	}
	return out
}

// Connect registers sessionID for identity and tells the other sessions
func (r *Relay) Connect(ctx context.Context, sessionID, identity string) error {
	return r.do(ctx, func() {
		previous, replaced := r.registry.Register(sessionID, identity)
		fields := logrus.Fields{"session": sessionID, "user": identity}
		if replaced {
			fields["previous"] = previous
		}
		global.Logger.WithFields(fields).Info("session registered")
		r.broadcast(r.others(sessionID), encode(EventPresence, Presence{UserName: identity, Online: true}))
	})
}

// Disconnect purges sessionID. When its identity has no other session left
// every remaining session is told it went offline.
func (r *Relay) Disconnect(ctx context.Context, sessionID string) error {
	return r.do(ctx, func() {
		identity, ok := r.registry.Disconnect(sessionID)
		if !ok {
			return
		}
		global.Logger.WithFields(logrus.Fields{"session": sessionID, "user": identity}).Info("session closed")
		if _, online := r.registry.LookupSession(identity); online {
			return
		}
		r.broadcast(r.registry.Sessions(), encode(EventPresence, Presence{UserName: identity, Online: false}))
	})
}

// JoinRoom opens roomID for sessionID, leaving its previous room
func (r *Relay) JoinRoom(ctx context.Context, sessionID, roomID string) error {
	return r.do(ctx, func() {
		r.registry.JoinRoom(sessionID, roomID)
	})
}

// LeaveRoom closes the room of sessionID
func (r *Relay) LeaveRoom(ctx context.Context, sessionID string) error {
	return r.do(ctx, func() {
		r.registry.LeaveRoom(sessionID)
	})
}

// PrivateMessage broadcasts message to its conversation room. A recipient
// online outside that room gets an out-of-room update instead.
func (r *Relay) PrivateMessage(ctx context.Context, message *models.Message) error {
	return r.do(ctx, func() {
		room := message.PrivateConversationID
		r.broadcast(r.registry.RoomSessions(room), encode(EventPrivateMessage, message))

		sessionID, ok := r.registry.LookupSession(message.To)
		if !ok || r.registry.InRoom(sessionID, room) {
			return
		}
		r.emit(sessionID, encode(EventPrivateMessageUpdate, message))
	})
}

// GroupMessage broadcasts message to the group room only
func (r *Relay) GroupMessage(ctx context.Context, message *models.Message) error {
	return r.do(ctx, func() {
		r.broadcast(r.registry.RoomSessions(message.GroupID), encode(EventGroupMessage, message))
	})
}

// Notify delivers payload to the session of recipient. Offline recipients
// are skipped and delivered is false.
func (r *Relay) Notify(ctx context.Context, recipient string, payload interface{}) (delivered bool, err error) {
	err = r.do(ctx, func() {
		sessionID, ok := r.registry.LookupSession(recipient)
		if !ok {
			return
		}
		delivered = r.emit(sessionID, encode(EventNotification, payload))
	})
	return delivered, err
}

// Online reports whether identity has a session
func (r *Relay) Online(ctx context.Context, identity string) (online bool, err error) {
	err = r.do(ctx, func() {
		_, online = r.registry.LookupSession(identity)
	})
	return online, err
}

// Notification types
const (
	NotifyPrivateRequest         = "privateMessageRequest"
	NotifyPrivateRequestAccepted = "privateMessageRequestAccepted"
	NotifyPrivateRequestDeclined = "privateMessageRequestDeclined"
	NotifyGroupRequest           = "groupJoinRequest"
	NotifyGroupRequestAccepted   = "groupJoinRequestAccepted"
	NotifyGroupRequestDeclined   = "groupJoinRequestDeclined"
	NotifyUnfriended             = "connectionEnded"
)

// Notification is the payload of a newNotification event
type Notification struct {
	Type      string
	From      string
	GroupName string `json:",omitempty"`
}
