package socket

import (
	"SOCIAL_server/global"
	"SOCIAL_server/models"
	"SOCIAL_server/relay"
	"SOCIAL_server/store"
	"context"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Server serves websocket clients through the relay
type Server struct {
	sessions *Sessions
	relay    *relay.Relay
	store    store.Store
	timeout  time.Duration
}

// NewServer creates a websocket server. The relay must emit through sessions.
func NewServer(sessions *Sessions, r *relay.Relay, s store.Store, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Server{sessions: sessions, relay: r, store: s, timeout: timeout}
}

func (s *Server) write_message(WSID string, event string, data interface{}) {

	b, err := jsoniter.Marshal(construct_ws_message(event, data))
	if err != nil {
		global.InternalLogger.WithField("event", event).Error("jsoniter_marshal: " + err.Error())
		return
	}

	s.sessions.Emit(WSID, b)
}

func handleWebsocketError(c *websocket.Conn, problem string, err string) {
	global.MonitorLogger.WithFields(logrus.Fields{
		"ip":      c.RemoteAddr().String(),
		"problem": problem,
	}).Warn(err)
}

// msg_chan_send is the only writer of ws
func msg_chan_send(ws *websocket.Conn, msg_chan chan []byte) {
	for b := range msg_chan {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			handleWebsocketError(ws, "websocket_write", err.Error())
			ws.Close()
			return
		}
	}
}

// ClientSocket handles a websocket client authenticated by AuthenticateStream
func (s *Server) ClientSocket(ws *websocket.Conn) {

	defer func() {
		if ws != nil && ws.Conn != nil {
			ws.Close()
		}
	}()

	username, _ := ws.Locals("username").(string)
	if username == "" {
		handleWebsocketError(ws, "websocket_auth", "missing username")
		return
	}

	WSID, msg_chan, err := s.sessions.create_connection()
	if err != nil {
		handleWebsocketError(ws, "create_connection", err.Error())
		return
	}
	defer s.sessions.delete_connection(WSID)

	go msg_chan_send(ws, msg_chan)

	s.write_message(WSID, EventConnected, connected_data{
		WSID:     WSID,
		UserName: username,
	})

	if err = s.relay.Connect(global.Context, WSID, username); err != nil {
		handleWebsocketError(ws, "relay_connect", err.Error())
		return
	}
	defer func() {
		if err := s.relay.Disconnect(global.Context, WSID); err != nil {
			global.InternalLogger.WithField("session", WSID).Error("relay_disconnect: " + err.Error())
		}
	}()

	var (
		mt int
		b  []byte
	)
	for {

		if err = ws.SetReadDeadline(time.Now().Add(MAX_WS_CONNECTION_TIME)); err != nil {
			handleWebsocketError(ws, "websocket_read_deadline", err.Error())
			break
		}

		if mt, b, err = ws.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !strings.Contains(err.Error(), "i/o timeout") {
				handleWebsocketError(ws, "websocket_read", err.Error())
			}
			break
		}
		if mt == websocket.BinaryMessage {
			handleWebsocketError(ws, "websocket_read", "binary message")
			break
		}

		event := jsoniter.Get(b, "Event").ToString()
		if problem := s.handle(WSID, username, event, jsoniter.Get(b, "Data")); problem != "" {
			handleWebsocketError(ws, "event:"+event, problem)
			s.write_message(WSID, EventError, error_data{
				Event:   event,
				Problem: problem,
			})
		}
	}
}

// handle applies one client event, returning a problem when it was refused
func (s *Server) handle(WSID, username, event string, data jsoniter.Any) string {

	ctx, cancel := context.WithTimeout(global.Context, s.timeout)
	defer cancel()

	switch event {
	case EventPing:
		s.write_message(WSID, EventPong, nil)
	case EventJoinRoom:
		room := new(room_data)
		data.ToVal(room)
		if room.RoomID == "" || !s.can_join(ctx, username, room.RoomID) {
			return "room not allowed"
		}
		if err := s.relay.JoinRoom(ctx, WSID, room.RoomID); err != nil {
			return err.Error()
		}
	case EventLeaveRoom:
		if err := s.relay.LeaveRoom(ctx, WSID); err != nil {
			return err.Error()
		}
	case EventPrivateMessage, EventGroupMessage:
		msg := new(message_data)
		data.ToVal(msg)
		message, err := s.store.GetMessage(ctx, msg.MessageID)
		if err != nil {
			return "message not found"
		}
		if message.From != username || message.IsGroupMsg != (event == EventGroupMessage) {
			return "message not allowed"
		}
		if message.IsGroupMsg {
			err = s.relay.GroupMessage(ctx, message)
		} else {
			err = s.relay.PrivateMessage(ctx, message)
		}
		if err != nil {
			return err.Error()
		}
	case EventNewNotification:
		notification := new(notification_data)
		data.ToVal(notification)
		if notification.Recipient == "" {
			return "missing recipient"
		}
		if _, err := s.relay.Notify(ctx, notification.Recipient, relay.Notification{
			Type:      notification.Type,
			From:      username,
			GroupName: notification.GroupName,
		}); err != nil {
			return err.Error()
		}
	default:
		return "unrecognized event"
	}
	return ""
}

// can_join reports whether username belongs to the conversation or group roomID
func (s *Server) can_join(ctx context.Context, username, roomID string) bool {

	user, err := s.store.GetUserByName(ctx, username)
	if err != nil {
		return false
	}

	conversation, err := s.store.GetPrivateConversation(ctx, roomID)
	if err == nil {
		return conversation.HasMember(user.ID)
	}

	var group *models.Group
	if group, err = s.store.GetGroup(ctx, roomID); err == nil {
		return group.IsMember(user.ID)
	}
	return false
}
