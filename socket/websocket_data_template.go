package socket

// Client events
const (
	EventPing            = "ping"
	EventJoinRoom        = "joinRoom"
	EventLeaveRoom       = "leaveRoom"
	EventPrivateMessage  = "privatemessage"
	EventGroupMessage    = "groupmessage"
	EventNewNotification = "newNotification"
)

// Server events not emitted by the relay
const (
	EventConnected = "connected"
	EventPong      = "pong"
	EventError     = "error"
)

type ws_message struct {
	Event string
	Data  interface{}
}

func construct_ws_message(event string, data interface{}) ws_message {
	return ws_message{
		Event: event,
		Data:  data,
	}
}

//////////////////////////////////////// WEBSCOKET SERVER EVENT DATA ////////////////////////////////////////

// connected
type connected_data struct {
	WSID     string
	UserName string
}

// error
type error_data struct {
	Event   string
	Problem string
}

//////////////////////////////////////// WEBSCOKET CLIENT EVENT DATA ////////////////////////////////////////

// joinRoom
type room_data struct {
	RoomID string
}

// privatemessage, groupmessage
type message_data struct {
	MessageID string
}

// newNotification
type notification_data struct {
	Recipient string
	Type      string
	GroupName string
}
