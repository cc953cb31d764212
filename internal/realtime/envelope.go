package realtime

import "encoding/json"

// Wire event names shared with the backend push channel.
const (
	// EventJoinRoom is emitted client->server to scope the connection
	// to a user's notification room.
	EventJoinRoom = "join_room"

	// EventNewNotification is delivered server->client when a
	// notification is created for the joined user.
	EventNewNotification = "new_notification"

	// EventRoomJoined is an optional server->client acknowledgment of a
	// join. Production code ignores it; tests use it to observe the
	// otherwise fire-and-forget join.
	EventRoomJoined = "room_joined"
)

// Envelope is the JSON frame exchanged on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NotificationEvent is the payload of a new_notification frame.
type NotificationEvent struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Tag     string `json:"tag,omitempty"`
}
