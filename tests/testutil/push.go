package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/ImaanAdrees/smartscribe/internal/realtime"
)

// PushServer is a WebSocket server speaking the push channel's envelope
// protocol. It records join_room emits, acknowledges them with
// room_joined, and can push new_notification frames to every connected
// client.
type PushServer struct {
	t      *testing.T
	server *httptest.Server
	joins  chan string

	mu     sync.Mutex
	conns  []*websocket.Conn
	dials  int
	reject bool
}

// NewPushServer starts a push server and closes it when the test ends.
func NewPushServer(t *testing.T) *PushServer {
	t.Helper()

	s := &PushServer{
		t:     t,
		joins: make(chan string, 16),
	}

	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/socket", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.dials++
		reject := s.reject
		s.mu.Unlock()

		if reject {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.serve(conn)
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// serve reads frames from one client until it disconnects.
func (s *PushServer) serve(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env realtime.Envelope
		if json.Unmarshal(data, &env) != nil {
			continue
		}
		if env.Event != realtime.EventJoinRoom {
			continue
		}

		var userID string
		_ = json.Unmarshal(env.Data, &userID)
		select {
		case s.joins <- userID:
		default:
		}

		ack, _ := json.Marshal(userID)
		frame, _ := json.Marshal(realtime.Envelope{
			Event: realtime.EventRoomJoined,
			Data:  ack,
		})
		s.writeFrame(conn, frame)
	}
}

// URL returns the HTTP base URL clients should be configured with.
func (s *PushServer) URL() string {
	return s.server.URL
}

// Joins exposes the user ids received via join_room, in arrival order.
func (s *PushServer) Joins() <-chan string {
	return s.joins
}

// DialCount returns how many connection attempts reached the server.
func (s *PushServer) DialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// SetReject makes subsequent upgrade attempts fail while set.
func (s *PushServer) SetReject(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = reject
}

// Push delivers a new_notification frame to every connected client.
func (s *PushServer) Push(ev realtime.NotificationEvent) {
	s.t.Helper()

	data, err := json.Marshal(ev)
	if err != nil {
		s.t.Fatalf("marshaling notification event: %v", err)
	}
	frame, err := json.Marshal(realtime.Envelope{
		Event: realtime.EventNewNotification,
		Data:  data,
	})
	if err != nil {
		s.t.Fatalf("marshaling envelope: %v", err)
	}

	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()

	for _, conn := range conns {
		s.writeFrame(conn, frame)
	}
}

// DropClients force-closes every live client connection.
func (s *PushServer) DropClients() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Close shuts the server down.
func (s *PushServer) Close() {
	s.DropClients()
	s.server.Close()
}

// writeFrame serializes writes so pushes and acks do not interleave.
func (s *PushServer) writeFrame(conn *websocket.Conn, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, frame)
}
