package realtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

// Conn is one established bidirectional message connection.
type Conn interface {
	// ReadMessage blocks until the next full message arrives.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one full message.
	WriteMessage(data []byte) error

	// Close tears the connection down. Pending reads fail.
	Close() error
}

// Transport dials one flavor of push connection. The manager tries each
// configured transport in order on every connection attempt.
type Transport interface {
	Name() string
	Dial(ctx context.Context, baseURL string) (Conn, error)
}

// WebSocketTransport dials the backend's /socket endpoint over WebSocket.
type WebSocketTransport struct {
	Dialer *websocket.Dialer
}

// Name returns "websocket".
func (WebSocketTransport) Name() string { return "websocket" }

// Dial establishes the WebSocket connection, deriving the ws/wss URL from
// the backend's HTTP base URL.
func (t WebSocketTransport) Dial(ctx context.Context, baseURL string) (Conn, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	url := wsURL(baseURL) + "/socket"
	c, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return wsConn{c}, nil
}

// wsURL converts an http(s) base URL into its ws(s) equivalent.
func wsURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

// wsConn adapts *websocket.Conn to the Conn interface.
type wsConn struct {
	conn *websocket.Conn
}

func (c wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c wsConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c wsConn) Close() error {
	return c.conn.Close()
}
