package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ImaanAdrees/smartscribe/internal/model"
)

// Policy bounds the reconnect behavior of the push connection: a fixed
// number of attempts with a linearly growing delay between a floor and a
// ceiling.
type Policy struct {
	Attempts int
	Delay    time.Duration
	DelayMax time.Duration
}

// DefaultPolicy mirrors the production reconnect settings: 5 attempts,
// 1s backoff floor, 5s ceiling.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 5,
		Delay:    time.Second,
		DelayMax: 5 * time.Second,
	}
}

// PolicyFromConfig builds a Policy from app configuration, falling back to
// defaults for zero values.
func PolicyFromConfig(cfg model.RealtimeConfig) Policy {
	p := DefaultPolicy()
	if cfg.ReconnectAttempts > 0 {
		p.Attempts = cfg.ReconnectAttempts
	}
	if cfg.ReconnectDelayMS > 0 {
		p.Delay = time.Duration(cfg.ReconnectDelayMS) * time.Millisecond
	}
	if cfg.ReconnectDelayMaxMS > 0 {
		p.DelayMax = time.Duration(cfg.ReconnectDelayMaxMS) * time.Millisecond
	}
	return p
}

// Manager owns the single long-lived push connection to the backend and
// hides the reconnect policy from callers. Notification delivery is
// best-effort: connection-level failures are logged, never returned, and
// the connection self-heals within the policy's bounds.
//
// The manager is constructed explicitly and injected where needed; there
// is deliberately no package-level instance.
type Manager struct {
	baseURL    string
	policy     Policy
	transports []Transport
	registry   *Registry
	logger     *zap.Logger

	mu         sync.Mutex
	conn       Conn
	connecting bool
	gen        uint64
	joinedUser string
	cancel     context.CancelFunc

	joinAcks chan string
}

// NewManager creates a connection manager for the given backend base URL.
// When no transports are passed, WebSocket is used.
func NewManager(baseURL string, policy Policy, logger *zap.Logger, transports ...Transport) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(transports) == 0 {
		transports = []Transport{WebSocketTransport{}}
	}
	return &Manager{
		baseURL:    baseURL,
		policy:     policy,
		transports: transports,
		registry:   NewRegistry(logger),
		logger:     logger,
		joinAcks:   make(chan string, 4),
	}
}

// Registry returns the fan-out registry bound to this connection.
func (m *Manager) Registry() *Registry { return m.registry }

// Initialize brings the connection up if it is not already up or being
// brought up. It is idempotent, returns immediately, and never reports an
// error: connectivity loss is an expected condition handled by the
// reconnect policy.
func (m *Manager) Initialize() {
	m.mu.Lock()
	if m.conn != nil || m.connecting {
		m.mu.Unlock()
		return
	}
	m.connecting = true
	m.gen++
	gen := m.gen
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	go m.connect(ctx, gen)
}

// Connected reports whether a live connection currently exists.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// JoinUserChannel emits a join request scoped to the given user. The join
// is fire-and-forget; no acknowledgment is awaited. If the connection does
// not exist yet it is created first and the join is emitted once the dial
// completes. The joined user is remembered so a reconnect rejoins the
// same room.
func (m *Manager) JoinUserChannel(userID string) {
	if userID == "" {
		return
	}

	m.mu.Lock()
	m.joinedUser = userID
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		m.Initialize()
		return
	}
	m.emitJoin(conn, userID)
}

// JoinAcks exposes join acknowledgments from the server. Production code
// ignores this channel; tests use it to observe the fire-and-forget join.
func (m *Manager) JoinAcks() <-chan string { return m.joinAcks }

// Disconnect tears the connection down and clears all subscriber state.
// Safe to call when no connection exists.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	conn := m.conn
	cancel := m.cancel
	m.conn = nil
	m.cancel = nil
	m.connecting = false
	m.joinedUser = ""
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			m.logger.Warn("closing push connection", zap.Error(err))
		}
		m.logger.Info("push connection closed")
	}
	m.registry.Clear()
}

// connect dials under the reconnect policy and, on success, installs the
// connection, replays the pending join, and starts the read loop. A stale
// generation (Disconnect raced the dial) closes the fresh connection
// instead of installing it.
func (m *Manager) connect(ctx context.Context, gen uint64) {
	conn, err := m.dial(ctx)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	m.connecting = false
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("push connection unavailable", zap.Error(err))
		return
	}
	m.conn = conn
	user := m.joinedUser
	m.mu.Unlock()

	m.logger.Info("push connection established")
	if user != "" {
		m.emitJoin(conn, user)
	}

	go m.readLoop(ctx, conn, gen)
}

// dial tries every transport in order on each attempt, backing off between
// attempts per the policy.
func (m *Manager) dial(ctx context.Context) (Conn, error) {
	delay := m.policy.Delay
	var lastErr error

	for attempt := 0; attempt < m.policy.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay += m.policy.Delay
			if delay > m.policy.DelayMax {
				delay = m.policy.DelayMax
			}
		}

		for _, t := range m.transports {
			conn, err := t.Dial(ctx, m.baseURL)
			if err != nil {
				lastErr = err
				m.logger.Warn("transport dial failed",
					zap.String("transport", t.Name()),
					zap.Int("attempt", attempt+1),
					zap.Error(err),
				)
				continue
			}
			return conn, nil
		}
	}

	return nil, fmt.Errorf("reconnect attempts exhausted (%d): %w",
		m.policy.Attempts, lastErr)
}

// readLoop consumes frames until the connection drops, then redials under
// the same generation. A generation bump (Disconnect) ends the loop.
func (m *Manager) readLoop(ctx context.Context, conn Conn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			current := gen == m.gen
			if current {
				m.conn = nil
				m.connecting = true
			}
			m.mu.Unlock()

			if !current {
				return
			}
			m.logger.Warn("push connection lost", zap.Error(err))
			m.connect(ctx, gen)
			return
		}
		m.handleFrame(data)
	}
}

// handleFrame decodes one inbound envelope and routes it.
func (m *Manager) handleFrame(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.logger.Warn("undecodable push frame", zap.Error(err))
		return
	}

	switch env.Event {
	case EventNewNotification:
		var ev NotificationEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			m.logger.Warn("undecodable notification payload", zap.Error(err))
			return
		}
		m.registry.Dispatch(ev)

	case EventRoomJoined:
		var room string
		_ = json.Unmarshal(env.Data, &room)
		select {
		case m.joinAcks <- room:
		default:
		}

	default:
		m.logger.Debug("ignoring push event", zap.String("event", env.Event))
	}
}

// emitJoin writes the join_room envelope. Failure is logged only; the
// caller never learns of it.
func (m *Manager) emitJoin(conn Conn, userID string) {
	data, _ := json.Marshal(userID)
	frame, _ := json.Marshal(Envelope{Event: EventJoinRoom, Data: data})
	if err := conn.WriteMessage(frame); err != nil {
		m.logger.Warn("join emit failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}
	m.logger.Info("joined notification room", zap.String("user_id", userID))
}
