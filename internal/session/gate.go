package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ImaanAdrees/smartscribe/internal/inbox"
	"github.com/ImaanAdrees/smartscribe/internal/realtime"
)

// fetchTimeout is the maximum time allowed for one fallback refresh.
const fetchTimeout = 30 * time.Second

// DefaultRefreshInterval is the fallback full-refresh cadence used while
// logged in, in case push delivery silently stalls.
const DefaultRefreshInterval = 5 * time.Minute

// Gate drives the notification layer's lifecycle in lockstep with login
// state. It is the only component that starts or stops the push
// connection and the inbox subscription.
type Gate struct {
	manager      *realtime.Manager
	inbox        *inbox.Inbox
	refreshEvery time.Duration
	logger       *zap.Logger

	mu          sync.Mutex
	loggedIn    bool
	maintenance bool
	stopRefresh chan struct{}
}

// New creates a session gate over the given connection manager and inbox.
// A non-positive refreshEvery falls back to DefaultRefreshInterval.
func New(
	manager *realtime.Manager,
	ib *inbox.Inbox,
	refreshEvery time.Duration,
	logger *zap.Logger,
) *Gate {
	if refreshEvery <= 0 {
		refreshEvery = DefaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		manager:      manager,
		inbox:        ib,
		refreshEvery: refreshEvery,
		logger:       logger,
	}
}

// OnLoginStateChange reacts to a login-state transition. false->true
// brings the connection up, joins the user's room, and starts the inbox
// session; true->false tears everything down and clears the list.
// Repeated same-state calls are no-ops, and logins during maintenance
// mode are ignored.
func (g *Gate) OnLoginStateChange(loggedIn bool, userID string) {
	g.mu.Lock()
	if loggedIn == g.loggedIn {
		g.mu.Unlock()
		return
	}
	if loggedIn && g.maintenance {
		g.mu.Unlock()
		g.logger.Info("ignoring login while in maintenance mode")
		return
	}
	g.loggedIn = loggedIn

	if loggedIn {
		stop := make(chan struct{})
		g.stopRefresh = stop
		g.mu.Unlock()

		g.logger.Info("session started", zap.String("user_id", userID))
		g.manager.Initialize()
		g.manager.JoinUserChannel(userID)

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		g.inbox.Start(ctx)
		cancel()

		go g.refreshLoop(stop)
		return
	}

	stop := g.stopRefresh
	g.stopRefresh = nil
	g.mu.Unlock()

	g.logger.Info("session ended")
	if stop != nil {
		close(stop)
	}
	g.inbox.Stop()
	g.manager.Disconnect()
}

// SetMaintenance toggles maintenance mode. While set, login transitions
// are ignored; an active session is ended.
func (g *Gate) SetMaintenance(on bool) {
	g.mu.Lock()
	g.maintenance = on
	active := on && g.loggedIn
	g.mu.Unlock()

	if active {
		g.logger.Info("maintenance mode entered, ending session")
		g.OnLoginStateChange(false, "")
	}
}

// LoggedIn reports the gate's current login state.
func (g *Gate) LoggedIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedIn
}

// refreshLoop periodically re-fetches the list as a safety net against
// missed push events. It exits when the session ends.
func (g *Gate) refreshLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(g.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(
				context.Background(), fetchTimeout,
			)
			g.inbox.Fetch(ctx)
			cancel()
		}
	}
}
