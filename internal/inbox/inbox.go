package inbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ImaanAdrees/smartscribe/internal/api"
	"github.com/ImaanAdrees/smartscribe/internal/model"
	"github.com/ImaanAdrees/smartscribe/internal/notify"
	"github.com/ImaanAdrees/smartscribe/internal/realtime"
	"github.com/ImaanAdrees/smartscribe/internal/store"
)

// defaultTag labels real-time arrivals that carry no origin tag.
const defaultTag = "SmartScribe"

// Backend is the subset of the REST client the inbox depends on.
type Backend interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
}

// Inbox owns the canonical in-memory notification list for the current
// session and reconciles its three inputs: server fetches, real-time
// pushes, and local mutations. No other component mutates this state.
//
// Two mutation strategies coexist deliberately: MarkAsRead confirms with
// the server before applying (a stale unread badge is low-severity), while
// Delete applies optimistically and rolls the whole prior state back on
// failure (a deleted item must never silently linger).
type Inbox struct {
	backend  Backend
	tokens   api.TokenSource
	cache    store.Store
	notifier notify.Notifier
	registry *realtime.Registry
	logger   *zap.Logger

	mu            sync.Mutex
	notifications []model.Notification
	unread        int
	loading       bool
	fetchSeq      uint64
	subscribed    bool
	unsubscribe   func()

	updates chan struct{}
}

// New creates an inbox with all collaborators injected. cache may be nil
// (no offline persistence); notifier may be nil (silent).
func New(
	backend Backend,
	tokens api.TokenSource,
	cache store.Store,
	notifier notify.Notifier,
	registry *realtime.Registry,
	logger *zap.Logger,
) *Inbox {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{
		backend:  backend,
		tokens:   tokens,
		cache:    cache,
		notifier: notifier,
		registry: registry,
		logger:   logger,
		updates:  make(chan struct{}, 16),
	}
}

// Updates signals whenever the observable state (list, unread count,
// loading flag) changes. Consumers poll the accessors after a signal.
// Signals are coalesced; a slow consumer loses no state, only wakeups.
func (in *Inbox) Updates() <-chan struct{} { return in.updates }

// Notifications returns a snapshot of the current list, newest first for
// real-time arrivals and server order for fetched history.
func (in *Inbox) Notifications() []model.Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]model.Notification, len(in.notifications))
	copy(out, in.notifications)
	return out
}

// UnreadCount returns the number of unread notifications in the list.
func (in *Inbox) UnreadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.unread
}

// IsLoading reports whether a fetch is in flight.
func (in *Inbox) IsLoading() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loading
}

// Start begins a session: restores the cached list for immediate display,
// subscribes to the real-time registry, and performs the initial fetch.
// Subscribing twice is a no-op.
func (in *Inbox) Start(ctx context.Context) {
	in.restoreCache(ctx)

	in.mu.Lock()
	if !in.subscribed && in.registry != nil {
		in.unsubscribe = in.registry.Subscribe(in.handleRealtime)
		in.subscribed = true
	}
	in.mu.Unlock()

	in.Fetch(ctx)
}

// Stop ends the session: releases the real-time subscription and clears
// all list state. Safe to call when not started.
func (in *Inbox) Stop() {
	in.mu.Lock()
	unsub := in.unsubscribe
	in.unsubscribe = nil
	in.subscribed = false
	in.notifications = nil
	in.unread = 0
	in.loading = false
	in.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	in.signal()
}

// Fetch reconciles the list against the backend. Without a session token
// it is a silent no-op: unauthenticated is a normal startup state. On
// success the list is replaced wholesale and the unread count recomputed
// from the list; a server-provided count is never trusted. On failure the
// prior state is kept and the error logged. Results are fenced by a
// monotonic sequence so a slow fetch never overwrites a newer one.
func (in *Inbox) Fetch(ctx context.Context) {
	token, err := in.tokens.Token()
	if err != nil || token == "" {
		return
	}

	in.mu.Lock()
	in.loading = true
	in.fetchSeq++
	seq := in.fetchSeq
	in.mu.Unlock()
	in.signal()

	list, fetchErr := in.backend.ListNotifications(ctx)

	in.mu.Lock()
	latest := seq == in.fetchSeq
	if latest {
		in.loading = false
	}
	if fetchErr != nil {
		in.mu.Unlock()
		in.logger.Error("notification fetch failed", zap.Error(fetchErr))
		in.signal()
		return
	}
	if !latest {
		in.mu.Unlock()
		in.logger.Info("discarding superseded fetch result",
			zap.Uint64("seq", seq))
		return
	}

	in.notifications = dedupeByID(list)
	in.unread = countUnread(in.notifications)
	snapshot := make([]model.Notification, len(in.notifications))
	copy(snapshot, in.notifications)
	in.mu.Unlock()
	in.signal()

	in.persist(ctx, snapshot)
}

// MarkAsRead confirms a notification as read with the backend and only
// then flips the local flag. Already-read (or unknown) ids are a no-op:
// no second network call, no double decrement.
func (in *Inbox) MarkAsRead(ctx context.Context, id string) {
	in.mu.Lock()
	idx := in.indexOf(id)
	if idx < 0 || in.notifications[idx].IsRead {
		in.mu.Unlock()
		return
	}
	in.mu.Unlock()

	if err := in.backend.MarkRead(ctx, id); err != nil {
		in.logger.Error("mark-as-read failed",
			zap.String("id", id), zap.Error(err))
		in.notifier.ShowTransient(notify.LevelError,
			"Sync Failed", "Could not mark notification as read")
		return
	}

	in.mu.Lock()
	// Re-check under lock: the item may have been deleted or flipped
	// while the confirmation was in flight. Decrement only when the
	// prior state provably allows it.
	idx = in.indexOf(id)
	if idx >= 0 && !in.notifications[idx].IsRead {
		in.notifications[idx].IsRead = true
		in.unread--
	}
	in.mu.Unlock()
	in.signal()

	if in.cache != nil {
		if err := in.cache.MarkRead(ctx, id); err != nil {
			in.logger.Warn("cache mark-read failed", zap.Error(err))
		}
	}
}

// Delete removes a notification optimistically, then confirms with the
// backend. On failure the entire prior list and unread count are restored
// verbatim; restoring only the one item could resurrect state clobbered
// by mutations that interleaved with the in-flight delete.
func (in *Inbox) Delete(ctx context.Context, id string) {
	in.mu.Lock()
	idx := in.indexOf(id)
	if idx < 0 {
		in.mu.Unlock()
		return
	}

	prevList := make([]model.Notification, len(in.notifications))
	copy(prevList, in.notifications)
	prevUnread := in.unread

	wasUnread := !in.notifications[idx].IsRead
	in.notifications = append(
		in.notifications[:idx:idx], in.notifications[idx+1:]...,
	)
	if wasUnread {
		in.unread--
	}
	in.mu.Unlock()
	in.signal()

	err := in.backend.DeleteNotification(ctx, id)
	if err == nil {
		in.notifier.ShowTransient(notify.LevelSuccess,
			"Deleted", "Notification removed")
		if in.cache != nil {
			if cerr := in.cache.Delete(ctx, id); cerr != nil {
				in.logger.Warn("cache delete failed", zap.Error(cerr))
			}
		}
		return
	}

	in.logger.Error("delete sync failed, rolling back",
		zap.String("id", id), zap.Error(err))

	in.mu.Lock()
	in.notifications = prevList
	in.unread = prevUnread
	in.mu.Unlock()
	in.signal()

	msg := "Failed to sync deletion with server"
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		msg = statusErr.Message
	}
	in.notifier.ShowTransient(notify.LevelError, "Sync Failed", msg)
}

// handleRealtime is the registry callback for pushed notifications. An
// arrival is always unread: prepend, bump the count, then fire the
// best-effort side effects.
func (in *Inbox) handleRealtime(ev realtime.NotificationEvent) {
	n := model.Notification{
		ID:         ev.ID,
		Title:      ev.Title,
		Message:    ev.Message,
		Type:       model.NotificationType(ev.Type),
		ReceivedAt: time.Now(),
		IsRead:     false,
		Tag:        ev.Tag,
	}
	if n.ID == "" {
		n.ID = "notif_" + uuid.New().String()
	}
	if !n.Type.Valid() {
		n.Type = model.TypeInfo
	}
	if n.Tag == "" {
		n.Tag = defaultTag
	}

	in.mu.Lock()
	// Guard the id-uniqueness invariant: a push racing the fetch that
	// already contains it is dropped, not double-entered.
	if in.indexOf(n.ID) >= 0 {
		in.mu.Unlock()
		in.logger.Info("dropping duplicate real-time notification",
			zap.String("id", n.ID))
		return
	}
	in.notifications = append(
		[]model.Notification{n}, in.notifications...,
	)
	in.unread++
	in.mu.Unlock()
	in.signal()

	in.notifier.PlayAlert()
	in.notifier.ShowTransient(toastLevel(n.Type), n.Title,
		n.Message+"\nSent by SmartScribe")
}

// restoreCache seeds the list from the local cache when it is empty, so
// the UI has content before the first fetch (or offline).
func (in *Inbox) restoreCache(ctx context.Context) {
	if in.cache == nil {
		return
	}

	in.mu.Lock()
	empty := len(in.notifications) == 0
	in.mu.Unlock()
	if !empty {
		return
	}

	cached, err := in.cache.List(ctx)
	if err != nil {
		in.logger.Warn("restoring cached notifications failed", zap.Error(err))
		return
	}
	if len(cached) == 0 {
		return
	}

	in.mu.Lock()
	if len(in.notifications) == 0 {
		in.notifications = dedupeByID(cached)
		in.unread = countUnread(in.notifications)
	}
	in.mu.Unlock()
	in.signal()
}

// persist writes the fetched list through to the local cache.
func (in *Inbox) persist(ctx context.Context, list []model.Notification) {
	if in.cache == nil {
		return
	}
	if err := in.cache.ReplaceAll(ctx, list); err != nil {
		in.logger.Warn("caching notifications failed", zap.Error(err))
	}
}

// indexOf returns the list index of id, or -1. Caller holds the lock.
func (in *Inbox) indexOf(id string) int {
	for i := range in.notifications {
		if in.notifications[i].ID == id {
			return i
		}
	}
	return -1
}

// signal wakes update listeners without ever blocking a mutation path.
func (in *Inbox) signal() {
	select {
	case in.updates <- struct{}{}:
	default:
	}
}

// toastLevel maps a notification type to its transient-message level.
func toastLevel(t model.NotificationType) notify.Level {
	switch t {
	case model.TypeAlert:
		return notify.LevelError
	case model.TypeSuccess:
		return notify.LevelSuccess
	default:
		return notify.LevelInfo
	}
}

// dedupeByID keeps the first occurrence of each id, preserving order.
func dedupeByID(list []model.Notification) []model.Notification {
	seen := make(map[string]bool, len(list))
	out := list[:0:0]
	for _, n := range list {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

// countUnread recomputes the unread count from the list itself.
func countUnread(list []model.Notification) int {
	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count
}
