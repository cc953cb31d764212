package inbox_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ImaanAdrees/smartscribe/internal/api"
	"github.com/ImaanAdrees/smartscribe/internal/inbox"
	"github.com/ImaanAdrees/smartscribe/internal/model"
	"github.com/ImaanAdrees/smartscribe/internal/notify"
	"github.com/ImaanAdrees/smartscribe/internal/realtime"
	"github.com/ImaanAdrees/smartscribe/tests/testutil"
)

func sampleList() []model.Notification {
	return []model.Notification{
		{ID: "1", Title: "Transcript ready", Type: model.TypeSuccess, IsRead: false},
		{ID: "2", Title: "Welcome", Type: model.TypeInfo, IsRead: true},
	}
}

func newInbox(backend inbox.Backend, notifier notify.Notifier) (*inbox.Inbox, *realtime.Registry) {
	registry := realtime.NewRegistry(nil)
	in := inbox.New(backend, api.StaticToken("tok"), nil, notifier, registry, nil)
	return in, registry
}

func TestFetchReplacesListAndRecomputesUnread(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	in, _ := newInbox(backend, nil)

	in.Fetch(context.Background())

	list := in.Notifications()
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("expected unread count 1, got %d", got)
	}
	if in.IsLoading() {
		t.Fatal("expected loading to be cleared after fetch")
	}

	// A smaller server list replaces the local one wholesale.
	backend.SetNotifications([]model.Notification{
		{ID: "9", Title: "Only one", IsRead: false},
	})
	in.Fetch(context.Background())

	list = in.Notifications()
	if len(list) != 1 || list[0].ID != "9" {
		t.Fatalf("expected wholesale replacement, got %+v", list)
	}
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("expected recomputed unread count 1, got %d", got)
	}
}

func TestFetchWithoutTokenIsSilentNoOp(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	registry := realtime.NewRegistry(nil)
	in := inbox.New(backend, api.StaticToken(""), nil, nil, registry, nil)

	in.Fetch(context.Background())

	if got := backend.ListCalls(); got != 0 {
		t.Fatalf("expected no backend call without a token, got %d", got)
	}
	if len(in.Notifications()) != 0 {
		t.Fatal("expected list to stay empty")
	}
}

func TestFetchFailureKeepsPriorState(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	in, _ := newInbox(backend, nil)

	in.Fetch(context.Background())
	backend.FailList(errors.New("network down"))
	in.Fetch(context.Background())

	if got := len(in.Notifications()); got != 2 {
		t.Fatalf("expected prior list kept on failure, got %d items", got)
	}
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("expected prior unread count kept, got %d", got)
	}
	if in.IsLoading() {
		t.Fatal("expected loading cleared after failed fetch")
	}
}

func TestFetchDeduplicatesServerList(t *testing.T) {
	backend := testutil.NewFakeBackend(
		model.Notification{ID: "1", Title: "first", IsRead: false},
		model.Notification{ID: "1", Title: "duplicate", IsRead: false},
		model.Notification{ID: "2", Title: "second", IsRead: false},
	)
	in, _ := newInbox(backend, nil)

	in.Fetch(context.Background())

	list := in.Notifications()
	if len(list) != 2 {
		t.Fatalf("expected duplicates collapsed, got %d items", len(list))
	}
	if list[0].Title != "first" {
		t.Fatalf("expected first occurrence kept, got %q", list[0].Title)
	}
	if got := in.UnreadCount(); got != 2 {
		t.Fatalf("expected unread count 2, got %d", got)
	}
}

func TestStaleFetchNeverOverwritesNewerResult(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	in, _ := newInbox(backend, nil)

	var calls int
	var mu sync.Mutex
	release := make(chan struct{})
	started := make(chan struct{})
	backend.OnList = func() {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
	}

	// The first fetch snapshots the old list, then stalls in flight.
	done := make(chan struct{})
	go func() {
		in.Fetch(context.Background())
		close(done)
	}()
	<-started

	// A second fetch sees the updated server list and completes first.
	backend.SetNotifications([]model.Notification{
		{ID: "3", Title: "newest", IsRead: false},
	})
	in.Fetch(context.Background())

	close(release)
	<-done

	list := in.Notifications()
	if len(list) != 1 || list[0].ID != "3" {
		t.Fatalf("stale fetch overwrote newer result: %+v", list)
	}
	if in.IsLoading() {
		t.Fatal("expected loading cleared")
	}
}

func TestRealtimeArrivalIsAlwaysUnreadAndPrepended(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	notifier := &testutil.RecordingNotifier{}
	in, registry := newInbox(backend, notifier)

	in.Start(context.Background())

	registry.Dispatch(realtime.NotificationEvent{
		ID:      "3",
		Title:   "Summary ready",
		Message: "Your meeting summary is available",
		Type:    "success",
	})
	registry.Dispatch(realtime.NotificationEvent{
		ID:      "4",
		Title:   "Storage warning",
		Message: "Running low on space",
		Type:    "alert",
	})

	list := in.Notifications()
	if len(list) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(list))
	}
	if list[0].ID != "4" || list[1].ID != "3" {
		t.Fatalf("expected newest-first order, got %s, %s", list[0].ID, list[1].ID)
	}
	if list[0].IsRead || list[1].IsRead {
		t.Fatal("real-time arrivals must be unread")
	}
	if got := in.UnreadCount(); got != 3 {
		t.Fatalf("expected unread count 3, got %d", got)
	}

	if got := notifier.Alerts(); got != 2 {
		t.Fatalf("expected 2 alert sounds, got %d", got)
	}

	toasts := notifier.Toasts()
	if len(toasts) != 2 {
		t.Fatalf("expected 2 toasts, got %d", len(toasts))
	}
	if toasts[0].Level != notify.LevelSuccess {
		t.Fatalf("expected success toast, got %v", toasts[0].Level)
	}
	if toasts[1].Level != notify.LevelError {
		t.Fatalf("expected error toast for alert type, got %v", toasts[1].Level)
	}
	for _, toast := range toasts {
		if !strings.HasSuffix(toast.Message, "Sent by SmartScribe") {
			t.Fatalf("expected sender suffix on toast, got %q", toast.Message)
		}
	}
}

func TestRealtimeArrivalFallbacks(t *testing.T) {
	backend := testutil.NewFakeBackend()
	in, registry := newInbox(backend, nil)
	in.Start(context.Background())

	registry.Dispatch(realtime.NotificationEvent{
		Title: "No id, unknown type",
		Type:  "bogus",
	})

	list := in.Notifications()
	if len(list) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(list))
	}
	n := list[0]
	if !strings.HasPrefix(n.ID, "notif_") {
		t.Fatalf("expected generated id with notif_ prefix, got %q", n.ID)
	}
	if n.Type != model.TypeInfo {
		t.Fatalf("expected unknown type coerced to info, got %q", n.Type)
	}
	if n.Tag != "SmartScribe" {
		t.Fatalf("expected default tag, got %q", n.Tag)
	}
	if n.ReceivedAt.IsZero() {
		t.Fatal("expected receipt time assigned")
	}
}

func TestRealtimeDuplicateIsDropped(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	in, registry := newInbox(backend, nil)
	in.Start(context.Background())

	registry.Dispatch(realtime.NotificationEvent{ID: "1", Title: "already here"})

	if got := len(in.Notifications()); got != 2 {
		t.Fatalf("expected duplicate push dropped, got %d items", got)
	}
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("expected unread count unchanged, got %d", got)
	}
}

func TestMarkAsReadConfirmsThenApplies(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	in, _ := newInbox(backend, nil)
	in.Fetch(context.Background())

	in.MarkAsRead(context.Background(), "1")

	if got := in.UnreadCount(); got != 0 {
		t.Fatalf("expected unread count 0, got %d", got)
	}
	if marked := backend.MarkedIDs(); len(marked) != 1 || marked[0] != "1" {
		t.Fatalf("expected one confirmation call for id 1, got %v", marked)
	}

	// Marking again must be a pure no-op: no network call, no decrement.
	in.MarkAsRead(context.Background(), "1")
	if got := len(backend.MarkedIDs()); got != 1 {
		t.Fatalf("expected no second confirmation call, got %d", got)
	}
	if got := in.UnreadCount(); got != 0 {
		t.Fatalf("expected unread count still 0, got %d", got)
	}

	// Already-read and unknown ids never reach the backend.
	in.MarkAsRead(context.Background(), "2")
	in.MarkAsRead(context.Background(), "missing")
	if got := len(backend.MarkedIDs()); got != 1 {
		t.Fatalf("expected no calls for read/unknown ids, got %d", got)
	}
}

func TestMarkAsReadFailureLeavesStateUntouched(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	notifier := &testutil.RecordingNotifier{}
	in, _ := newInbox(backend, notifier)
	in.Fetch(context.Background())

	backend.FailMarkRead(errors.New("network down"))
	in.MarkAsRead(context.Background(), "1")

	list := in.Notifications()
	if list[0].IsRead {
		t.Fatal("expected read flag unchanged on failure")
	}
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("expected unread count unchanged, got %d", got)
	}

	toasts := notifier.Toasts()
	if len(toasts) != 1 || toasts[0].Level != notify.LevelError {
		t.Fatalf("expected one error toast, got %+v", toasts)
	}
}

func TestDeleteAppliesOptimistically(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	notifier := &testutil.RecordingNotifier{}
	in, _ := newInbox(backend, notifier)
	in.Fetch(context.Background())

	in.Delete(context.Background(), "1")

	list := in.Notifications()
	if len(list) != 1 || list[0].ID != "2" {
		t.Fatalf("expected only id 2 left, got %+v", list)
	}
	if got := in.UnreadCount(); got != 0 {
		t.Fatalf("expected unread count 0 after deleting unread item, got %d", got)
	}
	if deleted := backend.DeletedIDs(); len(deleted) != 1 || deleted[0] != "1" {
		t.Fatalf("expected backend delete for id 1, got %v", deleted)
	}

	toasts := notifier.Toasts()
	if len(toasts) != 1 || toasts[0].Level != notify.LevelSuccess {
		t.Fatalf("expected one success toast, got %+v", toasts)
	}

	// Unknown ids are ignored entirely.
	in.Delete(context.Background(), "missing")
	if got := len(backend.DeletedIDs()); got != 1 {
		t.Fatalf("expected no backend call for unknown id, got %d", got)
	}
}

func TestDeleteRollsBackOnFailure(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	notifier := &testutil.RecordingNotifier{}
	in, _ := newInbox(backend, notifier)
	in.Fetch(context.Background())

	prevList := in.Notifications()
	prevUnread := in.UnreadCount()

	backend.FailDelete(&api.StatusError{StatusCode: 500, Message: "server exploded"})
	in.Delete(context.Background(), "1")

	list := in.Notifications()
	if len(list) != len(prevList) {
		t.Fatalf("expected full rollback, got %d items", len(list))
	}
	for i := range list {
		if list[i].ID != prevList[i].ID || list[i].IsRead != prevList[i].IsRead {
			t.Fatalf("rollback altered item %d: %+v vs %+v", i, list[i], prevList[i])
		}
	}
	if got := in.UnreadCount(); got != prevUnread {
		t.Fatalf("expected unread count restored to %d, got %d", prevUnread, got)
	}

	toasts := notifier.Toasts()
	if len(toasts) != 1 || toasts[0].Level != notify.LevelError {
		t.Fatalf("expected one error toast, got %+v", toasts)
	}
	if toasts[0].Message != "server exploded" {
		t.Fatalf("expected server message surfaced, got %q", toasts[0].Message)
	}
}

func TestDeleteFailureWithoutServerMessage(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	notifier := &testutil.RecordingNotifier{}
	in, _ := newInbox(backend, notifier)
	in.Fetch(context.Background())

	backend.FailDelete(errors.New("connection refused"))
	in.Delete(context.Background(), "1")

	toasts := notifier.Toasts()
	if len(toasts) != 1 {
		t.Fatalf("expected one toast, got %d", len(toasts))
	}
	if toasts[0].Message != "Failed to sync deletion with server" {
		t.Fatalf("expected fallback message, got %q", toasts[0].Message)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	in, registry := newInbox(backend, nil)

	in.Start(context.Background())
	if got := registry.Len(); got != 1 {
		t.Fatalf("expected one subscription after start, got %d", got)
	}

	// Starting again must not stack a second subscription.
	in.Start(context.Background())
	if got := registry.Len(); got != 1 {
		t.Fatalf("expected subscription to stay single, got %d", got)
	}

	in.Stop()
	if got := registry.Len(); got != 0 {
		t.Fatalf("expected subscription released on stop, got %d", got)
	}
	if len(in.Notifications()) != 0 || in.UnreadCount() != 0 {
		t.Fatal("expected list and unread count cleared on stop")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := testutil.NewTestStore(t)
	backend := testutil.NewFakeBackend(sampleList()...)
	registry := realtime.NewRegistry(nil)
	in := inbox.New(backend, api.StaticToken("tok"), cache, nil, registry, nil)

	in.Start(context.Background())
	in.Stop()

	// A fresh inbox over the same cache starts with the cached list even
	// though every fetch fails.
	backend2 := testutil.NewFakeBackend()
	backend2.FailList(errors.New("offline"))
	in2 := inbox.New(backend2, api.StaticToken("tok"), cache, nil, registry, nil)
	in2.Start(context.Background())

	list := in2.Notifications()
	if len(list) != 2 {
		t.Fatalf("expected cached list restored, got %d items", len(list))
	}
	if got := in2.UnreadCount(); got != 1 {
		t.Fatalf("expected unread recomputed from cache, got %d", got)
	}
}

func TestSequencedSessionScenario(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	notifier := &testutil.RecordingNotifier{}
	in, registry := newInbox(backend, notifier)

	// Initial fetch: one unread, one read.
	in.Start(context.Background())
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("after fetch: expected unread 1, got %d", got)
	}

	// A push arrives: prepended and unread.
	registry.Dispatch(realtime.NotificationEvent{
		ID: "3", Title: "New recording", Type: "info",
	})
	if got := in.UnreadCount(); got != 2 {
		t.Fatalf("after push: expected unread 2, got %d", got)
	}

	// Reading the new arrival brings the count back down.
	in.MarkAsRead(context.Background(), "3")
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("after mark read: expected unread 1, got %d", got)
	}

	// Deleting id 1 fails on the backend and rolls back fully.
	backend.FailDelete(errors.New("boom"))
	in.Delete(context.Background(), "1")

	list := in.Notifications()
	if len(list) != 3 {
		t.Fatalf("after rollback: expected 3 items, got %d", len(list))
	}
	if got := in.UnreadCount(); got != 1 {
		t.Fatalf("after rollback: expected unread 1, got %d", got)
	}

	// Retrying after the backend recovers removes it for good.
	backend.FailDelete(nil)
	in.Delete(context.Background(), "1")
	if got := len(in.Notifications()); got != 2 {
		t.Fatalf("after retry: expected 2 items, got %d", got)
	}
	if got := in.UnreadCount(); got != 0 {
		t.Fatalf("after retry: expected unread 0, got %d", got)
	}
}

func TestUpdatesSignalCoalesces(t *testing.T) {
	backend := testutil.NewFakeBackend(sampleList()...)
	in, _ := newInbox(backend, nil)

	// Burst more mutations than the signal buffer holds; nothing blocks.
	for i := 0; i < 100; i++ {
		in.Fetch(context.Background())
	}

	select {
	case <-in.Updates():
	case <-time.After(time.Second):
		t.Fatal("expected at least one update signal")
	}
}
