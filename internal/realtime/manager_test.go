package realtime_test

import (
	"testing"
	"time"

	"github.com/ImaanAdrees/smartscribe/internal/realtime"
	"github.com/ImaanAdrees/smartscribe/tests/testutil"
)

// testPolicy keeps reconnect delays short so tests run fast.
func testPolicy() realtime.Policy {
	return realtime.Policy{
		Attempts: 5,
		Delay:    20 * time.Millisecond,
		DelayMax: 100 * time.Millisecond,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// expectJoin asserts the next join_room observed by the server.
func expectJoin(t *testing.T, server *testutil.PushServer, userID string) {
	t.Helper()
	select {
	case got := <-server.Joins():
		if got != userID {
			t.Fatalf("expected join for %q, got %q", userID, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for join of %q", userID)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	server := testutil.NewPushServer(t)
	m := realtime.NewManager(server.URL(), testPolicy(), nil)
	defer m.Disconnect()

	m.Initialize()
	m.Initialize()
	m.Initialize()

	waitFor(t, "connection", m.Connected)

	if got := server.DialCount(); got != 1 {
		t.Fatalf("expected a single dial, got %d", got)
	}
}

func TestJoinUserChannelConnectsAndJoins(t *testing.T) {
	server := testutil.NewPushServer(t)
	m := realtime.NewManager(server.URL(), testPolicy(), nil)
	defer m.Disconnect()

	// No Initialize first: the join itself must bring the connection up.
	m.JoinUserChannel("user-1")

	expectJoin(t, server, "user-1")

	// The server acknowledges, and the ack is observable.
	select {
	case room := <-m.JoinAcks():
		if room != "user-1" {
			t.Fatalf("expected ack for user-1, got %q", room)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for join ack")
	}
}

func TestPushDispatchesToSubscribers(t *testing.T) {
	server := testutil.NewPushServer(t)
	m := realtime.NewManager(server.URL(), testPolicy(), nil)
	defer m.Disconnect()

	received := make(chan realtime.NotificationEvent, 1)
	m.Registry().Subscribe(func(ev realtime.NotificationEvent) {
		received <- ev
	})

	m.JoinUserChannel("user-1")
	expectJoin(t, server, "user-1")

	server.Push(realtime.NotificationEvent{
		ID:    "n1",
		Title: "Transcript ready",
		Type:  "success",
	})

	select {
	case ev := <-received:
		if ev.ID != "n1" || ev.Title != "Transcript ready" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pushed notification")
	}
}

func TestReconnectRejoinsSameRoom(t *testing.T) {
	server := testutil.NewPushServer(t)
	m := realtime.NewManager(server.URL(), testPolicy(), nil)
	defer m.Disconnect()

	m.JoinUserChannel("user-1")
	expectJoin(t, server, "user-1")

	server.DropClients()

	// The manager must redial and replay the join without being asked.
	expectJoin(t, server, "user-1")
	waitFor(t, "reconnection", m.Connected)
}

func TestDisconnectClearsSubscribersAndState(t *testing.T) {
	server := testutil.NewPushServer(t)
	m := realtime.NewManager(server.URL(), testPolicy(), nil)

	m.Registry().Subscribe(func(realtime.NotificationEvent) {})
	m.JoinUserChannel("user-1")
	expectJoin(t, server, "user-1")

	m.Disconnect()

	if m.Connected() {
		t.Fatal("expected no connection after disconnect")
	}
	if got := m.Registry().Len(); got != 0 {
		t.Fatalf("expected registry cleared on disconnect, got %d", got)
	}
}

func TestDialGivesUpAfterBoundedAttempts(t *testing.T) {
	server := testutil.NewPushServer(t)
	server.SetReject(true)

	policy := realtime.Policy{
		Attempts: 3,
		Delay:    10 * time.Millisecond,
		DelayMax: 20 * time.Millisecond,
	}
	m := realtime.NewManager(server.URL(), policy, nil)
	defer m.Disconnect()

	m.Initialize()

	waitFor(t, "attempts to be exhausted", func() bool {
		return server.DialCount() >= 3
	})

	// Give the dial loop time to run past its bound, then verify it stopped.
	time.Sleep(200 * time.Millisecond)
	if got := server.DialCount(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
	if m.Connected() {
		t.Fatal("expected no connection against a rejecting server")
	}
}
