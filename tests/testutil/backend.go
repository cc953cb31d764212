package testutil

import (
	"context"
	"sync"

	"github.com/ImaanAdrees/smartscribe/internal/model"
)

// FakeBackend is an in-memory stand-in for the notification REST API.
// Errors can be injected per operation and every call is recorded.
type FakeBackend struct {
	// OnList, when set, runs inside ListNotifications before the result
	// is returned. Tests use it to stall or interleave fetches.
	OnList func()

	mu            sync.Mutex
	notifications []model.Notification

	listErr   error
	markErr   error
	deleteErr error

	listCalls  int
	markedIDs  []string
	deletedIDs []string
}

// NewFakeBackend creates a fake backend seeded with the given notifications.
func NewFakeBackend(seed ...model.Notification) *FakeBackend {
	b := &FakeBackend{}
	b.notifications = append(b.notifications, seed...)
	return b
}

// SetNotifications replaces the server-side list.
func (b *FakeBackend) SetNotifications(list []model.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append([]model.Notification(nil), list...)
}

// FailList makes ListNotifications return err (nil restores success).
func (b *FakeBackend) FailList(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErr = err
}

// FailMarkRead makes MarkRead return err (nil restores success).
func (b *FakeBackend) FailMarkRead(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markErr = err
}

// FailDelete makes DeleteNotification return err (nil restores success).
func (b *FakeBackend) FailDelete(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteErr = err
}

// ListNotifications returns a copy of the current server-side list.
func (b *FakeBackend) ListNotifications(_ context.Context) ([]model.Notification, error) {
	b.mu.Lock()
	b.listCalls++
	err := b.listErr
	out := append([]model.Notification(nil), b.notifications...)
	hook := b.OnList
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead records the call and flips the flag on the server-side copy.
func (b *FakeBackend) MarkRead(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.markErr != nil {
		return b.markErr
	}
	b.markedIDs = append(b.markedIDs, id)
	for i := range b.notifications {
		if b.notifications[i].ID == id {
			b.notifications[i].IsRead = true
		}
	}
	return nil
}

// DeleteNotification records the call and removes the server-side copy.
func (b *FakeBackend) DeleteNotification(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deletedIDs = append(b.deletedIDs, id)
	kept := b.notifications[:0]
	for _, n := range b.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	b.notifications = kept
	return nil
}

// ListCalls returns how many times ListNotifications ran.
func (b *FakeBackend) ListCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls
}

// MarkedIDs returns every id passed to MarkRead, in order.
func (b *FakeBackend) MarkedIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.markedIDs...)
}

// DeletedIDs returns every id passed to DeleteNotification, in order.
func (b *FakeBackend) DeletedIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deletedIDs...)
}
