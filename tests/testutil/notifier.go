package testutil

import (
	"sync"

	"github.com/ImaanAdrees/smartscribe/internal/notify"
)

// ToastRecord is one transient message captured by RecordingNotifier.
type ToastRecord struct {
	Level   notify.Level
	Title   string
	Message string
}

// RecordingNotifier captures alert and toast side effects for assertions.
type RecordingNotifier struct {
	mu     sync.Mutex
	alerts int
	toasts []ToastRecord
}

// PlayAlert counts the audible alert.
func (n *RecordingNotifier) PlayAlert() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts++
}

// ShowTransient records the toast.
func (n *RecordingNotifier) ShowTransient(level notify.Level, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, ToastRecord{
		Level:   level,
		Title:   title,
		Message: message,
	})
}

// Alerts returns how many times the alert sound fired.
func (n *RecordingNotifier) Alerts() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.alerts
}

// Toasts returns the captured toasts in order.
func (n *RecordingNotifier) Toasts() []ToastRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ToastRecord(nil), n.toasts...)
}
