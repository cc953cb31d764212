package app

import (
	"fmt"
	"os"

	"github.com/ImaanAdrees/smartscribe/internal/notify"
)

// Toast is one transient message queued for on-screen display.
type Toast struct {
	Level   notify.Level
	Title   string
	Message string
}

// Notifier adapts the notification side effects to the terminal: the
// audible alert is the terminal bell, and transient messages flow to the
// UI loop over a buffered channel.
type Notifier struct {
	sound  bool
	toasts chan Toast
}

// NewNotifier creates a terminal notifier. When sound is false the bell
// is suppressed.
func NewNotifier(sound bool) *Notifier {
	return &Notifier{
		sound:  sound,
		toasts: make(chan Toast, 16),
	}
}

// PlayAlert rings the terminal bell.
func (n *Notifier) PlayAlert() {
	if !n.sound {
		return
	}
	fmt.Fprint(os.Stderr, "\a")
}

// ShowTransient queues a toast for the UI. If the UI is not draining the
// channel the toast is dropped rather than blocking the caller.
func (n *Notifier) ShowTransient(level notify.Level, title, message string) {
	select {
	case n.toasts <- Toast{Level: level, Title: title, Message: message}:
	default:
	}
}

// Toasts returns the channel the UI drains for transient messages.
func (n *Notifier) Toasts() <-chan Toast {
	return n.toasts
}
