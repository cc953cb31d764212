package notify

// Level categorizes a transient message for styling.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier is the side-effect capability the inbox invokes on real-time
// arrivals and mutation outcomes. Implementations must be safe for
// concurrent use and must swallow their own failures; a broken sound
// device or toast surface never affects list state.
type Notifier interface {
	// PlayAlert plays the audible new-notification cue. Best-effort.
	PlayAlert()

	// ShowTransient surfaces a short-lived message to the user.
	ShowTransient(level Level, title, message string)
}

// Nop discards all effects. Used in tests and headless runs.
type Nop struct{}

func (Nop) PlayAlert()                          {}
func (Nop) ShowTransient(Level, string, string) {}
