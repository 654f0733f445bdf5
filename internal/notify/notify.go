package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Severity of a notification.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Notifier is the fire-and-forget toast collaborator.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Func adapts a function to Notifier.
type Func func(message string, severity Severity)

func (f Func) Notify(message string, severity Severity) { f(message, severity) }

// Discard drops notifications.
var Discard Notifier = Func(func(string, Severity) {})

// Logged forwards to next and mirrors every notification to the log.
func Logged(log zerolog.Logger, next Notifier) Notifier {
	return Func(func(message string, severity Severity) {
		ev := log.Info()
		switch severity {
		case Error:
			ev = log.Error()
		case Warning:
			ev = log.Warn()
		}
		ev.Str("severity", string(severity)).Msg(message)
		if next != nil {
			next.Notify(message, severity)
		}
	})
}

// Entry is a recorded notification.
type Entry struct {
	Message  string
	Severity Severity
}

// Recorder keeps every notification; used by tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Message: message, Severity: severity})
}

// Entries returns a copy of what was recorded.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Last returns the most recent entry, if any.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}
