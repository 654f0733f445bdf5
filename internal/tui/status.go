package tui

import (
	"sync"
	"time"

	"github.com/doroshop/dsadmin/internal/notify"
)

const statusTTL = 6 * time.Second

// StatusLine is the notifier shown at the bottom of the screen. The newest
// message replaces the previous one and fades after a few seconds.
type StatusLine struct {
	mu       sync.Mutex
	message  string
	severity notify.Severity
	at       time.Time
	now      func() time.Time
}

func NewStatusLine() *StatusLine {
	return &StatusLine{now: time.Now}
}

func (s *StatusLine) Notify(message string, severity notify.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	s.severity = severity
	s.at = s.now()
}

// Current returns the visible message. Errors stay until replaced.
func (s *StatusLine) Current() (string, notify.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.message == "" {
		return "", ""
	}
	if s.severity != notify.Error && s.now().Sub(s.at) > statusTTL {
		return "", ""
	}
	return s.message, s.severity
}

func (s *StatusLine) view(width int) string {
	msg, sev := s.Current()
	if msg == "" {
		return ""
	}
	style, ok := statusStyles[string(sev)]
	if !ok {
		style = mutedStyle
	}
	if width > 0 {
		style = style.MaxWidth(width)
	}
	return style.Render(msg)
}
