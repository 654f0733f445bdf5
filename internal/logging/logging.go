package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// File is an open log destination. Close releases the file.
type File struct {
	Logger zerolog.Logger
	file   *os.File
}

// Open appends structured logs to path. The console owns the terminal, so it
// never logs to stdout.
func Open(path, level string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return &File{Logger: Nop()}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return &File{Logger: New(zerolog.SyncWriter(f), level), file: f}, nil
}

func (f *File) Close() error {
	if f == nil || f.file == nil {
		return nil
	}
	return f.file.Close()
}

// New builds a timestamped logger on w.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Console is a human readable logger for the devserver.
func Console(level string) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level)
}

// Nop discards everything.
func Nop() zerolog.Logger { return zerolog.Nop() }
