// Package cordonlog provides the structured, file-backed logger shared by the
// vault and the approval engine. It wraps log/slog the way the
// teacher's file-backed logger does, but is event-attribute first: every
// call site passes structured fields (wallet_id, chain_id, tx_hash) instead
// of printf strings, and the wrapper refuses to serialize any attribute key
// found in the redacted set.
package cordonlog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level is a verbosity level keyed directly to slog's levels.
type Level int

// Supported verbosity levels.
const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

// ParseLevel parses a level string, defaulting to LevelError on garbage input.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelError
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelOff, LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelError
	}
}

// redactedKeys never appear in a logged attribute, even if a caller passes
// them by accident. The core's contract with the rest of the system is that
// a mnemonic, private key, or PIN is never written to disk in log form.
var redactedKeys = map[string]bool{
	"mnemonic":    true,
	"seed":        true,
	"private_key": true,
	"privatekey":  true,
	"pin":         true,
	"pin_hash":    true,
	"passphrase":  true,
}

// Logger is a small wrapper around *slog.Logger that owns the backing file
// and enforces the redaction contract.
type Logger struct {
	mu      sync.Mutex
	level   Level
	file    *os.File
	slogger *slog.Logger
	json    bool
}

// New creates a file-backed Logger. An empty path or LevelOff yields a
// Logger whose emit methods are no-ops.
func New(level Level, path string, jsonOutput bool) (*Logger, error) {
	l := &Logger{level: level, json: jsonOutput}

	if level == LevelOff || path == "" {
		return l, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- path originates from validated config, not user input
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	l.file = f
	l.initSlogger()
	return l, nil
}

// Null returns a Logger that discards everything, for tests and CLI-less
// callers that have not configured a log sink.
func Null() *Logger {
	return &Logger{level: LevelOff}
}

func (l *Logger) initSlogger() {
	if l.file == nil {
		return
	}

	opts := &slog.HandlerOptions{Level: l.level.slogLevel()}

	var handler slog.Handler
	if l.json {
		handler = slog.NewJSONHandler(l.file, opts)
	} else {
		handler = slog.NewTextHandler(l.file, opts)
	}

	l.slogger = slog.New(handler)
}

func scrub(attrs []slog.Attr) []slog.Attr {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if redactedKeys[strings.ToLower(a.Key)] {
			continue
		}
		clean = append(clean, a)
	}
	return clean
}

// Event logs a structured event at the given level with key/value attrs.
func (l *Logger) Event(level Level, msg string, attrs ...slog.Attr) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LevelOff || l.slogger == nil || level > l.level {
		return
	}

	l.slogger.LogAttrs(context.Background(), level.slogLevel(), msg, scrub(attrs)...)
}

// Info logs an informational structured event.
func (l *Logger) Info(msg string, attrs ...slog.Attr) { l.Event(LevelInfo, msg, attrs...) }

// Warn logs a warning structured event.
func (l *Logger) Warn(msg string, attrs ...slog.Attr) { l.Event(LevelWarn, msg, attrs...) }

// Error logs an error structured event.
func (l *Logger) Error(msg string, attrs ...slog.Attr) { l.Event(LevelError, msg, attrs...) }

// Debug logs a debug structured event.
func (l *Logger) Debug(msg string, attrs ...slog.Attr) { l.Event(LevelDebug, msg, attrs...) }

// Close closes the backing file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
