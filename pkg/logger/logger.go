package logger

import (
	"io"
	"log/slog"
	"strings"
	"sync"
)

type LogLevel string

const (
	DEBUG LogLevel = "debug"
	INFO  LogLevel = "info"
	WARN  LogLevel = "warn"
	ERROR LogLevel = "error"
)

// Logger writes key/value events. Event names are snake_case.
type Logger struct {
	slog *slog.Logger
}

var (
	globalMu sync.RWMutex
	global   = New(INFO, false, nil)
)

// ParseLevel maps a config or env string to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DEBUG:
		return DEBUG
	case WARN, "warning":
		return WARN
	case ERROR:
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch ParseLevel(string(l)) {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger. A nil writer discards output.
func New(level LogLevel, jsonFormat bool, out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	opts := &slog.HandlerOptions{Level: level.slogLevel()}
	var h slog.Handler
	if jsonFormat {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return &Logger{slog: slog.New(h)}
}

// Init replaces the process-wide logger returned by GetLogger.
func Init(level LogLevel, jsonFormat bool, out io.Writer) {
	l := New(level, jsonFormat, out)
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

func GetLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Nop returns a logger that drops everything.
func Nop() *Logger {
	return New(ERROR, false, io.Discard)
}

// WithContext returns a child logger that adds key=value to every event.
func (l *Logger) WithContext(key string, value any) *Logger {
	return &Logger{slog: l.slog.With(key, value)}
}

func (l *Logger) Debug(event string, kv ...any) { l.slog.Debug(event, kv...) }
func (l *Logger) Info(event string, kv ...any)  { l.slog.Info(event, kv...) }
func (l *Logger) Warn(event string, kv ...any)  { l.slog.Warn(event, kv...) }
func (l *Logger) Error(event string, kv ...any) { l.slog.Error(event, kv...) }
