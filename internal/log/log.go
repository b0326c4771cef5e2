package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, "pretty", LevelInfo)
)

// Setup replaces the process logger. format is "json" or "pretty"
// (human-readable console output); level is one of debug, info, warn, error.
// A nil writer means stderr.
func Setup(w io.Writer, level, format string) {
	if w == nil {
		w = os.Stderr
	}
	l := newLogger(w, format, ParseLevel(level))
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetLevel changes the minimum level without touching the output.
func SetLevel(l Level) {
	mu.Lock()
	logger = logger.Level(toZerolog(l))
	mu.Unlock()
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, nil, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, nil, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, nil, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	logWithLevel(LevelError, err, msg, kv...)
}

func logWithLevel(level Level, err error, msg string, kv ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	ev := l.WithLevel(toZerolog(level))
	if ev == nil {
		return
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(kv) > 0 {
		ev = ev.Fields(pairs(kv))
	}
	ev.Msg(msg)
}

// pairs drops a trailing key without a value and any non-string key so
// zerolog never sees a malformed field list.
func pairs(kv []any) []any {
	out := make([]any, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		if _, ok := kv[i].(string); !ok {
			continue
		}
		out = append(out, kv[i], kv[i+1])
	}
	return out
}

func newLogger(w io.Writer, format string, level Level) zerolog.Logger {
	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(toZerolog(level)).
		With().
		Timestamp().
		Logger()
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
