package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// New builds a JSON logger writing to stdout at the given level.
func New(levelStr string) *slog.Logger {
	return NewWithWriter(os.Stdout, levelStr)
}

// NewWithWriter builds a JSON logger on w. Unknown levels fall back to info.
func NewWithWriter(w io.Writer, levelStr string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Init builds the process logger and installs it as the slog default.
func Init(levelStr string) *slog.Logger {
	l := New(levelStr)
	slog.SetDefault(l)
	l.Info("logger initialized", "level", ParseLevel(levelStr).String())
	return l
}

func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
