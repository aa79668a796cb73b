// Package logger wraps zerolog.Logger with the constructors and
// context helpers used across the forum server.
package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger embeds zerolog.Logger so the whole zerolog API is available on it.
type Logger struct {
	zerolog.Logger
}

// NewLogger builds a JSON logger on stdout tagged with role. level is a
// zerolog level name; unknown names fall back to info.
func NewLogger(role, level string) *Logger {
	return newLogger(os.Stdout, role, level)
}

var callerOnce sync.Once

func newLogger(w io.Writer, role, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	callerOnce.Do(func() {
		zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
			return runtime.FuncForPC(pc).Name()
		}
		zerolog.CallerFieldName = "func"
	})

	l := zerolog.New(w).Level(lvl).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{l}
}

// Nop discards everything. Used by tests. Unlike zerolog.Nop it stays
// attached when stored in a context.
func Nop() *Logger {
	return &Logger{zerolog.New(io.Discard)}
}

var fallback atomic.Pointer[Logger]

func init() {
	fallback.Store(&Logger{log.Logger})
}

// SetDefault installs the logger FromContext returns when no logger is
// attached. Until called, that is zerolog's global logger on stderr.
func SetDefault(l *Logger) {
	fallback.Store(l)
}

// GetChildLogger returns a logger that inherits the receiver's fields and
// can be enriched without touching the parent.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// FromRequest returns the request-scoped logger attached by the trace
// middleware, or the default logger when there is none.
func FromRequest(r *http.Request) *Logger {
	return FromContext(r.Context())
}

// detached is what zerolog.Ctx returns for a context without a logger.
var detached = zerolog.Ctx(context.Background())

// FromContext never returns nil.
func FromContext(ctx context.Context) *Logger {
	l := zerolog.Ctx(ctx)
	if l == detached {
		return fallback.Load()
	}
	return &Logger{*l}
}
