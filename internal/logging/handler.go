// Package logging builds the slog handler used by the binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the handler. An empty Format picks colorized text on a
// terminal and JSON everywhere else.
type Options struct {
	Format string
	Level  string
}

// NewHandler returns a handler writing to out.
//
// Text output uses tint in the format:
//
//	HH:MM:SS LEVEL msg key=value key=value
func NewHandler(out io.Writer, opts Options) slog.Handler {
	level := ParseLevel(opts.Level)
	tty := isTerminal(out)

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = FormatJSON
		if tty {
			format = FormatText
		}
	}

	if format == FormatJSON {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(out, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !tty,
	})
}

// New returns a logger writing to out.
func New(out io.Writer, opts Options) *slog.Logger {
	return slog.New(NewHandler(out, opts))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
