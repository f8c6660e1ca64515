// Package observe provides structured logging and tracing for decaymem.
package observe

import (
	"context"
	"io"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("decaymem")

// Format selects the log encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Options configure an Observer.
type Options struct {
	// Level is one of debug, info, warn or error. Default: warn
	Level string

	// Format is console or json. Default: console
	Format Format
}

// Observer handles logging and tracing
type Observer struct {
	log *bolt.Logger
}

// New creates a new Observer writing to out.
func New(out io.Writer, opts Options) *Observer {
	var l *bolt.Logger
	if opts.Format == FormatJSON {
		l = bolt.New(bolt.NewJSONHandler(out))
	} else {
		l = bolt.New(bolt.NewConsoleHandler(out))
	}
	setLevel(l, opts.Level)

	return &Observer{
		log: l,
	}
}

// Nop returns an Observer that discards everything.
func Nop() *Observer {
	return New(io.Discard, Options{Level: "error"})
}

func setLevel(l *bolt.Logger, level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l.SetLevel(bolt.DEBUG)
	case "info":
		l.SetLevel(bolt.INFO)
	case "error":
		l.SetLevel(bolt.ERROR)
	default:
		l.SetLevel(bolt.WARN)
	}
}

// Log returns the underlying logger
func (o *Observer) Log() *bolt.Logger {
	return o.log
}

// StartSpan starts a new OTel span
func (o *Observer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// Close flushes nothing; bolt writes synchronously and spans go to the
// globally registered provider.
func (o *Observer) Close() error {
	return nil
}
