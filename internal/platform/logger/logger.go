// Package logger owns the process wide zerolog logger and the request and
// attempt fields carried on a context
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"facegate/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type used across the module
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level     string // zerolog level name; unknown names mean debug
	Format    string // "console" for human output, anything else for JSON
	Service   string
	Component string
	Writer    io.Writer // stdout when nil
	// WithCaller adds file:line to every event
	WithCaller bool
	// SampleEvery keeps one event in N when N > 1
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_COMPONENT,
// LOG_CALLER and LOG_SAMPLE_EVERY
func FromEnv() Options {
	env := raw.New().Prefix("LOG_")
	return Options{
		Level:       env.Get("LEVEL", "debug"),
		Format:      strings.ToLower(env.Get("FORMAT", "console")),
		Service:     env.Get("SERVICE", ""),
		Component:   env.Get("COMPONENT", ""),
		WithCaller:  env.GetBool("CALLER", false),
		SampleEvery: env.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	initOnce sync.Once
	root     atomic.Pointer[Logger]
)

// Get returns the root logger, initialising it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger. Only the first call has any effect
func Init(opt Options) {
	initOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opt.Writer
		if out == nil {
			out = os.Stdout
		}
		if opt.Format == "console" {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		b := zerolog.New(out).Level(level(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok {
			b = b.Str("go_version", bi.GoVersion)
		}
		fields := map[string]string{"service": opt.Service, "component": opt.Component}
		for k, v := range opt.StaticFields {
			fields[k] = v
		}
		for k, v := range fields {
			if v != "" {
				b = b.Str(k, v)
			}
		}
		if opt.WithCaller {
			b = b.Caller()
		}

		l := b.Logger()
		if opt.SampleEvery > 1 {
			l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}
		root.Store(&l)
	})
}

func level(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.DebugLevel
	}
	return lvl
}

type fieldsKey struct{}

// fields is the set of ids a context carries into log lines
type fields struct {
	requestID string
	attemptID string
	mode      string
}

func fieldsOf(ctx context.Context) fields {
	f, _ := ctx.Value(fieldsKey{}).(fields)
	return f
}

// WithRequest tags ctx with the console request id
func WithRequest(ctx context.Context, reqID string) context.Context {
	f := fieldsOf(ctx)
	if reqID == "" {
		return ctx
	}
	f.requestID = reqID
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithAttempt tags ctx with the attempt id and its mode. Empty values are ignored
func WithAttempt(ctx context.Context, attemptID, mode string) context.Context {
	f := fieldsOf(ctx)
	if attemptID != "" {
		f.attemptID = attemptID
	}
	if mode != "" {
		f.mode = mode
	}
	return context.WithValue(ctx, fieldsKey{}, f)
}

// C is the root logger with request_id, attempt_id and mode taken from ctx
func C(ctx context.Context) *Logger {
	f := fieldsOf(ctx)
	b := Get().With()
	for _, kv := range [][2]string{{"request_id", f.requestID}, {"attempt_id", f.attemptID}, {"mode", f.mode}} {
		if kv[1] != "" {
			b = b.Str(kv[0], kv[1])
		}
	}
	l := b.Logger()
	return &l
}

// Named is the root logger tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
