// Package logger wraps log/slog with the attributes the studio services
// attach to every line: service name, request id, video id and acting user.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	VideoIDKey   contextKey = "video_id"
	UserIDKey    contextKey = "user_id"
)

// contextKeys are copied onto the logger by FromContext, in this order.
var contextKeys = []contextKey{RequestIDKey, VideoIDKey, UserIDKey}

type Logger struct {
	*slog.Logger
}

type Config struct {
	// Level is one of debug, info, warn, error. Anything else means info.
	Level string
	// Format is json or text.
	Format      string
	Output      io.Writer
	AddSource   bool
	ServiceName string
}

// DefaultConfig reads LOG_LEVEL, LOG_FORMAT, LOG_SOURCE and SERVICE_NAME.
func DefaultConfig() Config {
	cfg := Config{
		Level:       "info",
		Format:      "json",
		Output:      os.Stdout,
		ServiceName: "reelstudio",
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.Level = v
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok {
		cfg.Format = v
	}
	if v, ok := os.LookupEnv("SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
	}
	cfg.AddSource = os.Getenv("LOG_SOURCE") == "true"
	return cfg
}

func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: utcTime,
	}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	}
	if cfg.ServiceName != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("service", cfg.ServiceName)})
	}
	return &Logger{Logger: slog.New(h)}
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
	}
	return a
}

func NewDefault() *Logger { return New(DefaultConfig()) }

// Discard drops everything; used by tests and optional dependencies.
func Discard() *Logger {
	return New(Config{Output: io.Discard, Level: "error"})
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func (l *Logger) WithRequestID(id string) *Logger   { return l.with(string(RequestIDKey), id) }
func (l *Logger) WithVideoID(id string) *Logger     { return l.with(string(VideoIDKey), id) }
func (l *Logger) WithUserID(id string) *Logger      { return l.with(string(UserIDKey), id) }
func (l *Logger) WithComponent(name string) *Logger { return l.with("component", name) }

// WithError returns l unchanged when err is nil.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.with(args...)
}

// FromContext returns a logger carrying the request, video and user ids
// found in ctx.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	var args []any
	for _, k := range contextKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			args = append(args, string(k), v)
		}
	}
	if len(args) == 0 {
		return l
	}
	return l.with(args...)
}

// LogError logs err at error level with the caller location. A nil err
// logs nothing.
func (l *Logger) LogError(ctx context.Context, msg string, err error, args ...any) {
	if err == nil {
		return
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		args = append(args, slog.Group("source", slog.String("file", file), slog.Int("line", line)))
	}
	args = append(args, "error", err.Error())
	l.FromContext(ctx).Error(msg, args...)
}

// LogFatal logs and exits with status 1.
func (l *Logger) LogFatal(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.Error(msg, args...)
	os.Exit(1)
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func ContextWithVideoID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, VideoIDKey, id)
}

func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// UserIDFromContext returns the acting user id resolved at the HTTP boundary.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

func parseLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
