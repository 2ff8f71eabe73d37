// Package logger is the structured logging layer shared by every process.
// Records are JSON (or text in development) and carry the OTel trace,
// the chi request id and whatever tenant attributes the request bound with
// WithContextAttrs.
package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/blueledger/blueledger/pkg/config"
	"github.com/blueledger/blueledger/pkg/httpx"
)

// Logger is the logging interface passed through the application.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
	// ToSlog exposes the underlying *slog.Logger for libraries that take one.
	ToSlog() *slog.Logger
}

// New returns a Logger writing to stdout in cfg.LogFormat at cfg.LogLevel.
func New(cfg *config.Config) Logger {
	return newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat == "text")
}

// NewWithWriter returns a JSON Logger writing to w. Tests pass io.Discard or
// a buffer.
func NewWithWriter(w io.Writer, level string) Logger {
	return newLogger(w, level, false)
}

func newLogger(w io.Writer, level string, text bool) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: redact}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if text {
		h = slog.NewTextHandler(w, opts)
	}
	return &slogLogger{Logger: slog.New(&contextHandler{h})}
}

type slogLogger struct {
	*slog.Logger
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{Logger: l.Logger.With(args...)}
}

func (l *slogLogger) ToSlog() *slog.Logger {
	return l.Logger
}

// redacted attribute keys never reach the log output, whatever their value.
var redacted = map[string]bool{
	"password":      true,
	"password_hash": true,
	"token":         true,
	"authorization": true,
	"cookie":        true,
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redacted[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

type ctxAttrsKey struct{}

type ctxLoggerKey struct{}

// NewContext returns a copy of ctx carrying log. Middleware does this for
// every request.
func NewContext(ctx context.Context, log Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, log)
}

// FromContext returns the Logger bound by NewContext, or one backed by
// slog.Default when ctx has none.
func FromContext(ctx context.Context) Logger {
	if log, ok := ctx.Value(ctxLoggerKey{}).(Logger); ok {
		return log
	}
	return &slogLogger{Logger: slog.Default()}
}

// WithContextAttrs binds key-value pairs to ctx; every record logged with that
// context carries them. The auth middleware tags requests with the caller's
// uid and company_id, and event consumers tag the event they handle.
func WithContextAttrs(ctx context.Context, args ...any) context.Context {
	existing, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	r := slog.NewRecord(time.Time{}, 0, "", 0)
	r.Add(args...)
	attrs := make([]slog.Attr, 0, len(existing)+r.NumAttrs())
	attrs = append(attrs, existing...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return context.WithValue(ctx, ctxAttrsKey{}, attrs)
}

// contextHandler adds trace_id, span_id, request_id and the WithContextAttrs
// attributes of the record's context.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if id := middleware.GetReqID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{h.Handler.WithGroup(name)}
}

// quietPaths are probed constantly and only logged at debug.
var quietPaths = map[string]bool{"/health": true, "/health/live": true, "/health/ready": true, "/metrics": true}

// Middleware logs one record per request once the handler returns: 5xx at
// error, 4xx at warn, everything else at info. Probe endpoints log at debug.
// Handlers reach the same logger through FromContext.
func Middleware(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(NewContext(r.Context(), log))
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"latency_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			switch {
			case quietPaths[r.URL.Path]:
				log.DebugContext(r.Context(), "request", args...)
			case status >= http.StatusInternalServerError:
				log.ErrorContext(r.Context(), "request", args...)
			case status >= http.StatusBadRequest:
				log.WarnContext(r.Context(), "request", args...)
			default:
				log.InfoContext(r.Context(), "request", args...)
			}
		})
	}
}

// Recovery turns a panic into a logged stack trace and a JSON 500.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(log Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint
					panic(rec)
				}
				log.ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
