package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// ServerConfig holds the options for NewRouter and NewServer. Zero values
// select the defaults noted on each field.
type ServerConfig struct {
	IsDevelopment bool
	// CORSAllowedOrigins is a comma-separated list of allowed origins, or "*"
	// (dev only). Credentials are allowed only for an explicit list.
	CORSAllowedOrigins string
	// RequestsPerMinute is the per-IP limit; 0 means 300.
	RequestsPerMinute int
	// RequestTimeout bounds every handler, live streams included; 0 means 30s.
	RequestTimeout time.Duration
	// MaxBodyBytes caps request bodies; 0 means 1 MiB.
	MaxBodyBytes int64
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 300
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	return c
}

// NewRouter returns a chi.Mux with the standard middleware stack.
//
// Order: chi's RequestID, then outer in the order given (recovery, sentry,
// otel, request logger), then RealIP, per-IP rate limit, CORS, body cap,
// handler timeout and security headers.
func NewRouter(cfg ServerConfig, outer ...func(http.Handler) http.Handler) *chi.Mux {
	cfg = cfg.withDefaults()

	stack := make([]func(http.Handler) http.Handler, 0, len(outer)+7)
	stack = append(stack, middleware.RequestID)
	stack = append(stack, outer...)
	stack = append(stack,
		middleware.RealIP,
		RateLimit(cfg.RequestsPerMinute),
		CORSMiddleware(cfg.CORSAllowedOrigins),
		RequestBodyLimit(cfg.MaxBodyBytes),
		middleware.Timeout(cfg.RequestTimeout),
		securityHeaders(cfg.IsDevelopment).Handler,
	)

	r := chi.NewRouter()
	r.Use(stack...)
	return r
}

func securityHeaders(dev bool) *secure.Secure {
	return secure.New(secure.Options{
		STSSeconds:            63072000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), usb=()",
		IsDevelopment:         dev,
	})
}

// RateLimit allows perMinute requests per client IP and answers the excess
// with a JSON 429.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			JSONError(w, http.StatusTooManyRequests, CodeRateLimited, "too many requests")
		}),
	)
}

// CORSMiddleware restricts cross-origin calls to allowedOrigins, a
// comma-separated list. "*" allows any origin without credentials; an
// explicit list also lets the console send its session cookie.
func CORSMiddleware(allowedOrigins string) func(http.Handler) http.Handler {
	origins := parseOrigins(allowedOrigins)
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "Last-Event-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !isWildcard(origins),
		MaxAge:           300,
	})
}

func isWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func parseOrigins(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// RequestBodyLimit caps the request body at maxBytes. Reads past the cap
// fail with *http.MaxBytesError, which validator.ValidateRequest answers with a 413.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// NewServer returns an *http.Server for handler. The write timeout leaves
// room past the handler timeout so a stream can send its last event.
func NewServer(addr string, handler http.Handler, cfg ServerConfig) *http.Server {
	cfg = cfg.withDefaults()
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
