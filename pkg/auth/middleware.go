package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/tenant"
)

// SessionName is the cookie name of the console and terminal session.
const SessionName = "blueledger_session"

const sessionUIDKey = "uid"

// Errors a CallerResolver reports for a uid that cannot act.
var (
	ErrProfileMissing  = errors.New("profile missing")
	ErrProfileInactive = errors.New("profile inactive")
)

// TokenParser verifies a bearer token and returns its subject uid.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// CallerResolver loads the persisted profile behind uid.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, uid uuid.UUID) (tenant.Caller, error)
}

// RequireAuth authenticates the request with a bearer token when an
// Authorization header is present, otherwise with the session cookie, and
// stores the uid in the context. tokens may be nil to disable bearer auth.
func RequireAuth(store sessions.Store, tokens TokenParser, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, method, err := authenticate(r, store, tokens)
			if err != nil {
				log.WarnContext(r.Context(), "auth: rejected request", "auth", method, "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, ErrUnauthenticated.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), uid, method)))
		})
	}
}

func authenticate(r *http.Request, store sessions.Store, tokens TokenParser) (uuid.UUID, Method, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || tokens == nil {
			return uuid.Nil, MethodBearer, ErrInvalidToken
		}
		uid, err := tokens.Parse(strings.TrimSpace(token))
		return uid, MethodBearer, err
	}

	session, err := store.Get(r, SessionName)
	if err != nil {
		return uuid.Nil, MethodSession, err
	}
	raw, ok := session.Values[sessionUIDKey].(string)
	if !ok || raw == "" {
		return uuid.Nil, MethodSession, ErrUnauthenticated
	}
	uid, err := uuid.Parse(raw)
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, MethodSession, ErrUnauthenticated
	}
	return uid, MethodSession, nil
}

// RequireCaller resolves the authenticated uid into a tenant.Caller from the
// persisted profile and binds uid, company_id and role to request logs.
// Must run after RequireAuth.
func RequireCaller(resolver CallerResolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := UIDFromCtx(r.Context())
			if err != nil {
				httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, err.Error())
				return
			}

			caller, err := resolver.ResolveCaller(r.Context(), uid)
			switch {
			case errors.Is(err, ErrProfileMissing), errors.Is(err, ErrProfileInactive):
				log.WarnContext(r.Context(), "auth: caller cannot act", "uid", uid, "error", err)
				httpx.JSONError(w, http.StatusForbidden, httpx.CodePermissionDenied, err.Error())
				return
			case err != nil:
				log.ErrorContext(r.Context(), "auth: resolve caller", "uid", uid, "error", err)
				httpx.JSONError(w, http.StatusInternalServerError, httpx.CodeInternal, http.StatusText(http.StatusInternalServerError))
				return
			}

			ctx := tenant.WithCaller(r.Context(), caller)
			ctx = logger.WithContextAttrs(ctx, "uid", caller.UID, "company_id", caller.CompanyID, "role", caller.Role, "auth", MethodFromCtx(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose profile role is not one of roles.
// Must run after RequireCaller.
func RequireRole(roles ...tenant.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := tenant.FromContext(r.Context())
			if err != nil {
				httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, ErrUnauthenticated.Error())
				return
			}
			if !slices.Contains(roles, caller.Role) {
				httpx.JSONError(w, http.StatusForbidden, httpx.CodePermissionDenied, "role "+string(caller.Role)+" may not perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCompany rejects callers whose profile has no company yet.
// Must run after RequireCaller.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := tenant.FromContext(r.Context())
		if err != nil {
			httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, ErrUnauthenticated.Error())
			return
		}
		if caller.CompanyID == uuid.Nil {
			httpx.JSONError(w, http.StatusPreconditionFailed, httpx.CodeFailedPrecondition, tenant.ErrNoCompany.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticated chains RequireAuth and RequireCaller. Bounded contexts mount
// it on every route that acts on behalf of a profile.
func Authenticated(store sessions.Store, tokens TokenParser, resolver CallerResolver, log logger.Logger) func(http.Handler) http.Handler {
	authn := RequireAuth(store, tokens, log)
	resolve := RequireCaller(resolver, log)
	return func(next http.Handler) http.Handler {
		return authn(resolve(next))
	}
}
