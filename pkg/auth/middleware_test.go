package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/tenant"
)

// newTestStore returns a gorilla CookieStore (no Redis required) for unit tests.
// In production the RedisStore is used; the sessions.Store interface is identical.
func newTestStore() sessions.Store {
	return sessions.NewCookieStore(
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
	)
}

func newTestLogger() logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

// requestWithSession builds a request carrying a session cookie for uid.
func requestWithSession(t *testing.T, store sessions.Store, uid uuid.UUID) *http.Request {
	t.Helper()

	w := httptest.NewRecorder()
	if err := StartSession(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), store, uid); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func requestWithRawSessionValue(t *testing.T, store sessions.Store, value any) *http.Request {
	t.Helper()
	writeReq := httptest.NewRequest(http.MethodPost, "/", nil)
	w1 := httptest.NewRecorder()
	session, _ := store.Get(writeReq, SessionName)
	if value != nil {
		session.Values[sessionUIDKey] = value
	}
	_ = session.Save(writeReq, w1)

	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	for _, c := range w1.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func captureUID(got *uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = UIDFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func mustNotRun(t *testing.T) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler should not be called")
	})
}

func TestRequireAuth_ValidSession(t *testing.T) {
	store := newTestStore()
	uid := uuid.New()

	var captured uuid.UUID
	w := httptest.NewRecorder()
	RequireAuth(store, nil, newTestLogger())(captureUID(&captured)).ServeHTTP(w, requestWithSession(t, store, uid))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured != uid {
		t.Fatalf("expected uid %v in context, got %v", uid, captured)
	}
}

func TestRequireAuth_BearerToken(t *testing.T) {
	ti := newTestIssuer(t)
	uid := uuid.New()
	token, _, err := ti.Mint(time.Now(), uid)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	var captured uuid.UUID
	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	RequireAuth(newTestStore(), ti, newTestLogger())(captureUID(&captured)).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured != uid {
		t.Fatalf("expected uid %v, got %v", uid, captured)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	store := newTestStore()
	ti := newTestIssuer(t)

	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"missing cookie", func(*testing.T) *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/products", nil)
		}},
		{"session without uid", func(t *testing.T) *http.Request {
			return requestWithRawSessionValue(t, store, nil)
		}},
		{"session with malformed uid", func(t *testing.T) *http.Request {
			return requestWithRawSessionValue(t, store, "not-a-valid-uuid")
		}},
		{"non-bearer authorization", func(*testing.T) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			return r
		}},
		{"forged bearer", func(*testing.T) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			r.Header.Set("Authorization", "Bearer not.a.jwt")
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RequireAuth(store, ti, newTestLogger())(mustNotRun(t)).ServeHTTP(w, tt.req(t))
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			var body httpx.ErrorResponse
			_ = json.NewDecoder(w.Body).Decode(&body)
			if body.Code != httpx.CodeUnauthenticated {
				t.Fatalf("expected unauthenticated code, got %+v", body)
			}
		})
	}
}

func TestEndSession_ClearsCookie(t *testing.T) {
	store := newTestStore()
	r := requestWithSession(t, store, uuid.New())
	w := httptest.NewRecorder()
	if err := EndSession(w, r, store); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
}

type fakeResolver struct {
	caller tenant.Caller
	err    error
}

func (f fakeResolver) ResolveCaller(_ context.Context, uid uuid.UUID) (tenant.Caller, error) {
	if f.err != nil {
		return tenant.Caller{}, f.err
	}
	c := f.caller
	c.UID = uid
	return c, nil
}

func TestRequireCaller(t *testing.T) {
	company := uuid.New()

	tests := []struct {
		name     string
		resolver fakeResolver
		wantCode int
	}{
		{"active admin", fakeResolver{caller: tenant.Caller{CompanyID: company, Role: tenant.RoleAdmin}}, http.StatusOK},
		{"missing profile", fakeResolver{err: ErrProfileMissing}, http.StatusForbidden},
		{"inactive profile", fakeResolver{err: ErrProfileInactive}, http.StatusForbidden},
		{"store failure", fakeResolver{err: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid := uuid.New()
			var got tenant.Caller
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = tenant.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(WithPrincipal(r.Context(), uid, MethodSession))
			w := httptest.NewRecorder()
			RequireCaller(tt.resolver, newTestLogger())(next).ServeHTTP(w, r)

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if tt.wantCode == http.StatusOK && (got.UID != uid || got.CompanyID != company) {
				t.Fatalf("unexpected caller %+v", got)
			}
		})
	}
}

func TestRequireCaller_WithoutUID(t *testing.T) {
	w := httptest.NewRecorder()
	RequireCaller(fakeResolver{}, newTestLogger())(mustNotRun(t)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func requestAs(c tenant.Caller) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	return r.WithContext(tenant.WithCaller(r.Context(), c))
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	adminOnly := RequireRole(tenant.RoleAdmin)(ok)

	w := httptest.NewRecorder()
	adminOnly.ServeHTTP(w, requestAs(tenant.Caller{UID: uuid.New(), Role: tenant.RoleAdmin}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin: expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	adminOnly.ServeHTTP(w, requestAs(tenant.Caller{UID: uuid.New(), Role: tenant.RoleWorker}))
	if w.Code != http.StatusForbidden {
		t.Fatalf("worker: expected 403, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	RequireRole(tenant.RoleAdmin, tenant.RoleWorker)(ok).ServeHTTP(w, requestAs(tenant.Caller{UID: uuid.New(), Role: tenant.RoleWorker}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("any role: expected 204, got %d", w.Code)
	}
}

func TestRequireCompany(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	w := httptest.NewRecorder()
	RequireCompany(ok).ServeHTTP(w, requestAs(tenant.Caller{UID: uuid.New(), Role: tenant.RoleAdmin}))
	if w.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	RequireCompany(ok).ServeHTTP(w, requestAs(tenant.Caller{UID: uuid.New(), CompanyID: uuid.New()}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestAuthenticated_SessionToCaller(t *testing.T) {
	store := newTestStore()
	uid := uuid.New()
	company := uuid.New()
	resolver := fakeResolver{caller: tenant.Caller{CompanyID: company, Role: tenant.RoleWorker}}

	var got tenant.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = tenant.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	Authenticated(store, nil, resolver, newTestLogger())(next).ServeHTTP(w, requestWithSession(t, store, uid))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.UID != uid || got.CompanyID != company || got.Role != tenant.RoleWorker {
		t.Fatalf("unexpected caller %+v", got)
	}

	w = httptest.NewRecorder()
	Authenticated(store, nil, resolver, newTestLogger())(mustNotRun(t)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", w.Code)
	}
}
