package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/tenant"
	"github.com/blueledger/blueledger/services/messaging/application/handlers"
	appsvcs "github.com/blueledger/blueledger/services/messaging/application/services"
	messagingdomain "github.com/blueledger/blueledger/services/messaging/domain"
	"github.com/blueledger/blueledger/services/messaging/domain/models"
)

type stubRepo struct {
	mu   sync.Mutex
	msgs []*models.Message
}

func (r *stubRepo) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return nil
}

func (r *stubRepo) Get(_ context.Context, id uuid.UUID) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, messagingdomain.ErrMessageNotFound
}

func (r *stubRepo) list(limit int, keep func(*models.Message) bool) []*models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, m := range slices.Backward(r.msgs) {
		if keep(m) && len(out) < limit {
			out = append(out, m)
		}
	}
	return out
}

func (r *stubRepo) ListByCompany(_ context.Context, companyID uuid.UUID, limit int) ([]*models.Message, error) {
	return r.list(limit, func(m *models.Message) bool { return m.CompanyID == companyID }), nil
}

func (r *stubRepo) ListBySender(_ context.Context, companyID, fromUID uuid.UUID, limit int) ([]*models.Message, error) {
	return r.list(limit, func(m *models.Message) bool { return m.CompanyID == companyID && m.FromUID == fromUID }), nil
}

func (r *stubRepo) Delete(_ context.Context, m *models.Message, _ uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = slices.DeleteFunc(r.msgs, func(x *models.Message) bool { return x.ID == m.ID })
	return nil
}

// asCaller stands in for auth.Authenticated: test headers pick the uid, role
// and company.
func asCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := tenant.Role(r.Header.Get("X-Test-Role"))
		if role == "" {
			httpx.JSONError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, "authentication required")
			return
		}
		uid, _ := uuid.Parse(r.Header.Get("X-Test-UID"))
		company, _ := uuid.Parse(r.Header.Get("X-Test-Company"))
		c := tenant.Caller{UID: uid, CompanyID: company, Role: role, Name: "Tester"}
		next.ServeHTTP(w, r.WithContext(tenant.WithCaller(r.Context(), c)))
	})
}

type env struct {
	router http.Handler
	admin  tenant.Caller
	ana    tenant.Caller
	bruno  tenant.Caller
	rival  tenant.Caller
}

func newEnv() *env {
	company := uuid.New()
	svcs := &appsvcs.Services{Message: appsvcs.NewMessageService(&stubRepo{}, nil, logger.NewWithWriter(io.Discard, "error"))}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) { Mount(r, svcs, asCaller) })
	return &env{
		router: r,
		admin:  tenant.Caller{UID: uuid.New(), CompanyID: company, Role: tenant.RoleAdmin},
		ana:    tenant.Caller{UID: uuid.New(), CompanyID: company, Role: tenant.RoleWorker},
		bruno:  tenant.Caller{UID: uuid.New(), CompanyID: company, Role: tenant.RoleWorker},
		rival:  tenant.Caller{UID: uuid.New(), CompanyID: uuid.New(), Role: tenant.RoleAdmin},
	}
}

func (e *env) do(method, path, body string, c tenant.Caller) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if c.Role != "" {
		req.Header.Set("X-Test-Role", string(c.Role))
		req.Header.Set("X-Test-UID", c.UID.String())
	}
	if c.CompanyID != uuid.Nil {
		req.Header.Set("X-Test-Company", c.CompanyID.String())
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) post(t *testing.T, c tenant.Caller, text string) handlers.MessageResponse {
	t.Helper()
	body, _ := json.Marshal(handlers.PostMessageRequest{Text: text})
	w := e.do(http.MethodPost, "/api/messages", string(body), c)
	if w.Code != http.StatusCreated {
		t.Fatalf("post: expected 201, got %d: %s", w.Code, w.Body)
	}
	var m handlers.MessageResponse
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func (e *env) list(t *testing.T, c tenant.Caller) []string {
	t.Helper()
	w := e.do(http.MethodGet, "/api/messages", "", c)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", w.Code, w.Body)
	}
	var res handlers.MessageListResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	texts := make([]string, len(res.Items))
	for i, m := range res.Items {
		texts[i] = m.Text
	}
	return texts
}

func TestListIsScopedByRole(t *testing.T) {
	e := newEnv()
	e.post(t, e.ana, "out of cola")
	e.post(t, e.bruno, "till is short")
	e.post(t, e.ana, "  fridge is warm \n")
	e.post(t, e.rival, "elsewhere")

	tests := []struct {
		name   string
		caller tenant.Caller
		want   []string
	}{
		{"admin sees the company", e.admin, []string{"fridge is warm", "till is short", "out of cola"}},
		{"worker sees own messages", e.ana, []string{"fridge is warm", "out of cola"}},
		{"other worker", e.bruno, []string{"till is short"}},
		{"other company", e.rival, []string{"elsewhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.list(t, tt.caller); !slices.Equal(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	e := newEnv()
	if w := e.do(http.MethodGet, "/api/messages?limit=ten", "", e.admin); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	e := newEnv()
	m := e.post(t, e.ana, "out of cola")
	path := "/api/messages/" + m.ID.String()

	tests := []struct {
		name   string
		path   string
		caller tenant.Caller
		want   int
	}{
		{"worker cannot delete", path, e.ana, http.StatusForbidden},
		{"foreign admin", path, e.rival, http.StatusForbidden},
		{"malformed id", "/api/messages/not-a-uuid", e.admin, http.StatusBadRequest},
		{"unknown id", "/api/messages/" + uuid.NewString(), e.admin, http.StatusNotFound},
		{"admin deletes", path, e.admin, http.StatusNoContent},
		{"already gone", path, e.admin, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := e.do(http.MethodDelete, tt.path, "", tt.caller); w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body)
			}
		})
	}
	if got := e.list(t, e.admin); len(got) != 0 {
		t.Fatalf("expected no messages left, got %q", got)
	}
}

func TestPostEndpoint(t *testing.T) {
	e := newEnv()

	m := e.post(t, e.ana, strings.Repeat("é", models.MaxTextLength))
	if m.FromUID != e.ana.UID || m.CompanyID != e.ana.CompanyID {
		t.Fatalf("unexpected sender %+v", m)
	}

	tooLong, _ := json.Marshal(handlers.PostMessageRequest{Text: strings.Repeat("a", models.MaxTextLength+1)})
	tests := []struct {
		name   string
		body   string
		caller tenant.Caller
		want   int
	}{
		{"unauthenticated", `{"text":"hi"}`, tenant.Caller{}, http.StatusUnauthorized},
		{"no company", `{"text":"hi"}`, tenant.Caller{UID: uuid.New(), Role: tenant.RoleWorker}, http.StatusPreconditionFailed},
		{"blank text", `{"text":"   "}`, e.ana, http.StatusUnprocessableEntity},
		{"text over limit", string(tooLong), e.ana, http.StatusBadRequest},
		{"unknown field", `{"text":"hi","to":"boss"}`, e.ana, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/messages", tt.body, tt.caller)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body)
			}
			if tt.want == http.StatusBadRequest {
				var body httpx.ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body.Code != httpx.CodeInvalidArgument {
					t.Fatalf("unexpected error body %+v (%v)", body, err)
				}
			}
		})
	}
}
