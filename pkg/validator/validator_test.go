package validator_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
)

type workerReq struct {
	Name         string `json:"name"          validate:"notblank,max=10"`
	Email        string `json:"email"         validate:"required,email"`
	TempPassword string `json:"temp_password" validate:"required,min=6"`
}

type productReq struct {
	Name  string          `json:"name"  validate:"notblank,max=120"`
	Price decimal.Decimal `json:"price" validate:"money"`
}

func TestFormatValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		in   workerReq
		want map[string]string
	}{
		{
			name: "all missing",
			in:   workerReq{},
			want: map[string]string{
				"name":          "This field is required",
				"email":         "This field is required",
				"temp_password": "This field is required",
			},
		},
		{
			name: "blank name and bad email",
			in:   workerReq{Name: "   ", Email: "ana", TempPassword: "secret1"},
			want: map[string]string{
				"name":  "This field is required",
				"email": "Must be a valid email address",
			},
		},
		{
			name: "lengths",
			in:   workerReq{Name: "Ana Beatriz Silva", Email: "ana@shop.io", TempPassword: "123"},
			want: map[string]string{
				"name":          "Maximum length is 10",
				"temp_password": "Minimum length is 6",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(&tt.in))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for field, msg := range tt.want {
				if got[field] != msg {
					t.Errorf("%s: got %q, want %q", field, got[field], msg)
				}
			}
		})
	}
}

func TestFormatValidationErrors_NotAValidationError(t *testing.T) {
	if m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie); len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		price string
		ok    bool
	}{
		{"0", true},
		{"1.5", true},
		{"1.50", true},
		{"1999.99", true},
		{"1.505", false},
		{"-0.01", false},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			err := pkgvalidator.Validate(&productReq{Name: "Cola", Price: decimal.RequireFromString(tt.price)})
			if (err == nil) != tt.ok {
				t.Fatalf("Validate(price=%s) = %v, want ok=%v", tt.price, err, tt.ok)
			}
		})
	}
}

func post(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{name: "malformed", body: "{bad json", wantCode: http.StatusBadRequest, wantBody: "Invalid JSON"},
		{name: "unknown field", body: `{"name":"Cola","qty":5}`, wantCode: http.StatusBadRequest, wantBody: `unknown field \"qty\"`},
		{name: "blank name", body: `{"name":"   ","price":"1.00"}`, wantCode: http.StatusUnprocessableEntity, wantBody: `"name":"This field is required"`},
		{name: "sub-cent price", body: `{"name":"Cola","price":"0.999"}`, wantCode: http.StatusUnprocessableEntity, wantBody: `"price":"Must be a non-negative amount`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if _, ok := pkgvalidator.ValidateRequest[productReq](w, post(tt.body)); ok {
				t.Fatal("expected ok=false")
			}
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %s does not contain %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestValidateRequest_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	req, ok := pkgvalidator.ValidateRequest[productReq](w, post(`{"name":"Cola 330ml","price":"1.50"}`))
	if !ok {
		t.Fatalf("expected ok, got %d %s", w.Code, w.Body.String())
	}
	if req.Name != "Cola 330ml" || !req.Price.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestValidateRequest_ValidationBody(t *testing.T) {
	w := httptest.NewRecorder()
	pkgvalidator.ValidateRequest[workerReq](w, post(`{"name":"Ana","email":"nope","temp_password":"x"}`))

	var body pkgvalidator.ValidationResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "invalid_argument" || len(body.Fields) != 2 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestValidateRequest_BodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	r := post(`{"name":"` + strings.Repeat("x", 64) + `"}`)
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	if _, ok := pkgvalidator.ValidateRequest[productReq](w, r); ok {
		t.Fatal("expected ok=false")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}
