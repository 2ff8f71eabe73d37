package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/account/application/services"
)

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required" example:"ana@shop.io"`
	Password string `json:"password" validate:"required" example:"secret1"`
} // @name LoginRequest

// LoginResponse carries the bearer token for API clients. Browser clients
// use the session cookie set on the same response.
type LoginResponse struct {
	UID       uuid.UUID  `json:"uid"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
} // @name LoginResponse

// LoginHandler handles POST /api/auth/login.
type LoginHandler struct {
	svc   *appsvcs.Services
	store sessions.Store
}

// NewLoginHandler returns a LoginHandler.
func NewLoginHandler(svc *appsvcs.Services, store sessions.Store) *LoginHandler {
	return &LoginHandler{svc: svc, store: store}
}

// Execute authenticates with email and password.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		LoginRequest	true	"Credentials"
//	@Success	200		{object}	LoginResponse
//	@Failure	401		{object}	httpx.ErrorResponse
//	@Router		/auth/login [post]
func (h *LoginHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[LoginRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.Account.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	if h.store != nil {
		if err := auth.StartSession(w, r, h.store, res.UID); err != nil {
			errhttp.WriteError(w, r, err)
			return
		}
	}

	resp := LoginResponse{UID: res.UID, Token: res.Token}
	if !res.ExpiresAt.IsZero() {
		resp.ExpiresAt = &res.ExpiresAt
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// LogoutHandler handles POST /api/auth/logout.
type LogoutHandler struct {
	store sessions.Store
}

// NewLogoutHandler returns a LogoutHandler.
func NewLogoutHandler(store sessions.Store) *LogoutHandler {
	return &LogoutHandler{store: store}
}

// Execute ends the cookie session. Bearer tokens expire on their own.
//
//	@Summary	Log out
//	@Tags		auth
//	@Success	204
//	@Router		/auth/logout [post]
func (h *LogoutHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := auth.EndSession(w, r, h.store); err != nil {
			errhttp.WriteError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
