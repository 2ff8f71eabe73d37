package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/account/application/services"
)

// SignupRequest is the request body for POST /api/auth/signup.
type SignupRequest struct {
	Name        string `json:"name"         validate:"notblank,max=120"  example:"Rui"`
	Email       string `json:"email"        validate:"required,email"    example:"rui@kiosk.pt"`
	Password    string `json:"password"     validate:"required,min=6"    example:"hunter22"`
	CompanyName string `json:"company_name" validate:"notblank,max=120"  example:"Kiosk"`
} // @name SignupRequest

// SignupHandler handles POST /api/auth/signup.
type SignupHandler struct {
	svc   *appsvcs.Services
	store sessions.Store
}

// NewSignupHandler returns a SignupHandler. The new admin is logged in
// through store.
func NewSignupHandler(svc *appsvcs.Services, store sessions.Store) *SignupHandler {
	return &SignupHandler{svc: svc, store: store}
}

// Execute registers a company and its admin.
//
//	@Summary	Sign up
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		SignupRequest	true	"Signup request"
//	@Success	201		{object}	ProfileResponse
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	409		{object}	httpx.ErrorResponse	"email already registered"
//	@Failure	422		{object}	pkgvalidator.ValidationResponse
//	@Router		/auth/signup [post]
func (h *SignupHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[SignupRequest](w, r)
	if !ok {
		return
	}

	admin, err := h.svc.Account.SignupAdmin(r.Context(), appsvcs.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	if h.store != nil {
		if err := auth.StartSession(w, r, h.store, admin.UID); err != nil {
			errhttp.WriteError(w, r, err)
			return
		}
	}

	httpx.JSON(w, http.StatusCreated, toProfileResponse(admin))
}
