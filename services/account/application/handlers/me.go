package handlers

import (
	"net/http"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	appsvcs "github.com/blueledger/blueledger/services/account/application/services"
)

// MeHandler handles GET /api/me.
type MeHandler struct {
	svc *appsvcs.Services
}

// NewMeHandler returns a MeHandler backed by the given services.
func NewMeHandler(svc *appsvcs.Services) *MeHandler {
	return &MeHandler{svc: svc}
}

// Execute returns the caller's profile.
//
//	@Summary	Current profile
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	ProfileResponse
//	@Failure	401	{object}	httpx.ErrorResponse
//	@Failure	403	{object}	httpx.ErrorResponse
//	@Router		/me [get]
func (h *MeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Account.Me(r.Context(), caller.UID)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(p))
}
