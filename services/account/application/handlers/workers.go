package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/account/application/services"
)

// CreateWorkerRequest is the request body for POST /api/workers.
type CreateWorkerRequest struct {
	Name         string `json:"name"          validate:"notblank,max=120" example:"Ana"`
	Email        string `json:"email"         validate:"required,email"   example:"ana@shop.io"`
	TempPassword string `json:"temp_password" validate:"required,min=6"   example:"changeme"`
} // @name CreateWorkerRequest

// CreateWorkerResponse returns the uid of the provisioned worker.
type CreateWorkerResponse struct {
	UID uuid.UUID `json:"uid"`
} // @name CreateWorkerResponse

// WorkerListResponse lists an admin's workers.
type WorkerListResponse struct {
	Items []ProfileResponse `json:"items"`
} // @name WorkerListResponse

// WorkersHandler serves /api/workers.
type WorkersHandler struct {
	svc *appsvcs.Services
}

// NewWorkersHandler returns a WorkersHandler backed by the given services.
func NewWorkersHandler(svc *appsvcs.Services) *WorkersHandler {
	return &WorkersHandler{svc: svc}
}

// List returns the workers the caller created.
//
//	@Summary	List workers
//	@Tags		workers
//	@Produce	json
//	@Success	200	{object}	WorkerListResponse
//	@Failure	403	{object}	httpx.ErrorResponse
//	@Router		/workers [get]
func (h *WorkersHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	workers, err := h.svc.Account.ListWorkers(r.Context(), caller.UID)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	items := make([]ProfileResponse, len(workers))
	for i, p := range workers {
		items[i] = toProfileResponse(p)
	}
	httpx.JSON(w, http.StatusOK, WorkerListResponse{Items: items})
}

// Create provisions a worker in the caller's company.
//
//	@Summary		Create worker
//	@Description	Creates the worker's login and profile; the login is removed again if the profile cannot be written
//	@Tags			workers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateWorkerRequest	true	"Worker"
//	@Success		201		{object}	CreateWorkerResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Failure		409		{object}	httpx.ErrorResponse	"email already registered"
//	@Failure		412		{object}	httpx.ErrorResponse
//	@Failure		422		{object}	pkgvalidator.ValidationResponse
//	@Router			/workers [post]
func (h *WorkersHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[CreateWorkerRequest](w, r)
	if !ok {
		return
	}

	uid, err := h.svc.Account.CreateWorker(r.Context(), caller.UID, req.Name, req.Email, req.TempPassword)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, CreateWorkerResponse{UID: uid})
}

// Delete removes a worker of the caller's company.
//
//	@Summary	Delete worker
//	@Tags		workers
//	@Param		uid	path	string	true	"Worker UID"	format(uuid)
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorResponse
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Failure	412	{object}	httpx.ErrorResponse	"target is not a worker"
//	@Router		/workers/{uid} [delete]
func (h *WorkersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	uid, ok := workerUID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Account.DeleteWorker(r.Context(), caller.UID, uid); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
