package handlers

import (
	"net/http"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// RestockRequest is the request body for POST /api/products/{id}/restock.
// Amounts above 1,000,000 are clamped.
type RestockRequest struct {
	Amount int64 `json:"amount" example:"5"`
} // @name RestockRequest

// RestockHandler handles POST /api/products/{id}/restock.
type RestockHandler struct {
	svc *appsvcs.Services
}

// NewRestockHandler returns a RestockHandler backed by the given services.
func NewRestockHandler(svc *appsvcs.Services) *RestockHandler {
	return &RestockHandler{svc: svc}
}

// Execute adds stock to a product.
//
//	@Summary		Restock product
//	@Description	Adds amount units to both the cumulative and the on-hand quantity
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Product ID"	format(uuid)
//	@Param			request	body		RestockRequest	true	"Units to add"
//	@Success		200		{object}	models.RestockResult
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Router			/products/{id}/restock [post]
func (h *RestockHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := productID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[RestockRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.Product.Restock(r.Context(), caller, id, req.Amount)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
