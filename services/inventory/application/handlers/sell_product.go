package handlers

import (
	"net/http"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// SellRequest is the request body for POST /api/products/{id}/sell.
type SellRequest struct {
	Units int64 `json:"units" example:"2"`
} // @name SellRequest

// SellHandler handles POST /api/products/{id}/sell.
type SellHandler struct {
	svc *appsvcs.Services
}

// NewSellHandler returns a SellHandler backed by the given services.
func NewSellHandler(svc *appsvcs.Services) *SellHandler {
	return &SellHandler{svc: svc}
}

// Execute sells units of a product. The stock limit is checked against the
// quantity on hand at commit time.
//
//	@Summary	Sell product
//	@Tags		ledger
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"Product ID"	format(uuid)
//	@Param		request	body		SellRequest	true	"Units to sell"
//	@Success	200		{object}	models.SellResult
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	403		{object}	httpx.ErrorResponse
//	@Failure	404		{object}	httpx.ErrorResponse
//	@Failure	409		{object}	httpx.ErrorResponse	"only N left"
//	@Router		/products/{id}/sell [post]
func (h *SellHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := productID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[SellRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.Product.Sell(r.Context(), caller, id, req.Units)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
