package handlers

import (
	"net/http"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// ProductSummaryHandler handles GET /api/products/summary.
type ProductSummaryHandler struct {
	svc *appsvcs.Services
}

// NewProductSummaryHandler returns a ProductSummaryHandler backed by the given services.
func NewProductSummaryHandler(svc *appsvcs.Services) *ProductSummaryHandler {
	return &ProductSummaryHandler{svc: svc}
}

// Execute returns dashboard totals for the caller's company.
//
//	@Summary	Inventory summary
//	@Tags		products
//	@Produce	json
//	@Success	200	{object}	models.Summary
//	@Router		/products/summary [get]
func (h *ProductSummaryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	sum, err := h.svc.Product.Summary(r.Context(), caller)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}
