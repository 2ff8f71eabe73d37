package handlers

import (
	"net/http"

	"github.com/blueledger/blueledger/pkg/errhttp"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// DeleteProductHandler handles DELETE /api/products/{id}.
type DeleteProductHandler struct {
	svc *appsvcs.Services
}

// NewDeleteProductHandler returns a DeleteProductHandler backed by the given services.
func NewDeleteProductHandler(svc *appsvcs.Services) *DeleteProductHandler {
	return &DeleteProductHandler{svc: svc}
}

// Execute hard-deletes a product.
//
//	@Summary	Delete product
//	@Tags		products
//	@Param		id	path	string	true	"Product ID"	format(uuid)
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorResponse
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Router		/products/{id} [delete]
func (h *DeleteProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Product.Delete(r.Context(), caller, id); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
