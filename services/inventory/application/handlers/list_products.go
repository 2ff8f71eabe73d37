package handlers

import (
	"net/http"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// ListProductsHandler handles GET /api/products.
type ListProductsHandler struct {
	svc *appsvcs.Services
}

// NewListProductsHandler returns a ListProductsHandler backed by the given services.
func NewListProductsHandler(svc *appsvcs.Services) *ListProductsHandler {
	return &ListProductsHandler{svc: svc}
}

// Execute lists the caller's company products, newest first.
//
//	@Summary		List products
//	@Description	Lists the products of the caller's company
//	@Tags			products
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (default 50, max 500)"
//	@Param			offset	query		int	false	"Rows to skip"
//	@Success		200		{object}	ProductListResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Failure		412		{object}	httpx.ErrorResponse
//	@Router			/products [get]
func (h *ListProductsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	opts, ok := pageOpts(w, r)
	if !ok {
		return
	}

	products, total, err := h.svc.Product.List(r.Context(), caller, opts)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, ProductListResponse{
		Items:  toProductResponses(products),
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}
