package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// UpdateProductRequest is the request body for PATCH /api/products/{id}.
// Quantities cannot be edited; use restock and sell.
type UpdateProductRequest struct {
	Name     string          `json:"name"     validate:"notblank,max=120" example:"Cola Zero 330ml"`
	Category string          `json:"category" validate:"max=60"           example:"drinks"`
	Price    decimal.Decimal `json:"price"    validate:"money"            example:"1.75" swaggertype:"string"`
} // @name UpdateProductRequest

// UpdateProductHandler handles PATCH /api/products/{id}.
type UpdateProductHandler struct {
	svc *appsvcs.Services
}

// NewUpdateProductHandler returns an UpdateProductHandler backed by the given services.
func NewUpdateProductHandler(svc *appsvcs.Services) *UpdateProductHandler {
	return &UpdateProductHandler{svc: svc}
}

// Execute replaces a product's name, category and price.
//
//	@Summary	Update product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Product ID"	format(uuid)
//	@Param		request	body		UpdateProductRequest	true	"New product details"
//	@Success	200		{object}	ProductResponse
//	@Failure	403		{object}	httpx.ErrorResponse
//	@Failure	404		{object}	httpx.ErrorResponse
//	@Failure	422		{object}	pkgvalidator.ValidationResponse
//	@Router		/products/{id} [patch]
func (h *UpdateProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, ok := productID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateProductRequest](w, r)
	if !ok {
		return
	}

	p, err := h.svc.Product.Update(r.Context(), caller, id, appsvcs.UpdateProductInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
	})
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResponse(p))
}
