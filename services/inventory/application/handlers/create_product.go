package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	pkgvalidator "github.com/blueledger/blueledger/pkg/validator"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// CreateProductRequest is the request body for POST /api/products.
type CreateProductRequest struct {
	Name       string          `json:"name"        validate:"notblank,max=120" example:"Cola 330ml"`
	Category   string          `json:"category"    validate:"max=60"           example:"drinks"`
	Price      decimal.Decimal `json:"price"       validate:"money"            example:"1.50" swaggertype:"string"`
	InitialQty int64           `json:"initial_qty" validate:"gte=0"            example:"24"`
} // @name CreateProductRequest

// CreateProductHandler handles POST /api/products.
type CreateProductHandler struct {
	svc *appsvcs.Services
}

// NewCreateProductHandler returns a CreateProductHandler backed by the given services.
func NewCreateProductHandler(svc *appsvcs.Services) *CreateProductHandler {
	return &CreateProductHandler{svc: svc}
}

// Execute creates a product in the caller's company.
//
//	@Summary		Create product
//	@Description	Creates a product owned by the caller's company (admin only)
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateProductRequest	true	"Product creation request"
//	@Success		201		{object}	ProductResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Failure		422		{object}	pkgvalidator.ValidationResponse
//	@Router			/products [post]
func (h *CreateProductHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[CreateProductRequest](w, r)
	if !ok {
		return
	}

	p, err := h.svc.Product.Create(r.Context(), caller, appsvcs.CreateProductInput{
		Name:       req.Name,
		Category:   req.Category,
		Price:      req.Price,
		InitialQty: req.InitialQty,
	})
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toProductResponse(p))
}
