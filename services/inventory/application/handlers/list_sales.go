package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/httpx"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// SaleResponse is the JSON shape of a sale record.
type SaleResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name" example:"Cola 330ml"`
	UnitPrice   decimal.Decimal `json:"unit_price"   example:"1.50" swaggertype:"string"`
	UnitsSold   int64           `json:"units_sold"   example:"2"`
	Total       decimal.Decimal `json:"total"        example:"3.00" swaggertype:"string"`
	SoldByUID   uuid.UUID       `json:"sold_by_uid"`
	SoldByName  string          `json:"sold_by_name" example:"Ana"`
	SoldByEmail string          `json:"sold_by_email" example:"ana@shop.io"`
	SoldAt      time.Time       `json:"sold_at"`
} // @name SaleResponse

// ListSalesHandler handles GET /api/sales.
type ListSalesHandler struct {
	svc *appsvcs.Services
}

// NewListSalesHandler returns a ListSalesHandler backed by the given services.
func NewListSalesHandler(svc *appsvcs.Services) *ListSalesHandler {
	return &ListSalesHandler{svc: svc}
}

// Execute lists the company's sales, newest first.
//
//	@Summary	List sales
//	@Tags		ledger
//	@Produce	json
//	@Param		limit	query	int	false	"Page size (default 50, max 500)"
//	@Param		offset	query	int	false	"Rows to skip"
//	@Success	200		{array}	SaleResponse
//	@Router		/sales [get]
func (h *ListSalesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	opts, ok := pageOpts(w, r)
	if !ok {
		return
	}

	sales, err := h.svc.Product.ListSales(r.Context(), caller, opts)
	if err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	out := make([]SaleResponse, len(sales))
	for i, s := range sales {
		out[i] = SaleResponse{
			ID:          s.ID,
			ProductID:   s.ProductID,
			ProductName: s.ProductName,
			UnitPrice:   s.UnitPrice,
			UnitsSold:   s.UnitsSold,
			Total:       s.Total(),
			SoldByUID:   s.SoldByUID,
			SoldByName:  s.SoldByName,
			SoldByEmail: s.SoldByEmail,
			SoldAt:      s.SoldAt,
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}
