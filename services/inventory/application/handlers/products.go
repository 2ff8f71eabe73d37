package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/tenant"
	inventorydomain "github.com/blueledger/blueledger/services/inventory/domain"
	"github.com/blueledger/blueledger/services/inventory/domain/models"
	"github.com/blueledger/blueledger/services/inventory/domain/repositories"
)

// ProductResponse is the JSON shape of a product.
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"                          example:"123e4567-e89b-12d3-a456-426614174000"`
	CompanyID      uuid.UUID       `json:"company_id"                  example:"550e8400-e29b-41d4-a716-446655440000"`
	Name           string          `json:"name"                        example:"Cola 330ml"`
	Category       string          `json:"category"                    example:"drinks"`
	Price          decimal.Decimal `json:"price"                       example:"1.50" swaggertype:"string"`
	QtyUploaded    int64           `json:"qty_uploaded"                example:"15"`
	QtyCurrent     int64           `json:"qty_current"                 example:"5"`
	QtySold        int64           `json:"qty_sold"                    example:"10"`
	Status         models.Status   `json:"status"                      example:"available" swaggertype:"string"`
	Version        int64           `json:"version"                     example:"4"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	LastSoldAt     *time.Time      `json:"last_sold_at,omitempty"`
	LastSoldByUID  *uuid.UUID      `json:"last_sold_by_uid,omitempty"`
	LastSoldByName string          `json:"last_sold_by_name,omitempty" example:"Ana"`
} // @name ProductResponse

// ProductListResponse is a page of products.
type ProductListResponse struct {
	Items  []ProductResponse `json:"items"`
	Total  int               `json:"total"  example:"42"`
	Limit  int               `json:"limit"  example:"50"`
	Offset int               `json:"offset" example:"0"`
} // @name ProductListResponse

func toProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		CompanyID:      p.CompanyID,
		Name:           p.Name.String(),
		Category:       p.Category,
		Price:          p.Price,
		QtyUploaded:    p.QtyUploaded,
		QtyCurrent:     p.QtyCurrent,
		QtySold:        p.QtySold,
		Status:         p.Status,
		Version:        p.Version,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		LastSoldAt:     p.LastSoldAt,
		LastSoldByUID:  p.LastSoldByUID,
		LastSoldByName: p.LastSoldByName,
	}
}

func toProductResponses(products []*models.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}

// callerFrom returns the caller resolved by auth.RequireCaller, writing a
// 401 when it is absent.
func callerFrom(w http.ResponseWriter, r *http.Request) (tenant.Caller, bool) {
	caller, err := tenant.FromContext(r.Context())
	if err != nil {
		errhttp.WriteError(w, r, auth.ErrUnauthenticated)
		return tenant.Caller{}, false
	}
	return caller, true
}

// productID parses the {id} path parameter, writing a 400 when malformed.
func productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errhttp.WriteError(w, r, fmt.Errorf("%w: product id must be a UUID", inventorydomain.ErrInvalidArgument))
		return uuid.Nil, false
	}
	return id, true
}

// pageOpts reads ?limit=&offset=. Out-of-range values are normalized by the
// service.
func pageOpts(w http.ResponseWriter, r *http.Request) (repositories.QueryOpts, bool) {
	var opts repositories.QueryOpts
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errhttp.WriteError(w, r, fmt.Errorf("%w: %s must be an integer", inventorydomain.ErrInvalidArgument, name))
			return repositories.QueryOpts{}, false
		}
		*dst = n
	}
	return opts, true
}
