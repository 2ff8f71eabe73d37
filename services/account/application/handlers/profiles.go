package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/errhttp"
	"github.com/blueledger/blueledger/pkg/tenant"
	accountdomain "github.com/blueledger/blueledger/services/account/domain"
	"github.com/blueledger/blueledger/services/account/domain/models"
)

// ProfileResponse is the JSON shape of a profile.
type ProfileResponse struct {
	UID       uuid.UUID   `json:"uid"`
	Name      string      `json:"name"                 example:"Ana"`
	Email     string      `json:"email"                example:"ana@shop.io"`
	Role      tenant.Role `json:"role"                 example:"worker" swaggertype:"string"`
	CompanyID *uuid.UUID  `json:"company_id,omitempty"`
	CreatedBy *uuid.UUID  `json:"created_by,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
} // @name ProfileResponse

func toProfileResponse(p *models.Profile) ProfileResponse {
	resp := ProfileResponse{
		UID:       p.UID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
	if p.CompanyID != uuid.Nil {
		id := p.CompanyID
		resp.CompanyID = &id
	}
	if p.CreatedBy != uuid.Nil {
		id := p.CreatedBy
		resp.CreatedBy = &id
	}
	return resp
}

func callerFrom(w http.ResponseWriter, r *http.Request) (tenant.Caller, bool) {
	caller, err := tenant.FromContext(r.Context())
	if err != nil {
		errhttp.WriteError(w, r, auth.ErrUnauthenticated)
		return tenant.Caller{}, false
	}
	return caller, true
}

func workerUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "uid"))
	if err != nil {
		errhttp.WriteError(w, r, fmt.Errorf("%w: worker uid must be a UUID", accountdomain.ErrInvalidArgument))
		return uuid.Nil, false
	}
	return id, true
}
