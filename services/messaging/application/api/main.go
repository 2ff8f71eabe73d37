package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/tenant"
	"github.com/blueledger/blueledger/services/messaging/application/handlers"
	appsvcs "github.com/blueledger/blueledger/services/messaging/application/services"
)

// MessagingRoutes registers the message endpoints.
func MessagingRoutes(r chi.Router, a *app.Application, authn func(http.Handler) http.Handler) {
	Mount(r, appsvcs.New(a), authn)
}

// Mount registers the endpoints backed by svcs.
func Mount(r chi.Router, svcs *appsvcs.Services, authn func(http.Handler) http.Handler) {
	h := handlers.NewMessagesHandler(svcs)
	r.Route("/messages", func(r chi.Router) {
		r.Use(authn, auth.RequireCompany)
		r.Get("/", h.List)
		r.Post("/", h.Post)
		r.Get("/stream", h.Stream)
		r.With(auth.RequireRole(tenant.RoleAdmin)).Delete("/{id}", h.Delete)
	})
}
