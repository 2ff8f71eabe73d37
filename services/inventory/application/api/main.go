package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/tenant"
	"github.com/blueledger/blueledger/services/inventory/application/handlers"
	appsvcs "github.com/blueledger/blueledger/services/inventory/application/services"
)

// InventoryRoutes registers product and sales endpoints on the provided chi
// router. authn must resolve the caller (see auth.Authenticated).
func InventoryRoutes(r chi.Router, a *app.Application, authn func(http.Handler) http.Handler) {
	Mount(r, appsvcs.New(a), authn)
}

// Mount registers the endpoints backed by svcs.
func Mount(r chi.Router, svcs *appsvcs.Services, authn func(http.Handler) http.Handler) {
	adminOnly := auth.RequireRole(tenant.RoleAdmin)

	r.Group(func(r chi.Router) {
		r.Use(authn, auth.RequireCompany)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", handlers.NewListProductsHandler(svcs).Execute)
			r.Get("/summary", handlers.NewProductSummaryHandler(svcs).Execute)
			r.Get("/stream", handlers.NewStreamProductsHandler(svcs).Execute)
			r.Get("/{id}", handlers.NewGetProductHandler(svcs).Execute)
			r.Post("/{id}/sell", handlers.NewSellHandler(svcs).Execute)

			r.With(adminOnly).Post("/", handlers.NewCreateProductHandler(svcs).Execute)
			r.With(adminOnly).Patch("/{id}", handlers.NewUpdateProductHandler(svcs).Execute)
			r.With(adminOnly).Delete("/{id}", handlers.NewDeleteProductHandler(svcs).Execute)
			r.With(adminOnly).Post("/{id}/restock", handlers.NewRestockHandler(svcs).Execute)
		})

		r.With(adminOnly).Get("/sales", handlers.NewListSalesHandler(svcs).Execute)
	})
}
