package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/pkg/auth"
	"github.com/blueledger/blueledger/pkg/httpx"
	"github.com/blueledger/blueledger/pkg/tenant"
	"github.com/blueledger/blueledger/services/account/application/handlers"
	appsvcs "github.com/blueledger/blueledger/services/account/application/services"
)

// AccountRoutes registers auth and worker endpoints and returns the
// services so the caller can reuse the account service as the
// auth.CallerResolver for other bounded contexts.
func AccountRoutes(r chi.Router, a *app.Application) *appsvcs.Services {
	svcs := appsvcs.New(a)
	var tokens auth.TokenParser
	if a.Tokens != nil {
		tokens = a.Tokens
	}
	authn := auth.Authenticated(a.SessionStore, tokens, svcs.Account, a.Logger)
	Mount(r, svcs, a.SessionStore, authn, httpx.RateLimit(a.Config.AuthRequestsPerMinute))
	return svcs
}

// Mount registers the endpoints backed by svcs. publicMw wraps the
// unauthenticated /auth routes, typically with a stricter rate limit.
func Mount(r chi.Router, svcs *appsvcs.Services, store sessions.Store, authn func(http.Handler) http.Handler, publicMw ...func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(publicMw...)
		r.Post("/signup", handlers.NewSignupHandler(svcs, store).Execute)
		r.Post("/login", handlers.NewLoginHandler(svcs, store).Execute)
		r.Post("/logout", handlers.NewLogoutHandler(store).Execute)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Get("/me", handlers.NewMeHandler(svcs).Execute)

		workers := handlers.NewWorkersHandler(svcs)
		r.Route("/workers", func(r chi.Router) {
			r.Use(auth.RequireRole(tenant.RoleAdmin))
			r.Get("/", workers.List)
			r.Post("/", workers.Create)
			r.Delete("/{uid}", workers.Delete)
		})
	})
}
