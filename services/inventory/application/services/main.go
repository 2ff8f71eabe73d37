package services

import (
	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/pkg/cache"
	"github.com/blueledger/blueledger/services/inventory/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Product *ProductService
}

// New wires all inventory application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	repo := postgres.NewProductRepository(a.Db, a.EventBus)

	opts := []ProductServiceOption{WithLedgerMetrics(a.LedgerMetrics)}
	if a.Redis != nil {
		opts = append(opts, WithReadModel(cache.NewProductCache(a.Redis)))
	}
	if a.Live != nil {
		opts = append(opts, WithLiveQuery(a.Live, a.Live))
	}

	return &Services{
		Product: NewProductService(repo, a.Logger, opts...),
	}
}
