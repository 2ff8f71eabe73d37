package services

import (
	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/services/messaging/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Message *MessageService
}

// New wires the messaging services from the Application container.
func New(a *app.Application) *Services {
	return &Services{
		Message: NewMessageService(postgres.NewMessageRepository(a.Db, a.EventBus), a.Live, a.Logger),
	}
}
