package services

import (
	"github.com/blueledger/blueledger/pkg/app"
	"github.com/blueledger/blueledger/pkg/config"
	"github.com/blueledger/blueledger/services/account/application/provisioning"
	"github.com/blueledger/blueledger/services/account/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
type Services struct {
	Account *AccountService
}

// New wires the account service. Worker provisioning runs as a Temporal
// workflow when PROVISIONING_MODE=temporal and a client is available,
// otherwise in-process.
func New(a *app.Application) *Services {
	identities := postgres.NewIdentityStore(a.Db)
	profiles := postgres.NewProfileRepository(a.Db, a.EventBus)

	var runner provisioning.Runner
	if a.Config.ProvisioningMode == config.ProvisioningTemporal && a.TemporalClient != nil {
		runner = provisioning.NewTemporalRunner(a.TemporalClient.Client, a.Config.ProvisioningTaskQueue)
	} else {
		runner = provisioning.NewInlineRunner(&provisioning.Activities{Identities: identities, Profiles: profiles}, a.Logger)
	}

	var opts []AccountServiceOption
	if a.Tokens != nil {
		opts = append(opts, WithTokens(a.Tokens))
	}
	return &Services{
		Account: NewAccountService(identities, profiles, runner, a.Logger, opts...),
	}
}
