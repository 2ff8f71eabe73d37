package provisioning

import (
	"context"
	"errors"
	"time"

	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/saga"
	"github.com/blueledger/blueledger/services/account/domain/models"
)

const profileWriteRetries = 3

// InlineRunner runs the sagas in the calling goroutine with pkg/saga.
type InlineRunner struct {
	acts      *Activities
	log       logger.Logger
	retryBase time.Duration
}

// NewInlineRunner returns an InlineRunner over acts.
func NewInlineRunner(acts *Activities, log logger.Logger) *InlineRunner {
	return &InlineRunner{acts: acts, log: log, retryBase: 50 * time.Millisecond}
}

// Provision creates the identity, then writes the profile. When the profile
// cannot be written the identity is deleted again.
func (r *InlineRunner) Provision(ctx context.Context, in ProvisionInput) (Result, error) {
	res := Result{WorkerUID: in.WorkerUID, State: models.ProvisioningPending}
	advance := func(to models.ProvisioningState) {
		if next, err := res.State.Next(to); err == nil {
			res.State = next
		}
	}

	s := saga.New("provision_worker", r.log, saga.WithRetryBase(r.retryBase)).
		Then(saga.Step{
			Name: "create_identity",
			Do: func(ctx context.Context) error {
				if err := permanent(r.acts.CreateIdentity(ctx, in)); err != nil {
					return err
				}
				advance(models.ProvisioningIdentityCreated)
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return r.acts.DeleteIdentity(ctx, in.WorkerUID)
			},
		}).
		Then(saga.Step{
			Name:    "write_profile",
			Retries: profileWriteRetries,
			Do: func(ctx context.Context) error {
				if err := permanent(r.acts.WriteWorkerProfile(ctx, in)); err != nil {
					return err
				}
				advance(models.ProvisioningProfileWritten)
				return nil
			},
		})

	if _, err := s.Run(ctx); err != nil {
		return r.fail(res, err)
	}
	advance(models.ProvisioningCommitted)
	return res, nil
}

// Remove deactivates the profile, deletes the identity and finally deletes
// the profile. Deleting the identity is the point of no return.
func (r *InlineRunner) Remove(ctx context.Context, in RemoveInput) (Result, error) {
	res := Result{WorkerUID: in.WorkerUID, State: models.ProvisioningPending}
	advance := func(to models.ProvisioningState) {
		if next, err := res.State.Next(to); err == nil {
			res.State = next
		}
	}

	s := saga.New("remove_worker", r.log, saga.WithRetryBase(r.retryBase)).
		Then(saga.Step{
			Name: "deactivate_profile",
			Do: func(ctx context.Context) error {
				if err := permanent(r.acts.DeactivateProfile(ctx, in)); err != nil {
					return err
				}
				advance(models.ProvisioningProfileDeactivated)
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return r.acts.ReactivateProfile(ctx, in)
			},
		}).
		Then(saga.Step{
			Name:    "delete_identity",
			Retries: profileWriteRetries,
			Pivot:   true,
			Do: func(ctx context.Context) error {
				if err := permanent(r.acts.DeleteIdentity(ctx, in.WorkerUID)); err != nil {
					return err
				}
				advance(models.ProvisioningIdentityDeleted)
				return nil
			},
		}).
		Then(saga.Step{
			Name:    "delete_profile",
			Retries: profileWriteRetries,
			Do: func(ctx context.Context) error {
				return permanent(r.acts.DeleteProfile(ctx, in))
			},
		})

	if _, err := s.Run(ctx); err != nil {
		return r.fail(res, err)
	}
	advance(models.ProvisioningCommitted)
	return res, nil
}

func (r *InlineRunner) fail(res Result, err error) (Result, error) {
	switch {
	case errors.Is(err, saga.ErrRolledBack):
		res.State = models.ProvisioningRolledBack
	case errors.Is(err, saga.ErrCompensationFailed):
		res.State = models.ProvisioningCompensationFailed
	}
	return res, err
}

func permanent(err error) error {
	if isPermanent(err) {
		return saga.Permanent(err)
	}
	return err
}
