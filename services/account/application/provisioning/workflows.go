package provisioning

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/blueledger/blueledger/services/account/domain/models"
)

var activityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 10 * time.Second,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    200 * time.Millisecond,
		BackoffCoefficient: 2,
		MaximumInterval:    5 * time.Second,
		MaximumAttempts:    5,
	},
}

// ProvisionWorkerWorkflow creates the identity, then the profile, and
// deletes the identity again if the profile cannot be written.
func ProvisionWorkerWorkflow(ctx workflow.Context, in ProvisionInput) (Result, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions)
	log := workflow.GetLogger(ctx)
	var a *Activities

	if err := workflow.ExecuteActivity(ctx, a.CreateIdentity, in).Get(ctx, nil); err != nil {
		return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningRolledBack}, workflowFailure(err, models.ProvisioningRolledBack)
	}

	if err := workflow.ExecuteActivity(ctx, a.WriteWorkerProfile, in).Get(ctx, nil); err != nil {
		log.Warn("profile write failed, deleting identity", "worker_uid", in.WorkerUID, "error", err)
		cctx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		if cerr := workflow.ExecuteActivity(cctx, a.DeleteIdentity, in.WorkerUID).Get(cctx, nil); cerr != nil {
			log.Error("identity compensation failed", "worker_uid", in.WorkerUID, "error", cerr)
			return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningCompensationFailed},
				workflowFailure(errors.Join(err, cerr), models.ProvisioningCompensationFailed)
		}
		return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningRolledBack}, workflowFailure(err, models.ProvisioningRolledBack)
	}

	return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningCommitted}, nil
}

// RemoveWorkerWorkflow deactivates the profile, deletes the identity and
// then the profile. A failure to delete the identity reactivates the
// profile; after that only forward progress is possible.
func RemoveWorkerWorkflow(ctx workflow.Context, in RemoveInput) (Result, error) {
	ctx = workflow.WithActivityOptions(ctx, activityOptions)
	log := workflow.GetLogger(ctx)
	var a *Activities

	if err := workflow.ExecuteActivity(ctx, a.DeactivateProfile, in).Get(ctx, nil); err != nil {
		return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningRolledBack}, workflowFailure(err, models.ProvisioningRolledBack)
	}

	if err := workflow.ExecuteActivity(ctx, a.DeleteIdentity, in.WorkerUID).Get(ctx, nil); err != nil {
		log.Warn("identity delete failed, reactivating profile", "worker_uid", in.WorkerUID, "error", err)
		cctx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		if cerr := workflow.ExecuteActivity(cctx, a.ReactivateProfile, in).Get(cctx, nil); cerr != nil {
			return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningCompensationFailed},
				workflowFailure(errors.Join(err, cerr), models.ProvisioningCompensationFailed)
		}
		return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningRolledBack}, workflowFailure(err, models.ProvisioningRolledBack)
	}

	if err := workflow.ExecuteActivity(ctx, a.DeleteProfile, in).Get(ctx, nil); err != nil {
		log.Error("profile delete failed after identity removal", "worker_uid", in.WorkerUID, "error", err)
		return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningIdentityDeleted}, workflowFailure(err, models.ProvisioningIdentityDeleted)
	}

	return Result{WorkerUID: in.WorkerUID, State: models.ProvisioningCommitted}, nil
}

// workflowFailure ends a workflow with the reached state as the error type
// and the failing step's error type as detail, so the caller can rebuild
// the domain error.
func workflowFailure(cause error, state models.ProvisioningState) error {
	return temporal.NewNonRetryableApplicationError(cause.Error(), string(state), cause, causeType(cause))
}
