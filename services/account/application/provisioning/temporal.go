package provisioning

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"

	"github.com/blueledger/blueledger/pkg/saga"
	"github.com/blueledger/blueledger/services/account/domain/models"
)

// TemporalRunner starts the provisioning workflows and waits for their result.
type TemporalRunner struct {
	client    client.Client
	taskQueue string
}

// NewTemporalRunner returns a runner that schedules on taskQueue.
func NewTemporalRunner(c client.Client, taskQueue string) *TemporalRunner {
	return &TemporalRunner{client: c, taskQueue: taskQueue}
}

// Register adds the workflows and activities to a Temporal worker.
func Register(w worker.Registry, acts *Activities) {
	w.RegisterWorkflow(ProvisionWorkerWorkflow)
	w.RegisterWorkflow(RemoveWorkerWorkflow)
	w.RegisterActivity(acts)
}

// Provision runs ProvisionWorkerWorkflow. The workflow id is derived from
// the worker uid, so a retried request joins the running execution.
func (r *TemporalRunner) Provision(ctx context.Context, in ProvisionInput) (Result, error) {
	return r.execute(ctx, "provision-worker-"+in.WorkerUID.String(), ProvisionWorkerWorkflow, in)
}

// Remove runs RemoveWorkerWorkflow.
func (r *TemporalRunner) Remove(ctx context.Context, in RemoveInput) (Result, error) {
	return r.execute(ctx, "remove-worker-"+in.WorkerUID.String(), RemoveWorkerWorkflow, in)
}

func (r *TemporalRunner) execute(ctx context.Context, id string, wf any, in any) (Result, error) {
	run, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       id,
		TaskQueue:                r.taskQueue,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, wf, in)
	if err != nil {
		return Result{}, fmt.Errorf("start workflow %s: %w", id, err)
	}

	var res Result
	if err := run.Get(ctx, &res); err != nil {
		return fromWorkflowError(err)
	}
	return res, nil
}

// fromWorkflowError rebuilds the error a saga.Saga would have returned from
// the ApplicationError produced by workflowFailure.
func fromWorkflowError(err error) (Result, error) {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return Result{}, err
	}

	state := models.ProvisioningState(appErr.Type())
	var outcome error
	switch state {
	case models.ProvisioningRolledBack:
		outcome = saga.ErrRolledBack
	case models.ProvisioningCompensationFailed:
		outcome = saga.ErrCompensationFailed
	case models.ProvisioningIdentityDeleted:
		outcome = saga.ErrStalled
	default:
		return Result{}, err
	}

	var typ string
	if appErr.HasDetails() {
		_ = appErr.Details(&typ)
	}
	if sentinel, ok := permanentErrors[typ]; ok {
		return Result{State: state}, errors.Join(sentinel, outcome, err)
	}
	return Result{State: state}, errors.Join(outcome, err)
}
