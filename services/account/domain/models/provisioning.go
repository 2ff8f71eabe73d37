package models

import "fmt"

// ProvisioningState tracks a worker create or remove saga.
//
// Create:  Pending -> IdentityCreated -> ProfileWritten -> Committed
// Remove:  Pending -> ProfileDeactivated -> IdentityDeleted -> Committed
//
// Any state before the point of no return may move to RolledBack, or to
// CompensationFailed when undoing a step itself failed.
type ProvisioningState string

const (
	ProvisioningPending            ProvisioningState = "pending"
	ProvisioningIdentityCreated    ProvisioningState = "identity_created"
	ProvisioningProfileWritten     ProvisioningState = "profile_written"
	ProvisioningProfileDeactivated ProvisioningState = "profile_deactivated"
	ProvisioningIdentityDeleted    ProvisioningState = "identity_deleted"
	ProvisioningCommitted          ProvisioningState = "committed"
	ProvisioningRolledBack         ProvisioningState = "rolled_back"
	ProvisioningCompensationFailed ProvisioningState = "compensation_failed"
)

var provisioningTransitions = map[ProvisioningState][]ProvisioningState{
	ProvisioningPending:            {ProvisioningIdentityCreated, ProvisioningProfileDeactivated, ProvisioningRolledBack},
	ProvisioningIdentityCreated:    {ProvisioningProfileWritten, ProvisioningRolledBack, ProvisioningCompensationFailed},
	ProvisioningProfileWritten:     {ProvisioningCommitted},
	ProvisioningProfileDeactivated: {ProvisioningIdentityDeleted, ProvisioningRolledBack, ProvisioningCompensationFailed},
	ProvisioningIdentityDeleted:    {ProvisioningCommitted},
}

// IsTerminal reports whether no further transition is possible.
func (s ProvisioningState) IsTerminal() bool {
	return len(provisioningTransitions[s]) == 0
}

// Next validates the transition from s to to.
func (s ProvisioningState) Next(to ProvisioningState) (ProvisioningState, error) {
	for _, allowed := range provisioningTransitions[s] {
		if allowed == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("provisioning: illegal transition %s -> %s", s, to)
}
