package trial

import "github.com/macroflow/trialgate/pkg/types"

type transition struct {
	From types.TrialStatus
	To   types.TrialStatus
}

// validTransitions lists the allowed non-reactivating transitions.
// Any state may transition to active, but only with a fresh expiry
// (extend_trial / reset_trial); CanTransition handles that case.
var validTransitions = map[transition]bool{
	{types.TrialStatusActive, types.TrialStatusExpired}:  true, // lazy expiry, or unban of a device observed active
	{types.TrialStatusActive, types.TrialStatusBanned}:   true, // manual ban
	{types.TrialStatusExpired, types.TrialStatusBanned}:  true, // manual ban after expiry
	{types.TrialStatusBanned, types.TrialStatusExpired}:  true, // unban; never restores active directly
}

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to types.TrialStatus) bool {
	if from == to {
		return true
	}
	if to == types.TrialStatusActive {
		return true
	}
	return validTransitions[transition{from, to}]
}
