package trial

import (
	"fmt"
	"time"

	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/types"
)

// ActionPlan is the computed outcome of an admin action before it is
// persisted. TrialExpires is nil when the action leaves the window
// untouched.
type ActionPlan struct {
	Status       types.TrialStatus
	TrialExpires *time.Time
}

// PlanAction computes the target state for an admin action. It is pure;
// the caller checks the transition table and persists the result.
func PlanAction(action Action, hours int, now time.Time, trialDuration time.Duration) (*ActionPlan, error) {
	switch action {
	case ActionBan:
		return &ActionPlan{Status: types.TrialStatusBanned}, nil
	case ActionUnban:
		// unban deliberately lands on expired; reactivation requires a
		// separate extend_trial or reset_trial.
		return &ActionPlan{Status: types.TrialStatusExpired}, nil
	case ActionExtendTrial:
		if hours <= 0 {
			return nil, fmt.Errorf("%w: extend_trial requires positive hours", ErrInvalidAction)
		}
		// absolute: expiry becomes now + hours, not trial_expires + hours
		exp := now.Add(time.Duration(hours) * time.Hour)
		return &ActionPlan{Status: types.TrialStatusActive, TrialExpires: &exp}, nil
	case ActionResetTrial:
		exp := now.Add(trialDuration)
		return &ActionPlan{Status: types.TrialStatusActive, TrialExpires: &exp}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}
}

// planReRegistration returns the column updates a repeat registration
// may apply to an existing record, or nil when nothing changes. Only
// the attached email and provider are ever updated; the trial window
// and status are never touched by re-registration.
func planReRegistration(record *models.DeviceTrial, req *RegisterRequest, now time.Time) map[string]interface{} {
	if req.Email == nil || (record.Email != nil && *record.Email == *req.Email) {
		return nil
	}
	updates := map[string]interface{}{
		"email":            req.Email,
		"email_updated_at": &now,
	}
	if req.AuthProvider != "" {
		updates["auth_provider"] = req.AuthProvider
	}
	return updates
}

// clampPage normalizes pagination input. Pages are 1-based; the limit
// defaults to 20 and is capped at 200.
func clampPage(page, limit int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if page <= 0 {
		page = 1
	}
	return page, limit
}
