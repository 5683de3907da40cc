package trial

import (
	"time"

	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/types"
)

// Evaluate computes the logical validity of a trial record at now. It is
// pure: the returned PendingTransition must be persisted by the caller
// for the lazy expiry to take effect.
func Evaluate(record *models.DeviceTrial, now time.Time) *Validity {
	if record == nil {
		return &Validity{Valid: false}
	}

	remaining := record.RemainingHours(now)

	if record.Status != types.TrialStatusActive {
		return &Validity{Valid: false, Record: record, RemainingHours: &remaining}
	}

	if now.Before(record.TrialExpires) {
		return &Validity{Valid: true, Record: record, RemainingHours: &remaining}
	}

	expired := types.TrialStatusExpired
	zero := 0.0
	return &Validity{Valid: false, Record: record, RemainingHours: &zero, PendingTransition: &expired}
}
