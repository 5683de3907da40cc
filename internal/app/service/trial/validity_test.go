package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/types"
)

func activeRecord(expires time.Time) *models.DeviceTrial {
	return &models.DeviceTrial{
		ID:           "t-1",
		Fingerprint:  "abc123xyz789",
		Status:       types.TrialStatusActive,
		TrialExpires: expires,
	}
}

func TestEvaluate_NeverRegistered(t *testing.T) {
	v := Evaluate(nil, time.Now())
	require.False(t, v.Valid)
	require.Nil(t, v.Record)
	require.Nil(t, v.RemainingHours)
	require.Nil(t, v.PendingTransition)
}

func TestEvaluate_ActiveWithTimeLeft(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := activeRecord(now.Add(36*time.Hour + 15*time.Minute))

	v := Evaluate(rec, now)
	require.True(t, v.Valid)
	require.Nil(t, v.PendingTransition)
	require.NotNil(t, v.RemainingHours)
	require.InDelta(t, 36.25, *v.RemainingHours, 0.001)
}

func TestEvaluate_RemainingHoursRoundedToTwoDecimals(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := activeRecord(now.Add(10*time.Minute)) // 0.1666... hours

	v := Evaluate(rec, now)
	require.True(t, v.Valid)
	require.InDelta(t, 0.17, *v.RemainingHours, 0.0001)
}

func TestEvaluate_ActivePastExpiryPendsTransition(t *testing.T) {
	now := time.Date(2025, 6, 3, 13, 0, 0, 0, time.UTC) // T0+49h
	rec := activeRecord(now.Add(-time.Hour))

	v := Evaluate(rec, now)
	require.False(t, v.Valid)
	require.NotNil(t, v.RemainingHours)
	require.Equal(t, 0.0, *v.RemainingHours)
	require.NotNil(t, v.PendingTransition)
	require.Equal(t, types.TrialStatusExpired, *v.PendingTransition)
}

func TestEvaluate_BannedWithFutureExpiryIsInvalid(t *testing.T) {
	now := time.Now()
	rec := activeRecord(now.Add(24 * time.Hour))
	rec.Status = types.TrialStatusBanned

	v := Evaluate(rec, now)
	require.False(t, v.Valid)
	require.Nil(t, v.PendingTransition)
	require.NotNil(t, v.RemainingHours)
	require.InDelta(t, 24.0, *v.RemainingHours, 0.01)
}

func TestEvaluate_ExpiredStatusReportsZeroRemainingForPastExpiry(t *testing.T) {
	now := time.Now()
	rec := activeRecord(now.Add(-2 * time.Hour))
	rec.Status = types.TrialStatusExpired

	v := Evaluate(rec, now)
	require.False(t, v.Valid)
	require.Nil(t, v.PendingTransition)
	require.Equal(t, 0.0, *v.RemainingHours)
}
