package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/types"
)

func TestPlanAction_ExtendTrialIsAbsolute(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	plan, err := PlanAction(ActionExtendTrial, 24, now, 48*time.Hour)
	require.NoError(t, err)
	require.Equal(t, types.TrialStatusActive, plan.Status)
	require.NotNil(t, plan.TrialExpires)
	// now + 24h, regardless of whatever the previous expiry was
	require.Equal(t, now.Add(24*time.Hour), *plan.TrialExpires)
}

func TestPlanAction_UnbanNeverYieldsActive(t *testing.T) {
	plan, err := PlanAction(ActionUnban, 0, time.Now(), 48*time.Hour)
	require.NoError(t, err)
	require.Equal(t, types.TrialStatusExpired, plan.Status)
	require.Nil(t, plan.TrialExpires, "unban leaves the trial window untouched")
}

func TestPlanAction_BanLeavesWindowUntouched(t *testing.T) {
	plan, err := PlanAction(ActionBan, 0, time.Now(), 48*time.Hour)
	require.NoError(t, err)
	require.Equal(t, types.TrialStatusBanned, plan.Status)
	require.Nil(t, plan.TrialExpires)
}

func TestPlanAction_ResetTrialUsesConfiguredDuration(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	plan, err := PlanAction(ActionResetTrial, 0, now, 48*time.Hour)
	require.NoError(t, err)
	require.Equal(t, types.TrialStatusActive, plan.Status)
	require.Equal(t, now.Add(48*time.Hour), *plan.TrialExpires)
}

func TestPlanAction_Invalid(t *testing.T) {
	_, err := PlanAction(ActionExtendTrial, 0, time.Now(), 48*time.Hour)
	require.ErrorIs(t, err, ErrInvalidAction)

	_, err = PlanAction(ActionExtendTrial, -5, time.Now(), 48*time.Hour)
	require.ErrorIs(t, err, ErrInvalidAction)

	_, err = PlanAction(Action("nuke"), 0, time.Now(), 48*time.Hour)
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestPlanReRegistration_NeverTouchesTrialWindow(t *testing.T) {
	now := time.Now()
	email := "new@example.com"
	record := &models.DeviceTrial{
		Fingerprint:  "abc123xyz789",
		Status:       types.TrialStatusActive,
		TrialExpires: now.Add(3 * time.Hour),
	}

	updates := planReRegistration(record, &RegisterRequest{
		Fingerprint:  record.Fingerprint,
		Email:        &email,
		AuthProvider: types.AuthProviderGoogle,
	}, now)
	require.NotNil(t, updates)
	require.NotContains(t, updates, "trial_expires")
	require.NotContains(t, updates, "status")
	require.Equal(t, &email, updates["email"])
	require.Equal(t, types.AuthProviderGoogle, updates["auth_provider"])
}

func TestPlanReRegistration_NoChangeCases(t *testing.T) {
	now := time.Now()
	email := "user@example.com"
	record := &models.DeviceTrial{Fingerprint: "abc123xyz789", Email: &email}

	// no email supplied
	require.Nil(t, planReRegistration(record, &RegisterRequest{Fingerprint: record.Fingerprint}, now))
	// same email supplied again
	require.Nil(t, planReRegistration(record, &RegisterRequest{Fingerprint: record.Fingerprint, Email: &email}, now))
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{2, 50, 2, 50},
		{1, 200, 1, 200},
		// an oversized limit is capped, not collapsed to the default
		{1, 1000, 1, 200},
	}
	for _, tc := range cases {
		page, limit := clampPage(tc.page, tc.limit)
		require.Equal(t, tc.wantPage, page, "page for (%d,%d)", tc.page, tc.limit)
		require.Equal(t, tc.wantLimit, limit, "limit for (%d,%d)", tc.page, tc.limit)
	}
}
