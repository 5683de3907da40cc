package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/macroflow/trialgate/internal/app/service/statistics"
	"github.com/macroflow/trialgate/internal/app/service/trial"
	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/types"
)

type stubStats struct {
	stats     *statistics.DashboardStats
	refresh   *statistics.RefreshResult
	refreshed int
}

func (s *stubStats) GetDashboardStats(_ context.Context) (*statistics.DashboardStats, error) {
	return s.stats, nil
}

func (s *stubStats) Refresh(_ context.Context) (*statistics.RefreshResult, error) {
	s.refreshed++
	return s.refresh, nil
}

func TestApiAdminStats_GetDoesNotRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := &stubStats{stats: &statistics.DashboardStats{NewsletterCount: 7}}
	r := gin.New()
	r.GET("/admin/stats", ApiAdminStats(st, zap.NewNop().Sugar()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, st.refreshed)

	var resp adminStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, int64(7), resp.Stats.NewsletterCount)
	require.Nil(t, resp.Refresh)
}

func TestApiAdminStats_PostRefreshRunsMaintenance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := &stubStats{
		stats:   &statistics.DashboardStats{},
		refresh: &statistics.RefreshResult{ExpiredTrials: 2, PurgedEvents: 40},
	}
	r := gin.New()
	r.POST("/admin/stats", ApiAdminStats(st, zap.NewNop().Sugar()))

	w := postJSON(r, "/admin/stats", map[string]any{"action": "refresh"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, st.refreshed)

	var resp adminStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Refresh)
	require.Equal(t, int64(2), resp.Refresh.ExpiredTrials)
	require.Equal(t, int64(40), resp.Refresh.PurgedEvents)
}

func TestApiAdminListDevices_PassesFiltersAndMapsItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mgr := &stubTrialMgr{scan: &trial.ScanDevicesResponse{
		Items: []*models.DeviceTrial{{
			Fingerprint:  "abc123xyz789",
			Status:       types.TrialStatusBanned,
			TrialExpires: time.Now().Add(-time.Hour),
		}},
		Total: 1,
		Page:  2,
		Limit: 5,
	}}
	r := gin.New()
	r.GET("/admin/devices", ApiAdminListDevices(mgr, zap.NewNop().Sugar()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/devices?page=2&limit=5&status=banned", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp adminDeviceListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, types.TrialStatusBanned, resp.Items[0].Status)
	require.Equal(t, 0.0, resp.Items[0].TrialRemainingHours)
	require.Equal(t, int64(1), resp.Total)
	require.Equal(t, 2, resp.Page)
	require.Equal(t, 5, resp.Limit)
}

func TestApiAdminDeviceAction_DispatchesToManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mgr := &stubTrialMgr{action: &trial.ActionResult{
		Message: "trial extended",
		Record: &models.DeviceTrial{
			Fingerprint:  "abc123xyz789",
			Status:       types.TrialStatusActive,
			TrialExpires: time.Now().Add(72 * time.Hour),
		},
	}}
	r := gin.New()
	r.POST("/admin/devices", ApiAdminDeviceAction(mgr, zap.NewNop().Sugar()))

	w := postJSON(r, "/admin/devices", map[string]any{
		"action":             "extend_trial",
		"device_fingerprint": "abc123xyz789",
		"data":               map[string]any{"hours": 72},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mgr.lastAction)
	require.Equal(t, trial.ActionExtendTrial, mgr.lastAction.Action)
	require.Equal(t, 72, mgr.lastAction.Hours)

	var resp adminDeviceActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "trial extended", resp.Message)
	require.InDelta(t, 72.0, resp.Device.TrialRemainingHours, 0.05)
}

func TestApiAdminDeviceAction_UnknownDeviceIs404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mgr := &stubTrialMgr{actionErr: trial.ErrNotRegistered}
	r := gin.New()
	r.POST("/admin/devices", ApiAdminDeviceAction(mgr, zap.NewNop().Sugar()))

	w := postJSON(r, "/admin/devices", map[string]any{
		"action":             "ban",
		"device_fingerprint": "abc123xyz789",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestApiAdminDeviceAction_MissingFieldsIs400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin/devices", ApiAdminDeviceAction(&stubTrialMgr{}, zap.NewNop().Sugar()))

	w := postJSON(r, "/admin/devices", map[string]any{"action": "ban"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
