package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/macroflow/trialgate/internal/app/service/emailgate"
	"github.com/macroflow/trialgate/internal/app/service/trial"
	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/types"
)

type stubTrialMgr struct {
	record   *models.DeviceTrial
	validity *trial.Validity
	scan     *trial.ScanDevicesResponse
	action   *trial.ActionResult

	registerErr error
	actionErr   error

	lastAction *trial.ActionRequest
}

func (s *stubTrialMgr) Register(_ context.Context, _ *trial.RegisterRequest) (*models.DeviceTrial, error) {
	return s.record, s.registerErr
}

func (s *stubTrialMgr) CheckValidity(_ context.Context, _ string, _ time.Time) (*trial.Validity, error) {
	return s.validity, nil
}

func (s *stubTrialMgr) ApplyAction(_ context.Context, req *trial.ActionRequest) (*trial.ActionResult, error) {
	s.lastAction = req
	return s.action, s.actionErr
}

func (s *stubTrialMgr) ScanDevices(_ context.Context, _ *trial.ScanDevicesRequest) (*trial.ScanDevicesResponse, error) {
	return s.scan, nil
}

type stubRecorder struct {
	events []types.EventType
}

func (s *stubRecorder) AppendAsync(_ context.Context, _ string, eventType types.EventType, _ map[string]interface{}) {
	s.events = append(s.events, eventType)
}

type stubAbuse struct{ ips []string }

func (s *stubAbuse) CheckSuspiciousIP(_ context.Context, ip string) { s.ips = append(s.ips, ip) }

func testGate() *emailgate.Gate {
	return emailgate.NewWithLists(nil, nil, []string{"tempmail.com"})
}

func postJSON(r *gin.Engine, path string, body map[string]any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiDeviceRegister_RejectsShortFingerprint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/device/register", ApiDeviceRegister(&stubTrialMgr{}, testGate(), &stubAbuse{}, zap.NewNop().Sugar()))

	w := postJSON(r, "/device/register", map[string]any{"device_fingerprint": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestApiDeviceRegister_RejectsBlockedEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/device/register", ApiDeviceRegister(&stubTrialMgr{}, testGate(), &stubAbuse{}, zap.NewNop().Sugar()))

	w := postJSON(r, "/device/register", map[string]any{
		"device_fingerprint": "abc123xyz789",
		"user_email":         "x@tempmail.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiDeviceRegister_ReturnsTrialWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	expires := time.Now().Add(48 * time.Hour)
	mgr := &stubTrialMgr{record: &models.DeviceTrial{
		Fingerprint:  "abc123xyz789",
		Status:       types.TrialStatusActive,
		TrialExpires: expires,
	}}
	ab := &stubAbuse{}
	r := gin.New()
	r.POST("/device/register", ApiDeviceRegister(mgr, testGate(), ab, zap.NewNop().Sugar()))

	w := postJSON(r, "/device/register", map[string]any{"device_fingerprint": "abc123xyz789"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp deviceRegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, types.TrialStatusActive, resp.Status)
	require.InDelta(t, 48.0, resp.TrialRemainingHours, 0.05)
	require.Len(t, ab.ips, 1)
}

func TestApiDevicePing_UnknownDeviceIs404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mgr := &stubTrialMgr{validity: &trial.Validity{Valid: false}}
	r := gin.New()
	r.POST("/device/ping", ApiDevicePing(mgr, &stubRecorder{}, zap.NewNop().Sugar()))

	w := postJSON(r, "/device/ping", map[string]any{"device_fingerprint": "abc123xyz789"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestApiDevicePing_ValidTrialReportsRemainingAndLogsPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	remaining := 12.5
	mgr := &stubTrialMgr{validity: &trial.Validity{
		Valid:          true,
		Record:         &models.DeviceTrial{Fingerprint: "abc123xyz789"},
		RemainingHours: &remaining,
	}}
	rec := &stubRecorder{}
	r := gin.New()
	r.POST("/device/ping", ApiDevicePing(mgr, rec, zap.NewNop().Sugar()))

	w := postJSON(r, "/device/ping", map[string]any{
		"device_fingerprint": "abc123xyz789",
		"metrics":            map[string]any{"launches": 3},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp devicePingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.TrialValid)
	require.InDelta(t, 12.5, resp.TrialRemainingHours, 0.001)
	require.NotNil(t, resp.Commands)
	require.Equal(t, []types.EventType{types.EventTypeServerPing}, rec.events)
}

func TestApiDevicePing_ClientEventTypeIsRecorded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	remaining := 1.0
	mgr := &stubTrialMgr{validity: &trial.Validity{
		Valid:          true,
		Record:         &models.DeviceTrial{Fingerprint: "abc123xyz789"},
		RemainingHours: &remaining,
	}}
	rec := &stubRecorder{}
	r := gin.New()
	r.POST("/device/ping", ApiDevicePing(mgr, rec, zap.NewNop().Sugar()))

	w := postJSON(r, "/device/ping", map[string]any{
		"device_fingerprint": "abc123xyz789",
		"event_type":         "launch",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// an unrecognized label falls back to server_ping
	w = postJSON(r, "/device/ping", map[string]any{
		"device_fingerprint": "abc123xyz789",
		"event_type":         "bogus",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []types.EventType{types.EventTypeLaunch, types.EventTypeServerPing}, rec.events)
}

func TestApiDevicePing_MissingFingerprintIs400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/device/ping", ApiDevicePing(&stubTrialMgr{}, &stubRecorder{}, zap.NewNop().Sugar()))

	w := postJSON(r, "/device/ping", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
