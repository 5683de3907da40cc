package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/macroflow/trialgate/internal/app/service/emailgate"
	"github.com/macroflow/trialgate/internal/app/service/trial"
	"github.com/macroflow/trialgate/pkg/response"
	"github.com/macroflow/trialgate/pkg/types"
)

type deviceRegisterRequest struct {
	Fingerprint  string `json:"device_fingerprint" form:"device_fingerprint"`
	UserEmail    string `json:"user_email" form:"user_email"`
	AuthProvider string `json:"auth_provider" form:"auth_provider"`
}

type deviceRegisterResponse struct {
	response.Base
	TrialExpires        time.Time         `json:"trial_expires"`
	TrialRemainingHours float64           `json:"trial_remaining_hours"`
	Status              types.TrialStatus `json:"status"`
}

// @Summary      Register a device trial
// @Description  Creates the 48h trial for a new fingerprint. Re-registration is idempotent and never extends the window.
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        request body handlers.deviceRegisterRequest true "Device registration"
// @Success      200  {object}  handlers.deviceRegisterResponse
// @Failure      400  {object}  response.Base
// @Router       /device/register [post]
func ApiDeviceRegister(mgr trial.Manager, gate *emailgate.Gate, ab AbuseChecker, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deviceRegisterRequest
		if err := bindRequest(c, &req); err != nil {
			response.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Fingerprint) < trial.MinFingerprintLen {
			response.Fail(c, http.StatusBadRequest, "invalid device fingerprint")
			return
		}

		var email *string
		if req.UserEmail != "" {
			if res := gate.Classify(req.UserEmail); !res.Allowed {
				response.Fail(c, http.StatusBadRequest, res.Reason)
				return
			}
			email = &req.UserEmail
		}

		ip := c.ClientIP()
		record, err := mgr.Register(c.Request.Context(), &trial.RegisterRequest{
			Fingerprint:  req.Fingerprint,
			Email:        email,
			AuthProvider: types.ParseAuthProvider(req.AuthProvider),
			IP:           &ip,
			Country:      clientCountry(c),
		})
		if err != nil {
			failFromErr(c, log, err)
			return
		}

		ab.CheckSuspiciousIP(c.Request.Context(), ip)

		c.JSON(http.StatusOK, deviceRegisterResponse{
			Base:                response.OK(),
			TrialExpires:        record.TrialExpires,
			TrialRemainingHours: record.RemainingHours(time.Now()),
			Status:              record.Status,
		})
	}
}

type devicePingRequest struct {
	Fingerprint string `json:"device_fingerprint" form:"device_fingerprint"`
	// EventType lets the client label the heartbeat (launch,
	// offline_check); unlabeled pings are recorded as server_ping.
	EventType string                 `json:"event_type" form:"event_type"`
	Metrics   map[string]interface{} `json:"metrics" form:"-"`
}

type devicePingResponse struct {
	response.Base
	TrialValid          bool                   `json:"trial_valid"`
	TrialRemainingHours float64                `json:"trial_remaining_hours"`
	Commands            map[string]interface{} `json:"commands"`
}

// @Summary      Device heartbeat
// @Description  Reports usage and returns current trial validity. Expiry is applied lazily on this check.
// @Tags         Device
// @Accept       json
// @Produce      json
// @Param        request body handlers.devicePingRequest true "Heartbeat"
// @Success      200  {object}  handlers.devicePingResponse
// @Failure      404  {object}  response.Base
// @Router       /device/ping [post]
func ApiDevicePing(mgr trial.Manager, ev EventRecorder, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req devicePingRequest
		if err := bindRequest(c, &req); err != nil {
			response.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.Fingerprint == "" {
			response.Fail(c, http.StatusBadRequest, "missing device_fingerprint")
			return
		}

		v, err := mgr.CheckValidity(c.Request.Context(), req.Fingerprint, time.Now())
		if err != nil {
			failFromErr(c, log, err)
			return
		}
		if v.Record == nil {
			response.Fail(c, http.StatusNotFound, "device not registered")
			return
		}

		details := map[string]interface{}{"ip": c.ClientIP()}
		for k, val := range req.Metrics {
			details[k] = val
		}
		ev.AppendAsync(c.Request.Context(), req.Fingerprint, types.ParseClientEventType(req.EventType), details)

		remaining := 0.0
		if v.RemainingHours != nil {
			remaining = *v.RemainingHours
		}
		c.JSON(http.StatusOK, devicePingResponse{
			Base:                response.OK(),
			TrialValid:          v.Valid,
			TrialRemainingHours: remaining,
			// no remote-command queue yet; the key is fixed so older
			// clients can parse the shape
			Commands: map[string]interface{}{},
		})
	}
}

func RegisterDeviceRoutes(r gin.IRouter, mgr trial.Manager, gate *emailgate.Gate, ev EventRecorder, ab AbuseChecker, log *zap.SugaredLogger) {
	register := ApiDeviceRegister(mgr, gate, ab, log)
	ping := ApiDevicePing(mgr, ev, log)
	r.GET("/device/register", register)
	r.POST("/device/register", register)
	r.GET("/device/ping", ping)
	r.POST("/device/ping", ping)
}
