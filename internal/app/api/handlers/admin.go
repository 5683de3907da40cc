package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/macroflow/trialgate/internal/app/service/statistics"
	"github.com/macroflow/trialgate/internal/app/service/trial"
	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/response"
	"github.com/macroflow/trialgate/pkg/types"
)

type adminStatsResponse struct {
	response.Base
	Stats   *statistics.DashboardStats `json:"stats"`
	Refresh *statistics.RefreshResult  `json:"refresh,omitempty"`
}

type adminStatsRequest struct {
	Action string `json:"action" form:"action"`
}

// @Summary      Admin dashboard statistics
// @Description  Returns aggregated counts. POST with action=refresh additionally runs maintenance (lazy expiry sweep, event retention, alert aging).
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.adminStatsResponse
// @Failure      401  {object}  response.Base
// @Router       /admin/stats [get]
func ApiAdminStats(stats statistics.Provider, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adminStatsRequest
		_ = bindRequest(c, &req)

		var refresh *statistics.RefreshResult
		if c.Request.Method == http.MethodPost && req.Action == "refresh" {
			res, err := stats.Refresh(c.Request.Context())
			if err != nil {
				failFromErr(c, log, err)
				return
			}
			refresh = res
		}

		s, err := stats.GetDashboardStats(c.Request.Context())
		if err != nil {
			failFromErr(c, log, err)
			return
		}
		c.JSON(http.StatusOK, adminStatsResponse{Base: response.OK(), Stats: s, Refresh: refresh})
	}
}

// DeviceItem is the admin view of a trial record.
type DeviceItem struct {
	Fingerprint         string             `json:"fingerprint"`
	Email               *string            `json:"email"`
	AuthProvider        types.AuthProvider `json:"auth_provider"`
	Status              types.TrialStatus  `json:"status"`
	TrialExpires        time.Time          `json:"trial_expires"`
	TrialRemainingHours float64            `json:"trial_remaining_hours"`
	DownloadIP          *string            `json:"download_ip"`
	Country             *string            `json:"country"`
	CreatedAt           time.Time          `json:"created_at"`
}

func toDeviceItem(m *models.DeviceTrial) *DeviceItem {
	return &DeviceItem{
		Fingerprint:         m.Fingerprint,
		Email:               m.Email,
		AuthProvider:        m.AuthProvider,
		Status:              m.Status,
		TrialExpires:        m.TrialExpires,
		TrialRemainingHours: m.RemainingHours(time.Now()),
		DownloadIP:          m.DownloadIP,
		Country:             m.Country,
		CreatedAt:           m.CreatedAt,
	}
}

type adminDeviceListResponse struct {
	response.Base
	Items []*DeviceItem `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// @Summary      List device trials (Admin)
// @Description  Paginated device listing with status and search filters.
// @Tags         Admin
// @Produce      json
// @Param        page    query  int     false  "Page (1-based)"
// @Param        limit   query  int     false  "Page size"
// @Param        status  query  string  false  "Filter by trial status"
// @Param        search  query  string  false  "Substring match on fingerprint or email"
// @Success      200  {object}  handlers.adminDeviceListResponse
// @Failure      401  {object}  response.Base
// @Router       /admin/devices [get]
func ApiAdminListDevices(mgr trial.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		res, err := mgr.ScanDevices(c.Request.Context(), &trial.ScanDevicesRequest{
			Page:   page,
			Limit:  limit,
			Status: types.TrialStatus(c.Query("status")),
			Search: c.Query("search"),
		})
		if err != nil {
			failFromErr(c, log, err)
			return
		}

		items := lo.Map(res.Items, func(m *models.DeviceTrial, _ int) *DeviceItem { return toDeviceItem(m) })
		c.JSON(http.StatusOK, adminDeviceListResponse{
			Base:  response.OK(),
			Items: items,
			Total: res.Total,
			Page:  res.Page,
			Limit: res.Limit,
		})
	}
}

type adminDeviceActionRequest struct {
	Action      string `json:"action"`
	Fingerprint string `json:"device_fingerprint"`
	Data        struct {
		Hours int `json:"hours"`
	} `json:"data"`
}

type adminDeviceActionResponse struct {
	response.Base
	Message string      `json:"message"`
	Device  *DeviceItem `json:"device"`
}

// @Summary      Apply a device action (Admin)
// @Description  ban, unban, extend_trial or reset_trial on a device. Every action is audited.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.adminDeviceActionRequest true "Action"
// @Success      200  {object}  handlers.adminDeviceActionResponse
// @Failure      404  {object}  response.Base
// @Router       /admin/devices [post]
func ApiAdminDeviceAction(mgr trial.Manager, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adminDeviceActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.Action == "" || req.Fingerprint == "" {
			response.Fail(c, http.StatusBadRequest, "missing action or device_fingerprint")
			return
		}

		res, err := mgr.ApplyAction(c.Request.Context(), &trial.ActionRequest{
			Fingerprint: req.Fingerprint,
			Action:      trial.Action(req.Action),
			Hours:       req.Data.Hours,
		})
		if err != nil {
			failFromErr(c, log, err)
			return
		}
		c.JSON(http.StatusOK, adminDeviceActionResponse{
			Base:    response.OK(),
			Message: res.Message,
			Device:  toDeviceItem(res.Record),
		})
	}
}

func RegisterAdminRoutes(r gin.IRouter, mgr trial.Manager, stats statistics.Provider, log *zap.SugaredLogger) {
	statsHandler := ApiAdminStats(stats, log)
	r.GET("/stats", statsHandler)
	r.POST("/stats", statsHandler)
	r.GET("/devices", ApiAdminListDevices(mgr, log))
	r.POST("/devices", ApiAdminDeviceAction(mgr, log))
}
