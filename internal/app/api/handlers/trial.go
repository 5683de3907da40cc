package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/macroflow/trialgate/internal/app/service/emailgate"
	cfgpkg "github.com/macroflow/trialgate/pkg/config"
	"github.com/macroflow/trialgate/pkg/response"
	"github.com/macroflow/trialgate/pkg/tool"
	"github.com/macroflow/trialgate/pkg/types"
)

type trialDownloadRequest struct {
	Email     string `json:"email" form:"email"`
	UserAgent string `json:"user_agent" form:"user_agent"`
	Referrer  string `json:"referrer" form:"referrer"`
}

type trialDownloadResponse struct {
	response.Base
	DownloadURL string `json:"download_url"`
	TrialID     string `json:"trial_id"`
}

// @Summary      Request a trial download
// @Description  Returns the download URL and an anonymous trial id. The download is logged and the source IP is screened.
// @Tags         Trial
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.trialDownloadResponse
// @Failure      400  {object}  response.Base
// @Router       /trial/download [post]
func ApiTrialDownload(cfg *cfgpkg.Config, gate *emailgate.Gate, ev EventRecorder, ab AbuseChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trialDownloadRequest
		if err := bindRequest(c, &req); err != nil {
			response.Fail(c, http.StatusBadRequest, err.Error())
			return
		}

		if req.Email != "" {
			if res := gate.Classify(req.Email); !res.Allowed {
				response.Fail(c, http.StatusBadRequest, res.Reason)
				return
			}
		}

		trialID := tool.GenerateUUIDV7()
		details := map[string]interface{}{
			"trial_id":   trialID,
			"user_agent": req.UserAgent,
			"referrer":   req.Referrer,
			"ip":         c.ClientIP(),
		}
		if req.Email != "" {
			details["email"] = req.Email
		}
		// anonymous events carry a pseudo-fingerprint derived from the trial id
		ev.AppendAsync(c.Request.Context(), "anon-"+trialID, types.EventTypeAnonymousDownload, details)
		ab.CheckSuspiciousIP(c.Request.Context(), c.ClientIP())

		c.JSON(http.StatusOK, trialDownloadResponse{
			Base:        response.OK(),
			DownloadURL: cfg.Trial.DownloadURL,
			TrialID:     trialID,
		})
	}
}

type trialFileRequest struct {
	TrialID    string `json:"trial_id" form:"trial_id"`
	DeviceInfo string `json:"device_info" form:"device_info"`
}

type trialFileResponse struct {
	response.Base
	DownloadURL string `json:"download_url"`
}

// @Summary      Fetch the trial installer
// @Description  GET redirects to the installer; POST returns the URL as JSON.
// @Tags         Trial
// @Produce      json
// @Success      200  {object}  handlers.trialFileResponse
// @Router       /trial/file [post]
func ApiTrialFile(cfg *cfgpkg.Config, ev EventRecorder, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trialFileRequest
		if err := bindRequest(c, &req); err != nil {
			response.Fail(c, http.StatusBadRequest, err.Error())
			return
		}

		fp := req.TrialID
		if fp == "" {
			fp = "anon-" + tool.GenerateUUIDV7()
		}
		ev.AppendAsync(c.Request.Context(), fp, types.EventTypeAnonymousDownload, map[string]interface{}{
			"source":      "file",
			"device_info": req.DeviceInfo,
			"ip":          c.ClientIP(),
		})

		if c.Request.Method == http.MethodGet {
			c.Redirect(http.StatusFound, cfg.Trial.DownloadURL)
			return
		}
		c.JSON(http.StatusOK, trialFileResponse{Base: response.OK(), DownloadURL: cfg.Trial.DownloadURL})
	}
}

func RegisterTrialRoutes(r gin.IRouter, cfg *cfgpkg.Config, gate *emailgate.Gate, ev EventRecorder, ab AbuseChecker, log *zap.SugaredLogger) {
	download := ApiTrialDownload(cfg, gate, ev, ab)
	file := ApiTrialFile(cfg, ev, log)
	r.GET("/trial/download", download)
	r.POST("/trial/download", download)
	r.GET("/trial/file", file)
	r.POST("/trial/file", file)
}
