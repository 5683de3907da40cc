package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/macroflow/trialgate/internal/app/service/trial"
	"github.com/macroflow/trialgate/pkg/logctx"
	"github.com/macroflow/trialgate/pkg/response"
	"github.com/macroflow/trialgate/pkg/types"
	"go.uber.org/zap"
)

// EventRecorder is the slice of the event log the handlers need.
type EventRecorder interface {
	AppendAsync(ctx context.Context, fingerprint string, eventType types.EventType, details map[string]interface{})
}

// AbuseChecker runs the per-IP anti-abuse heuristic.
type AbuseChecker interface {
	CheckSuspiciousIP(ctx context.Context, ip string)
}

// NewsletterService manages newsletter subscriptions.
type NewsletterService interface {
	Subscribe(ctx context.Context, email string) error
	Unsubscribe(ctx context.Context, email string) error
}

// bindRequest reads the request into out: query params for GET,
// JSON body otherwise. Endpoints accept both verbs for compatibility
// with the desktop client's older releases.
func bindRequest(c *gin.Context, out interface{}) error {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
		return c.ShouldBindQuery(out)
	}
	return c.ShouldBindJSON(out)
}

// failFromErr converts service errors into the HTTP taxonomy. Unknown
// errors become a generic 500; the cause is logged, never returned to
// the client.
func failFromErr(c *gin.Context, log *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, trial.ErrInvalidFingerprint), errors.Is(err, trial.ErrInvalidAction):
		response.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trial.ErrNotRegistered):
		response.Fail(c, http.StatusNotFound, err.Error())
	default:
		logctx.FromGin(c, log).Errorf("request failed: %v", err)
		response.FailInternal(c)
	}
}

// clientCountry extracts the country code set by the edge proxy, if any.
// Geolocation itself happens upstream.
func clientCountry(c *gin.Context) *string {
	for _, h := range []string{"CF-IPCountry", "X-Country"} {
		if v := c.GetHeader(h); v != "" {
			return &v
		}
	}
	return nil
}
