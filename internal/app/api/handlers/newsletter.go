package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/macroflow/trialgate/internal/app/service/emailgate"
	"github.com/macroflow/trialgate/pkg/response"
)

type newsletterRequest struct {
	Email string `json:"email" form:"email"`
}

type newsletterResponse struct {
	response.Base
	Subscribed bool `json:"subscribed"`
}

// @Summary      Subscribe to the newsletter
// @Description  Upserts the subscriber; DELETE unsubscribes.
// @Tags         Newsletter
// @Accept       json
// @Produce      json
// @Param        request body handlers.newsletterRequest true "Email"
// @Success      200  {object}  handlers.newsletterResponse
// @Failure      400  {object}  response.Base
// @Router       /newsletter/subscribe [post]
func ApiNewsletterSubscribe(nl NewsletterService, gate *emailgate.Gate, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req newsletterRequest
		if err := bindRequest(c, &req); err != nil {
			response.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.Email == "" {
			response.Fail(c, http.StatusBadRequest, "missing email")
			return
		}
		if res := gate.Classify(req.Email); !res.Allowed {
			response.Fail(c, http.StatusBadRequest, res.Reason)
			return
		}

		if c.Request.Method == http.MethodDelete {
			if err := nl.Unsubscribe(c.Request.Context(), req.Email); err != nil {
				failFromErr(c, log, err)
				return
			}
			c.JSON(http.StatusOK, newsletterResponse{Base: response.OK(), Subscribed: false})
			return
		}

		if err := nl.Subscribe(c.Request.Context(), req.Email); err != nil {
			failFromErr(c, log, err)
			return
		}
		c.JSON(http.StatusOK, newsletterResponse{Base: response.OK(), Subscribed: true})
	}
}

func RegisterNewsletterRoutes(r gin.IRouter, nl NewsletterService, gate *emailgate.Gate, log *zap.SugaredLogger) {
	subscribe := ApiNewsletterSubscribe(nl, gate, log)
	r.GET("/newsletter/subscribe", subscribe)
	r.POST("/newsletter/subscribe", subscribe)
	r.DELETE("/newsletter/subscribe", subscribe)
}
