package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubNewsletter struct {
	subscribed   []string
	unsubscribed []string
}

func (s *stubNewsletter) Subscribe(_ context.Context, email string) error {
	s.subscribed = append(s.subscribed, email)
	return nil
}

func (s *stubNewsletter) Unsubscribe(_ context.Context, email string) error {
	s.unsubscribed = append(s.unsubscribed, email)
	return nil
}

func newsletterRouter(nl *stubNewsletter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterNewsletterRoutes(r, nl, testGate(), zap.NewNop().Sugar())
	return r
}

func TestApiNewsletterSubscribe_MissingEmailIs400(t *testing.T) {
	r := newsletterRouter(&stubNewsletter{})
	w := postJSON(r, "/newsletter/subscribe", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiNewsletterSubscribe_BlockedDomainIs400(t *testing.T) {
	nl := &stubNewsletter{}
	r := newsletterRouter(nl)
	w := postJSON(r, "/newsletter/subscribe", map[string]any{"email": "x@tempmail.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, nl.subscribed)
}

func TestApiNewsletterSubscribe_Subscribes(t *testing.T) {
	nl := &stubNewsletter{}
	r := newsletterRouter(nl)
	w := postJSON(r, "/newsletter/subscribe", map[string]any{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp newsletterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.True(t, resp.Subscribed)
	require.Equal(t, []string{"user@example.com"}, nl.subscribed)
}

func TestApiNewsletterSubscribe_DeleteUnsubscribes(t *testing.T) {
	nl := &stubNewsletter{}
	r := newsletterRouter(nl)

	req := httptest.NewRequest(http.MethodDelete, "/newsletter/subscribe?email="+strings.ReplaceAll("user@example.com", "@", "%40"), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp newsletterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Subscribed)
	require.Equal(t, []string{"user@example.com"}, nl.unsubscribed)
	require.Empty(t, nl.subscribed)
}
