package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimit = 1000
	cfg.RateLimitBurst = 1000
	return NewServer(cfg)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()

	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestReadyEndpointTogglesWithRunState(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	handler := s.withMiddleware(s.handleStatus)

	// No report published yet.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.SetStatus(map[string]any{"pipeline": "cronjob/echo-job", "success": true})

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "cronjob/echo-job", got["pipeline"])
}

func TestStatusRejectsNonGet(t *testing.T) {
	s := newTestServer(t)
	handler := s.withMiddleware(s.handleStatus)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)
	handler := s.withMiddleware(s.handleStatus)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"), "request id is generated when absent")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Request-Id", "b9c7a2a0-98a3-4f2b-b06d-1b1b0d7a4a11")
	handler(rec, req)
	assert.Equal(t, "b9c7a2a0-98a3-4f2b-b06d-1b1b0d7a4a11", rec.Header().Get("X-Request-Id"))
}

func TestRateLimitRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 1
	cfg.RateLimitBurst = 1
	s := NewServer(cfg)
	handler := s.withMiddleware(s.handleStatus)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NotEqual(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestDefaultRouteListsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleDefault(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Name   string   `json:"name"`
		Routes []string `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "runbook", resp.Name)
	assert.Contains(t, resp.Routes, "GET /status")
}
