package viewer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAdminConfig(t *testing.T) {
	s, loop, _ := newTestServer(t, Options{})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/config", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tickIntervalMs":350}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/config", strings.NewReader(`{"tickIntervalMs":500}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500*time.Millisecond, loop.TickInterval())

	tests := []struct {
		name   string
		method string
		body   string
		code   int
	}{
		{name: "bad json", method: http.MethodPost, body: `{`, code: http.StatusBadRequest},
		{name: "too fast", method: http.MethodPost, body: `{"tickIntervalMs":1}`, code: http.StatusBadRequest},
		{name: "too slow", method: http.MethodPost, body: `{"tickIntervalMs":60001}`, code: http.StatusBadRequest},
		{name: "duration overflow", method: http.MethodPost, body: `{"tickIntervalMs":9223372036854775807}`, code: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodDelete, code: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/admin/config", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
	assert.Equal(t, 500*time.Millisecond, loop.TickInterval())
}

func TestHandleMetrics(t *testing.T) {
	s, loop, _ := newTestServer(t, Options{})
	loop.Metrics().IncTick()
	loop.Metrics().TimerInstalled()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TickIntervalMs int64          `json:"tick_interval_ms"`
		Loop           map[string]any `json:"loop"`
		Viewer         map[string]any `json:"viewer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 350, body.TickIntervalMs)
	assert.EqualValues(t, 1, body.Loop["tick_count"])
	assert.EqualValues(t, 1, body.Loop["timers_active"])
	assert.Contains(t, body.Viewer, "connections")
}

func TestServesPage(t *testing.T) {
	s, _, _ := newTestServer(t, Options{})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, id := range []string{"snake-board", "start-game", "success-banner", "final-banner", "dark-theme"} {
		assert.Contains(t, rec.Body.String(), id)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
