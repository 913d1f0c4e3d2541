package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	enabled bool
	err     error
}

func (s stubPinger) Enabled() bool              { return s.enabled }
func (s stubPinger) Ping(context.Context) error { return s.err }

func getReady(t *testing.T, deps map[string]Pinger) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	h := NewHealthHandler("curtain-order-service", "test", deps)
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		deps     map[string]Pinger
		status   int
		statuses map[string]any
	}{
		{
			name:     "all healthy",
			deps:     map[string]Pinger{"postgres": stubPinger{enabled: true}, "redis": stubPinger{enabled: true}},
			status:   fiber.StatusOK,
			statuses: map[string]any{"postgres": "ok", "redis": "ok"},
		},
		{
			name:     "disabled redis does not fail",
			deps:     map[string]Pinger{"postgres": stubPinger{enabled: true}, "redis": stubPinger{err: errors.New("unused")}},
			status:   fiber.StatusOK,
			statuses: map[string]any{"postgres": "ok", "redis": "disabled"},
		},
		{
			name:     "nil dependency is disabled",
			deps:     map[string]Pinger{"postgres": stubPinger{enabled: true}, "redis": nil},
			status:   fiber.StatusOK,
			statuses: map[string]any{"postgres": "ok", "redis": "disabled"},
		},
		{
			name:     "failing postgres",
			deps:     map[string]Pinger{"postgres": stubPinger{enabled: true, err: errors.New("dial tcp: refused")}, "redis": stubPinger{enabled: true}},
			status:   fiber.StatusServiceUnavailable,
			statuses: map[string]any{"postgres": "dial tcp: refused", "redis": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := getReady(t, tt.deps)
			assert.Equal(t, tt.status, status)
			if tt.status == fiber.StatusOK {
				assert.Equal(t, "ready", body["status"])
				assert.Equal(t, tt.statuses, body["dependencies"])
				return
			}
			envelope, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "DEPENDENCY_UNAVAILABLE", envelope["code"])
			assert.Equal(t, tt.statuses, envelope["details"])
		})
	}
}

func TestLive(t *testing.T) {
	app := fiber.New()
	app.Get("/health/live", NewHealthHandler("curtain-order-service", "test", nil).Live)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
