package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func TestHealthServer_Health(t *testing.T) {
	tests := []struct {
		name          string
		pingErr       error
		llmConfigured bool
		wantStatus    int
		wantBody      HealthResponse
	}{
		{
			name:          "healthy",
			llmConfigured: true,
			wantStatus:    http.StatusOK,
			wantBody: HealthResponse{
				Status: "healthy",
				Checks: map[string]string{"redis": "healthy", "llm": "configured"},
			},
		},
		{
			name:       "healthy without llm",
			wantStatus: http.StatusOK,
			wantBody: HealthResponse{
				Status: "healthy",
				Checks: map[string]string{"redis": "healthy", "llm": "not configured"},
			},
		},
		{
			name:          "redis down",
			pingErr:       errors.New("connection refused"),
			llmConfigured: true,
			wantStatus:    http.StatusServiceUnavailable,
			wantBody: HealthResponse{
				Status: "unhealthy",
				Checks: map[string]string{"redis": "unhealthy: connection refused", "llm": "configured"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthServer(0, fakePinger{err: tt.pingErr}, nil, tt.llmConfigured, zaptest.NewLogger(t))

			rec := httptest.NewRecorder()
			hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestHealthServer_Ready(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		ready      bool
		wantStatus int
		wantState  string
	}{
		{name: "ready", ready: true, wantStatus: http.StatusOK, wantState: "ready"},
		{name: "worker not started", ready: false, wantStatus: http.StatusServiceUnavailable, wantState: "not ready"},
		{name: "redis down", ready: true, pingErr: errors.New("timeout"), wantStatus: http.StatusServiceUnavailable, wantState: "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ready := tt.ready
			hs := NewHealthServer(0, fakePinger{err: tt.pingErr}, func() bool { return ready }, true, zaptest.NewLogger(t))

			rec := httptest.NewRecorder()
			hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
		})
	}
}

func TestHealthServer_StopWithoutStart(t *testing.T) {
	hs := NewHealthServer(0, fakePinger{}, nil, false, zaptest.NewLogger(t))

	assert.NoError(t, hs.Stop())
}
