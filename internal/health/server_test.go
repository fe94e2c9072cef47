package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeFeed struct {
	connected bool
}

func (f *fakeFeed) IsConnected() bool { return f.connected }

func TestHandleHealth(t *testing.T) {
	s := NewServer(Config{
		ServiceName: "trifecta-engine",
		Version:     "1.0.0",
		Predictor:   "model",
	})

	recorder := httptest.NewRecorder()
	s.handleHealth(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "trifecta-engine", response.Service)
	assert.Equal(t, "model", response.Predictor)
}

func TestHandleReadyNotReady(t *testing.T) {
	s := NewServer(Config{ServiceName: "trifecta-engine"})

	recorder := httptest.NewRecorder()
	s.handleReady(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var response ReadyResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "not_ready", response.Status)
	assert.Equal(t, "not_ready", response.Checks["service"])
}

func TestHandleReadyDatabaseFailure(t *testing.T) {
	s := NewServer(Config{
		ServiceName: "trifecta-engine",
		DB:          &fakePinger{err: errors.New("connection refused")},
	})
	s.SetReady(true)

	recorder := httptest.NewRecorder()
	s.handleReady(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var response ReadyResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Contains(t, response.Checks["database"], "connection refused")
}

func TestHandleReadyAllHealthy(t *testing.T) {
	s := NewServer(Config{
		ServiceName: "trifecta-engine",
		DB:          &fakePinger{},
		Feed:        &fakeFeed{connected: true},
	})
	s.SetReady(true)

	recorder := httptest.NewRecorder()
	s.handleReady(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response ReadyResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "ok", response.Checks["database"])
	assert.Equal(t, "ok", response.Checks["odds_feed"])
}

func TestHandleReadyDisconnectedFeedStillReady(t *testing.T) {
	s := NewServer(Config{
		ServiceName: "trifecta-engine",
		Feed:        &fakeFeed{connected: false},
	})
	s.SetReady(true)

	recorder := httptest.NewRecorder()
	s.handleReady(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response ReadyResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "disconnected", response.Checks["odds_feed"])
}
