package appServer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ds124wfegd/image-analyser/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Server: config.ServerConfig{Port: "0", Timeout: time.Minute},
		App: config.AppConfig{
			MaxUploadSize:  1 << 20,
			AllowedFormats: []string{".jpg", ".jpeg", ".png"},
			TempDir:        t.TempDir(),
			PreviewSize:    100,
		},
		Inference: config.InferenceConfig{
			Provider: config.ProviderTogether,
			Model:    "meta-llama/Llama-3.2-11B-Vision-Instruct-Turbo",
			BaseURL:  "http://127.0.0.1:1",
			Prompt:   "describe",
		},
		Session: config.SessionConfig{Backend: config.SessionBackendMemory, UploadTTL: time.Minute},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "test"},
	}
}

func health(t *testing.T, h http.Handler) map[string]string {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewAppMemoryBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	a, err := newApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.cleanup)

	body := health(t, a.handler)
	assert.Equal(t, "together", body["provider"])
	assert.Equal(t, "memory", body["session_backend"])

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewAppRedisBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Session.Backend = config.SessionBackendRedis
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: port}

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "redis", health(t, a.handler)["session_backend"])
}

func TestNewAppFailsWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Backend = config.SessionBackendRedis
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 100 * time.Millisecond, MaxRetries: -1}

	_, err := newApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewAppMetricsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	cfg.Metrics.Enabled = false

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanupSettings(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, 5*time.Minute, cleanupInterval(cfg))
	assert.Equal(t, 2*time.Minute, staleFileAge(cfg))

	cfg.Session.CleanupInterval = time.Minute
	cfg.Server.Timeout = 0
	assert.Equal(t, time.Minute, cleanupInterval(cfg))
	assert.Equal(t, 10*time.Minute, staleFileAge(cfg))
}

func TestHTTPServerShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"

	srv := NewHTTPServer(cfg, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:0", srv.httpServer.Addr)
	assert.Equal(t, time.Minute, srv.httpServer.WriteTimeout)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
