package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

func TestDefaults(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "")

	cfg, err := ParseConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.Timeout)
	assert.Equal(t, ProviderTogether, cfg.Inference.Provider)
	assert.Equal(t, "meta-llama/Llama-3.2-11B-Vision-Instruct-Turbo", cfg.Inference.Model)
	assert.Equal(t, "https://api.together.xyz/v1", cfg.Inference.BaseURL)
	assert.Equal(t, "You will be given an image, tell me the details about that image", cfg.Inference.Prompt)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png"}, cfg.App.AllowedFormats)
	assert.Equal(t, int64(10<<20), cfg.App.MaxUploadSize)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Session.UploadTTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.CleanupInterval)
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Inference.APIKey())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("TOGETHER_API_KEY", "secret-key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_BACKEND", "redis")

	cfg, err := ParseConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.Inference.TogetherAPIKey)
	assert.Equal(t, "secret-key", cfg.Inference.APIKey())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, ":9090", cfg.GetServerAddress())
}

func TestGeminiKeySelected(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("TOGETHER_API_KEY", "together-key")

	v := newTestViper()
	v.Set("inference.provider", ProviderGemini)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.Inference.APIKey())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{name: "unknown provider", key: "inference.provider", value: "openai"},
		{name: "unknown session backend", key: "session.backend", value: "postgres"},
		{name: "empty model", key: "inference.model", value: ""},
		{name: "zero upload size", key: "app.max_upload_size", value: 0},
		{name: "no formats", key: "app.allowed_formats", value: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViper()
			v.Set(tt.key, tt.value)

			_, err := ParseConfig(v)
			assert.Error(t, err)
		})
	}
}
