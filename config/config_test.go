package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PROXY_SECRET", "GOOGLE_API_KEY", "GEMINI_TEXT_MODEL", "GEMINI_IMAGE_MODEL",
		"IMAGEN_MODEL", "HF_API_TOKEN", "HF_MODEL", "POLLINATIONS_API_KEY",
		"IMAGE_BACKEND", "SAVE_LOCAL_COPY", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.ProxySecret)
	assert.Equal(t, "gemini-flash-latest", cfg.GeminiTextModel)
	assert.Equal(t, "stabilityai/stable-diffusion-xl-base-1.0", cfg.HFModel)
	assert.Equal(t, BackendPollinations, cfg.ImageBackend)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.SaveLocalCopy)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROXY_SECRET", "hunter2")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("IMAGE_BACKEND", BackendGemini)
	t.Setenv("SAVE_LOCAL_COPY", "true")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.ProxySecret)
	assert.Equal(t, "g-key", cfg.GoogleAPIKey)
	assert.Equal(t, BackendGemini, cfg.ImageBackend)
	assert.True(t, cfg.SaveLocalCopy)
	assert.Equal(t, "9000", cfg.Port)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMAGE_BACKEND", "dall-e")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dall-e")
}

func TestLoadRejectsBadBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAVE_LOCAL_COPY", "maybe")

	_, err := Load()
	assert.Error(t, err)
}
