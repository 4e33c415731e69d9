package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend names accepted in IMAGE_BACKEND. Exactly one image backend is
// active per deployment; switching backends is a configuration change, not a
// runtime decision.
const (
	BackendGemini       = "gemini"
	BackendImagen       = "imagen"
	BackendHuggingFace  = "huggingface"
	BackendPollinations = "pollinations"
)

// Config holds the entire process configuration. It is loaded once at
// startup and never mutated afterwards.
type Config struct {
	// ProxySecret is the shared secret callers must present. Empty means
	// open mode: every caller is authorized.
	ProxySecret string

	GoogleAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string
	ImagenModel      string

	HFAPIToken string
	HFModel    string

	PollinationsAPIKey string

	// ImageBackend selects which backend family serves image mode.
	ImageBackend string

	// SaveLocalCopy writes generated images under images/ for debugging.
	SaveLocalCopy bool

	Port string
}

// Load reads the configuration from a .env file (if present) and the
// environment. Unknown backend selections are rejected at startup rather
// than surfacing as per-request failures later.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		ProxySecret:        os.Getenv("PROXY_SECRET"),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GeminiTextModel:    getenvDefault("GEMINI_TEXT_MODEL", "gemini-flash-latest"),
		GeminiImageModel:   getenvDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		ImagenModel:        getenvDefault("IMAGEN_MODEL", "imagen-3.0-generate-002"),
		HFAPIToken:         os.Getenv("HF_API_TOKEN"),
		HFModel:            getenvDefault("HF_MODEL", "stabilityai/stable-diffusion-xl-base-1.0"),
		PollinationsAPIKey: os.Getenv("POLLINATIONS_API_KEY"),
		ImageBackend:       getenvDefault("IMAGE_BACKEND", BackendPollinations),
		Port:               getenvDefault("PORT", "8080"),
	}

	if val := os.Getenv("SAVE_LOCAL_COPY"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("invalid SAVE_LOCAL_COPY value %q: %w", val, err)
		}
		cfg.SaveLocalCopy = b
	}

	switch cfg.ImageBackend {
	case BackendGemini, BackendImagen, BackendHuggingFace, BackendPollinations:
	default:
		return nil, fmt.Errorf("unknown IMAGE_BACKEND %q, expected one of: %s, %s, %s, %s",
			cfg.ImageBackend, BackendGemini, BackendImagen, BackendHuggingFace, BackendPollinations)
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
