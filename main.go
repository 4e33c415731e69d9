package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"genproxy/config"
	"genproxy/dispatch"
	"genproxy/middleware"
	"genproxy/providers"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		logger.Fatal("failed to configure backends", zap.Error(err))
	}
	for mode, p := range registry {
		logger.Info("registered backend",
			zap.String("mode", string(mode)),
			zap.String("provider", p.Name()))
	}

	dispatcher := dispatch.New(cfg, logger, registry)

	mux := http.NewServeMux()
	mux.Handle("/api/generate", middleware.RequestLogger(logger, dispatcher))
	mux.HandleFunc("/api/models", modelsHandler(registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := ":" + cfg.Port
	logger.Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildRegistry wires exactly one provider per mode from the configuration.
// Text mode is only registered when a Google key is present; a deployment
// without one simply answers "no backend configured" for text requests.
// Image mode is mandatory, so a selected backend missing its credential is a
// startup error.
func buildRegistry(cfg *config.Config, logger *zap.Logger) (map[providers.Mode]providers.Provider, error) {
	registry := make(map[providers.Mode]providers.Provider)

	if cfg.GoogleAPIKey != "" {
		registry[providers.ModeText] = providers.NewGeminiTextProvider(
			cfg.GoogleAPIKey, cfg.GeminiTextModel, logger)
	}

	switch cfg.ImageBackend {
	case config.BackendGemini:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("IMAGE_BACKEND=%s requires GOOGLE_API_KEY", cfg.ImageBackend)
		}
		registry[providers.ModeImage] = providers.NewGeminiImageProvider(
			cfg.GoogleAPIKey, cfg.GeminiImageModel, logger)
	case config.BackendImagen:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("IMAGE_BACKEND=%s requires GOOGLE_API_KEY", cfg.ImageBackend)
		}
		registry[providers.ModeImage] = providers.NewImagenProvider(
			cfg.GoogleAPIKey, cfg.ImagenModel, logger)
	case config.BackendHuggingFace:
		if cfg.HFAPIToken == "" {
			return nil, fmt.Errorf("IMAGE_BACKEND=%s requires HF_API_TOKEN", cfg.ImageBackend)
		}
		registry[providers.ModeImage] = providers.NewHuggingFaceProvider(
			cfg.HFAPIToken, cfg.HFModel, logger)
	case config.BackendPollinations:
		registry[providers.ModeImage] = providers.NewPollinationsProvider(
			cfg.PollinationsAPIKey, logger)
	}

	return registry, nil
}

// modelsHandler reports which backend serves each mode, so callers can see
// how the deployment is configured without holding any backend credentials.
func modelsHandler(registry map[providers.Mode]providers.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET method is allowed", http.StatusMethodNotAllowed)
			return
		}
		backends := make(map[string]string, len(registry))
		for mode, p := range registry {
			backends[string(mode)] = p.Name()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"backends": backends})
	}
}
