// Package dispatch routes authenticated generation requests to the backend
// configured for their mode and normalizes the outcome into the response
// envelope.
package dispatch

import (
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"genproxy/config"
	"genproxy/imagecodec"
	"genproxy/middleware"
	"genproxy/providers"
)

// Dispatcher owns the request pipeline: auth, parse, backend selection,
// invocation and envelope encoding. It holds no per-request state; the
// registry and configuration are immutable after construction.
type Dispatcher struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry map[providers.Mode]providers.Provider
}

// New creates a dispatcher over an immutable provider registry keyed by mode.
func New(cfg *config.Config, logger *zap.Logger, registry map[providers.Mode]providers.Provider) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger, registry: registry}
}

// Provider returns the backend registered for a mode, if any.
func (d *Dispatcher) Provider(mode providers.Mode) (providers.Provider, bool) {
	p, ok := d.registry[mode]
	return p, ok
}

// ServeHTTP handles one generation request end to end. Authorization is
// always the first check; nothing else runs for an unauthorized caller.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	reqID := uuid.NewString()
	logger := d.logger.With(zap.String("request_id", reqID))

	credential := middleware.CredentialFromHeader(r.Header.Get("Authorization"))
	if !middleware.Authorize(d.cfg.ProxySecret, credential) {
		logger.Warn("rejected request with bad credential")
		perr := providers.NewError(providers.ErrForbidden, "forbidden: wrong proxy secret")
		writeError(w, perr.HTTPStatus(), perr.Message)
		return
	}

	req, mode, err := parseRequest(r.Body)
	if err != nil {
		perr := providers.AsError(err)
		logger.Warn("rejected malformed request", zap.Error(err))
		writeError(w, perr.HTTPStatus(), perr.Message)
		return
	}

	provider, ok := d.registry[mode]
	if !ok {
		logger.Warn("no backend configured for mode", zap.String("mode", string(mode)))
		perr := providers.Errorf(providers.ErrUnsupportedMode, "no backend configured for %s mode", mode)
		writeError(w, perr.HTTPStatus(), perr.Message)
		return
	}

	input := providers.GenerationInput{
		Prompt: req.Prompt,
		Images: d.decodeImages(logger, req.Images),
	}

	logger.Info("dispatching request",
		zap.String("mode", string(mode)),
		zap.String("provider", provider.Name()),
		zap.Int("reference_images", len(input.Images)))

	out, err := provider.Generate(r.Context(), input)
	if err != nil {
		perr := providers.AsError(err)
		logger.Error("backend call failed",
			zap.String("provider", provider.Name()),
			zap.Int("status", perr.HTTPStatus()),
			zap.Error(err))
		writeError(w, perr.HTTPStatus(), perr.Message)
		return
	}

	if out.Kind() == "image" {
		d.saveLocalCopy(logger, out.PNG)
		writeSuccess(w, base64.StdEncoding.EncodeToString(out.PNG), "image")
		return
	}
	writeSuccess(w, out.Text, "text")
}

// decodeImages decodes the base64 reference images best-effort. A corrupt
// entry is logged and skipped; it never fails the request, the backend just
// receives fewer reference images than were supplied.
func (d *Dispatcher) decodeImages(logger *zap.Logger, entries []string) []image.Image {
	images := make([]image.Image, 0, len(entries))
	for i, entry := range entries {
		img, err := imagecodec.Decode(entry)
		if err != nil {
			logger.Warn("skipping undecodable reference image",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		images = append(images, img)
	}
	return images
}

// saveLocalCopy optionally writes the generated image under images/ for
// debugging. Failures only log; the response is already complete.
func (d *Dispatcher) saveLocalCopy(logger *zap.Logger, png []byte) {
	if !d.cfg.SaveLocalCopy {
		return
	}
	if err := os.MkdirAll("images", 0o755); err != nil {
		logger.Warn("could not create images directory", zap.Error(err))
		return
	}
	name := fmt.Sprintf("images/%s.png", time.Now().Format("20060102150405.000"))
	if err := os.WriteFile(name, png, 0o644); err != nil {
		logger.Warn("could not save local copy", zap.Error(err))
		return
	}
	logger.Info("saved local copy", zap.String("path", name))
}
