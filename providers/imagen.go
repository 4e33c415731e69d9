package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"genproxy/imagecodec"
)

// ImagenProvider serves image mode through the prompt-only text-to-image
// API. It cannot accept reference images, so the style-augmentation template
// compensates for the lost image context.
type ImagenProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client

	logger *zap.Logger
}

// NewImagenProvider creates the text-to-image backend adapter.
func NewImagenProvider(apiKey, model string, logger *zap.Logger) *ImagenProvider {
	return &ImagenProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultGeminiBaseURL,
		Client:  &http.Client{Timeout: geminiTimeout * time.Second},
		logger:  logger,
	}
}

func (p *ImagenProvider) Name() string { return "imagen" }

func (p *ImagenProvider) Mode() Mode { return ModeImage }

type imagenPayload struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount int `json:"sampleCount"`
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// Generate requests a single image for the augmented prompt. Reference
// images are ignored. Quota exhaustion (429 or a quota-flavored error body)
// is reported distinctly so the caller can back off or switch strategy.
func (p *ImagenProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	prompt := AugmentPrompt(input.Prompt)
	payload := imagenPayload{
		Instances:  []imagenInstance{{Prompt: prompt}},
		Parameters: imagenParameters{SampleCount: 1},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(ErrInternal, "imagen: failed to marshal payload", err)
	}

	p.logger.Info("calling backend",
		zap.String("provider", p.Name()),
		zap.String("model", p.Model))

	url := fmt.Sprintf("%s/v1beta/models/%s:predict", p.BaseURL, p.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(ErrInternal, "imagen: failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, WrapError(ErrUpstream, "imagen: failed to call API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests || isQuotaBody(detail) {
			return nil, NewError(ErrQuotaExceeded, "imagen: API quota exceeded, retry later")
		}
		return nil, Errorf(ErrUpstream, "imagen: API returned status %d: %s", resp.StatusCode, string(detail))
	}

	var decoded imagenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, WrapError(ErrUpstream, "imagen: failed to decode response", err)
	}
	if len(decoded.Predictions) == 0 || decoded.Predictions[0].BytesBase64Encoded == "" {
		return nil, NewError(ErrEmptyOutput, "imagen: model returned no image")
	}

	raw, err := base64.StdEncoding.DecodeString(decoded.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, WrapError(ErrUpstream, "imagen: invalid base64 image data", err)
	}
	png, err := imagecodec.NormalizePNG(raw, decoded.Predictions[0].MimeType)
	if err != nil {
		return nil, WrapError(ErrInternal, "imagen: failed to normalize image", err)
	}
	return &GenerationOutput{PNG: png}, nil
}

func isQuotaBody(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "quota")
}
