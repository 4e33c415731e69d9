package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"genproxy/imagecodec"
)

const (
	defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	// Cold starts on the shared inference tier are slow, so this backend
	// gets a much longer deadline than the chat APIs.
	huggingFaceTimeout = 180 * time.Second
)

// HuggingFaceProvider serves image mode through the hosted-model inference
// API. Prompt-only; reference images are ignored and the style template is
// applied instead.
type HuggingFaceProvider struct {
	APIToken string
	Model    string
	BaseURL  string
	Client   *http.Client

	logger *zap.Logger
}

// NewHuggingFaceProvider creates the hosted-model backend adapter.
func NewHuggingFaceProvider(apiToken, model string, logger *zap.Logger) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		APIToken: apiToken,
		Model:    model,
		BaseURL:  defaultHuggingFaceBaseURL,
		Client:   &http.Client{Timeout: huggingFaceTimeout},
		logger:   logger,
	}
}

func (p *HuggingFaceProvider) Name() string { return "huggingface" }

func (p *HuggingFaceProvider) Mode() Mode { return ModeImage }

type huggingFacePayload struct {
	Inputs string `json:"inputs"`
}

// Generate posts the augmented prompt to the inference endpoint. The API
// answers with raw image bytes on success, or a JSON/text body mentioning
// "loading" while the model is still warming up. The latter is a cold-start
// condition the caller can retry after a delay, not a server error.
func (p *HuggingFaceProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	body, err := json.Marshal(huggingFacePayload{Inputs: AugmentPrompt(input.Prompt)})
	if err != nil {
		return nil, WrapError(ErrInternal, "huggingface: failed to marshal payload", err)
	}

	p.logger.Info("calling backend",
		zap.String("provider", p.Name()),
		zap.String("model", p.Model))

	url := fmt.Sprintf("%s/models/%s", p.BaseURL, p.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(ErrInternal, "huggingface: failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")
	if p.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIToken)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, WrapError(ErrUpstream, "huggingface: failed to call API", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(ErrUpstream, "huggingface: failed to read response", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK {
		if !strings.HasPrefix(contentType, "image/") && isLoadingBody(data) {
			return nil, NewError(ErrColdStart, "huggingface: model is still loading, retry shortly")
		}
		png, err := imagecodec.NormalizePNG(data, contentType)
		if err != nil {
			return nil, WrapError(ErrInternal, "huggingface: failed to normalize image", err)
		}
		return &GenerationOutput{PNG: png}, nil
	}

	if resp.StatusCode == http.StatusServiceUnavailable && isLoadingBody(data) {
		return nil, NewError(ErrColdStart, "huggingface: model is still loading, retry shortly")
	}
	return nil, Errorf(ErrUpstream, "huggingface: API returned status %d: %s", resp.StatusCode, string(data))
}

func isLoadingBody(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "loading") || strings.Contains(lower, "estimated_time")
}
