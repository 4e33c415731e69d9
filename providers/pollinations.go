package providers

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"genproxy/imagecodec"
)

const (
	defaultPollinationsBaseURL = "https://image.pollinations.ai"
	// Remote rendering regularly takes over a minute.
	pollinationsTimeout = 180 * time.Second

	pollinationsWidth  = 1024
	pollinationsHeight = 1024
)

// PollinationsProvider serves image mode through the unauthenticated
// URL-parameterized rendering service. The prompt travels in the URL path
// and the response body is the image itself.
type PollinationsProvider struct {
	// APIKey is optional; the service works anonymously.
	APIKey  string
	BaseURL string
	Client  *http.Client

	logger *zap.Logger
}

// NewPollinationsProvider creates the URL-based backend adapter.
func NewPollinationsProvider(apiKey string, logger *zap.Logger) *PollinationsProvider {
	return &PollinationsProvider{
		APIKey:  apiKey,
		BaseURL: defaultPollinationsBaseURL,
		Client:  &http.Client{Timeout: pollinationsTimeout},
		logger:  logger,
	}
}

func (p *PollinationsProvider) Name() string { return "pollinations" }

func (p *PollinationsProvider) Mode() Mode { return ModeImage }

// Generate fetches one rendering of the augmented prompt. A fresh random
// seed goes into every call so retries with an identical prompt yield
// different artifacts.
func (p *PollinationsProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	seed := rand.Int32()

	params := url.Values{}
	params.Set("width", fmt.Sprintf("%d", pollinationsWidth))
	params.Set("height", fmt.Sprintf("%d", pollinationsHeight))
	params.Set("seed", fmt.Sprintf("%d", seed))
	params.Set("nologo", "true")

	fullURL := fmt.Sprintf("%s/prompt/%s?%s",
		p.BaseURL, url.PathEscape(AugmentPrompt(input.Prompt)), params.Encode())

	p.logger.Info("calling backend",
		zap.String("provider", p.Name()),
		zap.Int32("seed", seed))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, WrapError(ErrInternal, "pollinations: failed to create request", err)
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, WrapError(ErrUpstream, "pollinations: failed to call API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return nil, Errorf(ErrUpstream, "pollinations: API returned status %d: %s", resp.StatusCode, string(detail))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(ErrUpstream, "pollinations: failed to read image data", err)
	}
	png, err := imagecodec.NormalizePNG(data, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, WrapError(ErrInternal, "pollinations: failed to normalize image", err)
	}
	return &GenerationOutput{PNG: png}, nil
}
