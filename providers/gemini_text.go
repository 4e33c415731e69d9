package providers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GeminiTextProvider serves text mode through the multimodal chat API.
// Reference images are sent as context alongside the prompt.
type GeminiTextProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client

	logger *zap.Logger
}

// NewGeminiTextProvider creates the text backend adapter.
func NewGeminiTextProvider(apiKey, model string, logger *zap.Logger) *GeminiTextProvider {
	return &GeminiTextProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultGeminiBaseURL,
		Client:  &http.Client{Timeout: geminiTimeout * time.Second},
		logger:  logger,
	}
}

func (p *GeminiTextProvider) Name() string { return "gemini-text" }

func (p *GeminiTextProvider) Mode() Mode { return ModeText }

// Generate sends the prompt followed by any reference images and returns the
// concatenated text parts of the first candidate.
func (p *GeminiTextProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	parts := []geminiPart{{Text: input.Prompt}}
	parts = append(parts, imageParts(input.Images, p.logger)...)

	p.logger.Info("calling backend",
		zap.String("provider", p.Name()),
		zap.String("model", p.Model),
		zap.Int("reference_images", len(parts)-1))

	resp, err := callGemini(ctx, p.Client, p.BaseURL, p.APIKey, p.Model, geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	})
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, NewError(ErrEmptyOutput, "gemini-text: model returned no text")
	}
	return &GenerationOutput{Text: text.String()}, nil
}
