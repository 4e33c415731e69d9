package providers

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"go.uber.org/zap"

	"genproxy/imagecodec"
)

// GeminiImageProvider serves image mode through the multimodal chat API,
// fusing the reference images with the prompt into a new image. The prompt
// goes after the images in the content sequence so the model treats the
// images as the subject being edited.
type GeminiImageProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client

	logger *zap.Logger
}

// NewGeminiImageProvider creates the image-fusion backend adapter.
func NewGeminiImageProvider(apiKey, model string, logger *zap.Logger) *GeminiImageProvider {
	return &GeminiImageProvider{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultGeminiBaseURL,
		Client:  &http.Client{Timeout: geminiTimeout * time.Second},
		logger:  logger,
	}
}

func (p *GeminiImageProvider) Name() string { return "gemini-image" }

func (p *GeminiImageProvider) Mode() Mode { return ModeImage }

// Generate fuses the reference images with the prompt and extracts the
// single generated image from the response. A structurally valid response
// with zero image parts usually means safety filtering, which is reported
// as an empty-output failure rather than an internal error.
func (p *GeminiImageProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	parts := imageParts(input.Images, p.logger)
	parts = append(parts, geminiPart{Text: input.Prompt})

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

	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, WrapError(ErrUpstream, "gemini-image: invalid base64 in image part", err)
			}
			png, err := imagecodec.NormalizePNG(raw, part.InlineData.MimeType)
			if err != nil {
				return nil, WrapError(ErrInternal, "gemini-image: failed to normalize image", err)
			}
			return &GenerationOutput{PNG: png}, nil
		}
	}
	return nil, NewError(ErrEmptyOutput, "gemini-image: model returned no image, the request may have been filtered")
}
