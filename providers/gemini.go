package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"

	"go.uber.org/zap"

	"genproxy/imagecodec"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiTimeout        = 60 // seconds
)

// Wire types for the generateContent endpoint. The API accepts snake_case
// on requests and answers in camelCase.
type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponsePart struct {
	Text       string `json:"text"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiResponsePart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// callGemini posts one generateContent request and decodes the answer.
// Quota exhaustion is reported as its own kind so callers can tell it apart
// from a generic upstream failure.
func callGemini(ctx context.Context, client *http.Client, baseURL, apiKey, model string, payload geminiRequest) (*geminiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(ErrInternal, "gemini: failed to marshal payload", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(ErrInternal, "gemini: failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, WrapError(ErrUpstream, "gemini: failed to call API", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewError(ErrQuotaExceeded, "gemini: API quota exceeded, retry later")
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return nil, Errorf(ErrUpstream, "gemini: API returned status %d: %s", resp.StatusCode, string(detail))
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, WrapError(ErrUpstream, "gemini: failed to decode response", err)
	}
	return &decoded, nil
}

// imageParts converts decoded reference rasters into inline_data parts.
// A raster that fails PNG encoding is skipped, matching the best-effort
// handling of reference images everywhere else in the proxy.
func imageParts(images []image.Image, logger *zap.Logger) []geminiPart {
	parts := make([]geminiPart, 0, len(images))
	for i, img := range images {
		b64, err := imagecodec.EncodeBase64PNG(img)
		if err != nil {
			logger.Warn("skipping reference image that failed to encode",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{MimeType: "image/png", Data: b64},
		})
	}
	return parts
}
