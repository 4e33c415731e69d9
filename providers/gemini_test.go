package providers

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"genproxy/imagecodec"
)

func testRaster(t *testing.T) image.Image {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	return img
}

func testPNGBase64(t *testing.T) string {
	t.Helper()
	b64, err := imagecodec.EncodeBase64PNG(testRaster(t))
	require.NoError(t, err)
	return b64
}

func geminiBody(t *testing.T, r *http.Request) geminiRequest {
	t.Helper()
	var req geminiRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestGeminiTextGenerate(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-flash-latest:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		got = geminiBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A tabby "},{"text":"cat."}]}}]}`))
	}))
	defer server.Close()

	p := NewGeminiTextProvider("test-key", "gemini-flash-latest", zap.NewNop())
	p.BaseURL = server.URL

	out, err := p.Generate(context.Background(), GenerationInput{
		Prompt: "Describe a cat",
		Images: []image.Image{testRaster(t)},
	})
	require.NoError(t, err)
	assert.Equal(t, "A tabby cat.", out.Text)
	assert.Equal(t, "text", out.Kind())

	// Prompt first, then the reference image as inline data.
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "Describe a cat", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[1].InlineData.MimeType)
}

func TestGeminiTextEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`))
	}))
	defer server.Close()

	p := NewGeminiTextProvider("test-key", "m", zap.NewNop())
	p.BaseURL = server.URL

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, ErrEmptyOutput, AsError(err).Kind)
}

func TestGeminiQuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewGeminiTextProvider("test-key", "m", zap.NewNop())
	p.BaseURL = server.URL

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "hi"})
	require.Error(t, err)
	perr := AsError(err)
	assert.Equal(t, ErrQuotaExceeded, perr.Kind)
	assert.True(t, perr.Retryable())
}

func TestGeminiImageFusion(t *testing.T) {
	generated := testPNGBase64(t)
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = geminiBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"text": "here you go"},
						{"inlineData": map[string]string{"mimeType": "image/png", "data": generated}},
					},
				},
			}},
		})
	}))
	defer server.Close()

	p := NewGeminiImageProvider("test-key", "m", zap.NewNop())
	p.BaseURL = server.URL

	out, err := p.Generate(context.Background(), GenerationInput{
		Prompt: "merge these",
		Images: []image.Image{testRaster(t), testRaster(t)},
	})
	require.NoError(t, err)
	assert.Equal(t, "image", out.Kind())
	assert.NotEmpty(t, out.PNG)

	// Fusion ordering: images first, prompt appended after.
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 3)
	assert.NotNil(t, got.Contents[0].Parts[0].InlineData)
	assert.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "merge these", got.Contents[0].Parts[2].Text)
}

func TestGeminiImageFusionNoImageParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Text-only answer, the usual shape when safety filtering kicks in.
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"I cannot do that"}]}}]}`))
	}))
	defer server.Close()

	p := NewGeminiImageProvider("test-key", "m", zap.NewNop())
	p.BaseURL = server.URL

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "merge"})
	require.Error(t, err)
	assert.Equal(t, ErrEmptyOutput, AsError(err).Kind)
}

func TestGeminiUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	p := NewGeminiImageProvider("test-key", "m", zap.NewNop())
	p.BaseURL = server.URL

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "x"})
	require.Error(t, err)
	perr := AsError(err)
	assert.Equal(t, ErrUpstream, perr.Kind)
	assert.Contains(t, perr.Message, "401")
}
