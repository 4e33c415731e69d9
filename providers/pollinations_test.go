package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"genproxy/imagecodec"
)

func TestPollinationsGenerate(t *testing.T) {
	png, err := imagecodec.EncodePNG(testRaster(t))
	require.NoError(t, err)

	var gotPath string
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer server.Close()

	p := NewPollinationsProvider("", zap.NewNop())
	p.BaseURL = server.URL

	out, err := p.Generate(context.Background(), GenerationInput{Prompt: "a red circle"})
	require.NoError(t, err)
	assert.Equal(t, "image", out.Kind())
	assert.Equal(t, png, out.PNG)

	assert.True(t, strings.HasPrefix(gotPath, "/prompt/"))
	assert.Contains(t, gotPath, "a%20red%20circle")
	assert.Equal(t, "1024", gotQuery.Get("width"))
	assert.Equal(t, "1024", gotQuery.Get("height"))
	assert.Equal(t, "true", gotQuery.Get("nologo"))
	assert.NotEmpty(t, gotQuery.Get("seed"))
}

func TestPollinationsFreshSeedPerCall(t *testing.T) {
	png, err := imagecodec.EncodePNG(testRaster(t))
	require.NoError(t, err)

	var seeds []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seeds = append(seeds, r.URL.Query().Get("seed"))
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}))
	defer server.Close()

	p := NewPollinationsProvider("", zap.NewNop())
	p.BaseURL = server.URL

	input := GenerationInput{Prompt: "same prompt"}
	_, err = p.Generate(context.Background(), input)
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, seeds, 2)
	assert.NotEqual(t, seeds[0], seeds[1])
}

func TestPollinationsSendsOptionalKey(t *testing.T) {
	png, err := imagecodec.EncodePNG(testRaster(t))
	require.NoError(t, err)

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write(png)
	}))
	defer server.Close()

	p := NewPollinationsProvider("poll-key", zap.NewNop())
	p.BaseURL = server.URL

	_, err = p.Generate(context.Background(), GenerationInput{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer poll-key", gotAuth)
}

func TestPollinationsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewPollinationsProvider("", zap.NewNop())
	p.BaseURL = server.URL

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "x"})
	require.Error(t, err)
	perr := AsError(err)
	assert.Equal(t, ErrUpstream, perr.Kind)
	assert.Contains(t, perr.Message, "502")
}
