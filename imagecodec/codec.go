// Package imagecodec converts between the base64 wire representation of
// images and in-memory rasters, normalizing everything the proxy touches to
// PNG on the way out.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // register WebP decoding
)

// maxDimension bounds reference images before they are forwarded upstream.
// Backends reject or silently downscale anything larger anyway.
const maxDimension = 1920

// Decode turns one base64-encoded wire entry into a raster. It accepts an
// optional data-URL prefix and PNG, JPEG or WebP payloads. Oversized rasters
// are bounded to maxDimension on the longer side.
func Decode(b64 string) (image.Image, error) {
	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return nil, fmt.Errorf("empty image entry")
	}

	// Tolerate "data:image/png;base64,...." style entries.
	if strings.HasPrefix(b64, "data:") {
		comma := strings.Index(b64, ",")
		if comma == -1 {
			return nil, fmt.Errorf("malformed data URL: missing comma")
		}
		b64 = b64[comma+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(b64)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)
	}
	return img, nil
}

// EncodePNG serializes a raster as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image to png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64PNG serializes a raster as a base64 PNG wire entry.
func EncodeBase64PNG(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// NormalizePNG converts raw image bytes from a backend into PNG. PNG input
// passes through untouched; JPEG and WebP payloads are re-encoded. The
// contentType hint comes from the backend's response header and may be empty.
func NormalizePNG(raw []byte, contentType string) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	detected := contentType
	if detected == "" || detected == "application/octet-stream" {
		detected = sniffContentType(raw)
	}
	if strings.HasPrefix(detected, "image/png") {
		return raw, nil
	}

	var img image.Image
	var err error
	if strings.HasPrefix(detected, "image/webp") {
		img, err = webp.Decode(bytes.NewReader(raw))
	} else {
		img, _, err = image.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", detected, err)
	}
	return EncodePNG(img)
}

func sniffContentType(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(raw, []byte("\xff\xd8")):
		return "image/jpeg"
	case len(raw) >= 12 && bytes.Equal(raw[0:4], []byte("RIFF")) && bytes.Equal(raw[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return ""
	}
}
