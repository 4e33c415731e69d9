package providers

import (
	"context"
	"image"
)

// Mode is the caller-declared request kind. It selects which backend family
// serves the request.
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// ParseMode validates the wire value of the mode field. An absent value
// defaults to text; anything outside the known set is rejected rather than
// silently defaulted.
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case "":
		return ModeText, nil
	case string(ModeText):
		return ModeText, nil
	case string(ModeImage):
		return ModeImage, nil
	default:
		return "", Errorf(ErrBadRequest, "unknown mode %q, expected \"text\" or \"image\"", raw)
	}
}

// GenerationInput is the standardized input for all providers. Images are
// the reference rasters that survived decoding; providers that cannot accept
// image input ignore them.
type GenerationInput struct {
	Prompt string
	Images []image.Image
}

// GenerationOutput is the standardized output from all providers. Exactly
// one of Text or PNG is set.
type GenerationOutput struct {
	Text string
	PNG  []byte
}

// Kind returns the wire value of the envelope type field.
func (o *GenerationOutput) Kind() string {
	if len(o.PNG) > 0 {
		return "image"
	}
	return "text"
}

// Provider is the interface every backend adapter implements. One provider
// is registered per mode at startup; the proxy performs exactly one Generate
// call per inbound request.
type Provider interface {
	// Name returns the backend name, e.g. "pollinations".
	Name() string
	// Mode returns the request mode this backend serves.
	Mode() Mode
	// Generate performs the backend call. The context carries the inbound
	// request's cancellation; the provider's own HTTP client bounds the call
	// with a backend-specific timeout.
	Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error)
}
