package dispatch

import (
	"encoding/json"
	"io"

	"genproxy/providers"
)

// generateRequest matches the JSON body of a generation request.
type generateRequest struct {
	Mode   string   `json:"mode"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
}

// parseRequest reads and validates the inbound body. An empty or malformed
// body is a bad request; absent fields take their documented defaults (mode
// text, empty prompt, no images).
func parseRequest(body io.Reader) (*generateRequest, providers.Mode, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, "", providers.WrapError(providers.ErrBadRequest, "failed to read request body", err)
	}
	if len(raw) == 0 {
		return nil, "", providers.NewError(providers.ErrBadRequest, "no JSON data received")
	}

	var req generateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, "", providers.WrapError(providers.ErrBadRequest, "invalid JSON body", err)
	}

	mode, err := providers.ParseMode(req.Mode)
	if err != nil {
		return nil, "", err
	}
	return &req, mode, nil
}
