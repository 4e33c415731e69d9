package dispatch

import (
	"encoding/json"
	"net/http"
)

// successEnvelope is the uniform success shape: the generated text or a
// base64-encoded PNG, plus which of the two it is.
type successEnvelope struct {
	Result string `json:"result"`
	Type   string `json:"type"`
}

// errorEnvelope is the uniform failure shape.
type errorEnvelope struct {
	Error string `json:"error"`
}

func writeSuccess(w http.ResponseWriter, result, kind string) {
	writeJSON(w, http.StatusOK, successEnvelope{Result: result, Type: kind})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
