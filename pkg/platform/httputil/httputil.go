// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "sahakosh/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard error envelope:
// {"error": <code>, "error_description": <message>}. Internal errors omit
// the description so backend details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		body["error_description"] = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
