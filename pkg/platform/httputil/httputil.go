// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "steeple/pkg/domain-errors"
)

// errorResponse is the error envelope returned to clients.
type errorResponse struct {
	Error       string         `json:"error"`
	Description string         `json:"error_description,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// WriteJSON writes a JSON body with the given status. Encoding failures are
// swallowed; by the time Encode fails the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a coded error into an HTTP response. Internal errors
// omit the description so infrastructure details never reach clients; all
// other codes pass their message and structured details through.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			resp.Description = coded.Message
		}
		resp.Details = dErrors.Load(err)
	}

	WriteJSON(w, status, resp)
}
