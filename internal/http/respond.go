package httpx

import (
	"encoding/json"
	"net/http"
)

// respondJSON writes payload with the given status. An encoding failure is
// only logged; the status line is already on the wire by then.
func (r *Router) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.logger.Error("response encoding failed", "status", status, "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError sends a client-safe error message. Internal detail stays in
// the logs, never in the body.
func (r *Router) respondError(w http.ResponseWriter, status int, msg string) {
	r.respondJSON(w, status, errorBody{Error: msg})
}
