package httpapi

import (
	"encoding/json"
	"net/http"
)

// APIError is the uniform error envelope every handler answers with. Codes
// are stable snake_case identifiers the desktop shell switches on
// ("scan_busy", "client_not_found", "invalid_json", ...); the message is
// for humans and may change freely.
type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// WriteJSON writes v with an explicit status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the APIError envelope, tagging it with the request id
// so a UI report can be matched against the access log.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}
