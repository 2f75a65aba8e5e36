// Package httpx holds the JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in the error envelope.
const (
	CodeUnsupportedFormat      = "UNSUPPORTED_FORMAT"
	CodeUnsupportedEnvironment = "UNSUPPORTED_ENVIRONMENT"
	CodeMissingTables          = "MISSING_TABLES"
	CodeLoadFailed             = "LOAD_FAILED"
	CodeBadRequest             = "BAD_REQUEST"
	CodeNotFound               = "NOT_FOUND"
	CodeForbidden              = "FORBIDDEN"
	CodeInternal               = "INTERNAL_SERVER_ERROR"
)

// ErrorBody is the payload under "error".
type ErrorBody struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"requestId,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// WriteError writes the error envelope, tagging it with the request id.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteErrorBody(w, r, status, ErrorBody{Code: code, Message: message})
}

// WriteErrorBody writes a prepared error body.
func WriteErrorBody(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	if r != nil {
		if id, ok := RequestIDFromContext(r.Context()); ok {
			body.RequestID = id
		}
	}
	WriteJSON(w, status, ErrorResponse{Error: body})
}
