package httpx

import (
	"encoding/json"
	"net/http"
)

// InternalErrorMessage is the only text a client ever sees for a 5xx.
const InternalErrorMessage = "Internal server error"

// JSON writes v as JSON with the given status code. Encoding errors are
// dropped; use it for handler responses, not for streaming.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes a standard {"error": message} JSON response.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Raw writes an already encoded JSON body.
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is the shape of acknowledgement responses such as deletes.
type MessageBody struct {
	Message string `json:"message"`
}

// SafeMessage returns msg unless status is a server error, in which case the
// generic InternalErrorMessage is returned.
func SafeMessage(msg string, status int) string {
	if status >= http.StatusInternalServerError {
		return InternalErrorMessage
	}
	return msg
}
