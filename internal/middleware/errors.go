package middleware

import (
	"encoding/json"
	"net/http"
)

// Error codes written by middleware. They travel in the same envelope as
// resolver errors so GraphQL clients need a single error path.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeRateLimited     = "RATE_LIMITED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeInternal        = "INTERNAL_ERROR"
)

type errorEnvelope struct {
	Errors []errorBody `json:"errors"`
}

type errorBody struct {
	Message    string            `json:"message"`
	Extensions map[string]string `json:"extensions"`
}

// writeError writes a GraphQL-shaped error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Errors: []errorBody{{
			Message:    message,
			Extensions: map[string]string{"code": code},
		}},
	})
}
