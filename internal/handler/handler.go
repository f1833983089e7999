// Package handler provides the HTTP handlers mounted by the API server.
package handler

import (
	"encoding/json"
	"net/http"
)

// Handler serves the small non-GraphQL endpoints.
type Handler struct {
	version     string
	graphqlPath string
}

// New creates a new Handler instance.
func New(version, graphqlPath string) *Handler {
	return &Handler{version: version, graphqlPath: graphqlPath}
}

// Hello describes the service.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "graphcrm",
		"version": h.version,
		"graphql": h.graphqlPath,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "resource not found",
	})
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure only means the client left.
	_ = json.NewEncoder(w).Encode(data)
}
