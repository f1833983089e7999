package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/graphcrm/graphcrm/internal/auth"
	"github.com/graphcrm/graphcrm/internal/graph"
	"github.com/graphcrm/graphcrm/internal/metrics"
	"github.com/graphcrm/graphcrm/internal/middleware"
)

// GraphQLHandler serves the CRM schema over HTTP.
type GraphQLHandler struct {
	schema  graphql.Schema
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewGraphQLHandler creates a new GraphQLHandler.
func NewGraphQLHandler(schema graphql.Schema, logger *slog.Logger, recorder metrics.Recorder) *GraphQLHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GraphQLHandler{
		schema:  schema,
		logger:  logger.With("component", "graphql"),
		metrics: recorder,
	}
}

// requestError is a transport-level failure reported before execution.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

// ServeHTTP handles GET /graphql and POST /graphql.
//
// POST accepts application/json ({"query", "variables", "operationName"})
// and application/graphql (the raw query). GET reads the same fields from
// the query string and may not run mutations.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.decode(r)
	if err != nil {
		var reqErr *requestError
		if !errors.As(err, &reqErr) {
			reqErr = &requestError{status: http.StatusBadRequest, message: err.Error()}
		}
		if reqErr.status == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", "GET, POST")
		}
		h.metrics.IncGraphQLRequest(metrics.StatusFailed)
		writeGraphQLError(w, reqErr.status, reqErr.message)
		return
	}

	middleware.Annotate(r.Context(), slog.String("operation", operationLabel(req)))
	if caller := auth.CallerFromContext(r.Context()); caller != "" {
		middleware.Annotate(r.Context(), slog.String("caller", caller))
	}

	result := graph.Execute(r.Context(), h.schema, req)

	status := metrics.StatusSuccess
	if result.HasErrors() {
		status = metrics.StatusFailed
	}
	h.metrics.IncGraphQLRequest(status)
	h.metrics.ObserveGraphQLDuration(time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

func (h *GraphQLHandler) decode(r *http.Request) (graph.Request, error) {
	var req graph.Request

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return req, &requestError{http.StatusBadRequest, "Variables are invalid JSON."}
			}
		}
		if req.Query != "" && isMutation(req) {
			return req, &requestError{http.StatusMethodNotAllowed, "Mutations must be sent with POST."}
		}

	case http.MethodPost:
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return req, &requestError{http.StatusRequestEntityTooLarge, "Request body too large."}
			}
			return req, &requestError{http.StatusBadRequest, "Could not read request body."}
		}

		if mediaType == "application/graphql" {
			req.Query = string(body)
			break
		}
		if len(body) == 0 {
			return req, &requestError{http.StatusBadRequest, "Must provide query string."}
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return req, &requestError{http.StatusBadRequest, "POST body sent invalid JSON."}
		}

	default:
		return req, &requestError{http.StatusMethodNotAllowed, "GraphQL only supports GET and POST requests."}
	}

	if strings.TrimSpace(req.Query) == "" {
		return req, &requestError{http.StatusBadRequest, "Must provide query string."}
	}
	return req, nil
}

// selectedOperation returns the operation req would execute, or nil when
// the document does not parse or the operation is ambiguous.
func selectedOperation(req graph.Request) *ast.OperationDefinition {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return nil
	}

	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if req.OperationName == "" {
			if found != nil {
				return nil
			}
			found = op
			continue
		}
		if op.Name != nil && op.Name.Value == req.OperationName {
			return op
		}
	}
	return found
}

func isMutation(req graph.Request) bool {
	op := selectedOperation(req)
	return op != nil && op.Operation == ast.OperationTypeMutation
}

// operationLabel names the request for access logs.
func operationLabel(req graph.Request) string {
	if req.OperationName != "" {
		return req.OperationName
	}
	op := selectedOperation(req)
	if op == nil {
		return "unknown"
	}
	if op.Name != nil {
		return op.Name.Value
	}
	return "anonymous " + op.Operation
}

func writeGraphQLError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]string{{"message": message}},
	})
}
