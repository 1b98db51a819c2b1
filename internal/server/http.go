package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests other than GET /healthz and
// GET /metrics must carry Authorization: Bearer <token>.
func (s *LitServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(pattern, h))
	}

	// Endpoints the web front end has always called.
	route("POST /api/kg", s.handleKnowledgeGraph)
	route("POST /api/summary", s.handleSummary)
	route("POST /api/articles", s.handleArticles)
	route("POST /api/advancedf", s.handleAdvancedSearch)
	route("POST /api/charts", s.handleCharts)

	route("POST /v1/articles", s.handleImportArticles)
	route("GET /v1/articles/{id}", s.handleGetArticle)
	route("DELETE /v1/articles/{id}", s.handleDeleteArticle)
	route("POST /v1/catalog/reload", s.handleReload)
	route("GET /v1/facets", s.handleFacets)
	route("GET /v1/stats", s.handleStats)
	route("GET /v1/sessions", s.handleSessions)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)

	route("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return AuthMiddleware(authToken, mux)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count, latency and in-flight gauge for route.
func (s *LitServer) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.HTTPRequestsInFlight.Inc()
		defer s.Metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Metrics.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start))
	})
}

// handleHealth handles GET /healthz.
func (s *LitServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "articles": s.catalog.Len()})
}

// decodeBody decodes a JSON request body into v. An empty body leaves v at
// its zero value.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return inputError("invalid JSON body")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps an operation error to an HTTP status code.
func errorStatus(err error) int {
	var ie inputError
	var nf notFoundError
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeOpError writes err with the status errorStatus picks for it.
func writeOpError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}
