package server

import (
	"net/http"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// handleKnowledgeGraph handles POST /api/kg.
func (s *LitServer) handleKnowledgeGraph(w http.ResponseWriter, r *http.Request) {
	var q model.GraphQuery
	if err := decodeBody(r, &q); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Graph(r.Context(), q))
}

// handleSummary handles POST /api/summary. Failures still answer with a
// summary field so the front end can show the message in place.
func (s *LitServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req model.SummaryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.SummaryResponse{Summary: err.Error()})
		return
	}
	text, err := s.Summary(r.Context(), req)
	if err != nil {
		writeJSON(w, errorStatus(err), model.SummaryResponse{Summary: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.SummaryResponse{Summary: text})
}

func (s *LitServer) decodeSearch(w http.ResponseWriter, r *http.Request) (model.SearchRequest, bool) {
	var req model.SearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeOpError(w, err)
		return req, false
	}
	if err := model.Validate(req); err != nil {
		writeOpError(w, validationInput(err))
		return req, false
	}
	return req, true
}

// handleArticles handles POST /api/articles.
func (s *LitServer) handleArticles(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.Search(req))
}

// handleAdvancedSearch handles POST /api/advancedf.
func (s *LitServer) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.catalog.Advanced(req))
}

// handleCharts handles POST /api/charts.
func (s *LitServer) handleCharts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Charts())
}
