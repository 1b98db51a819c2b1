package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

type importResult struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Created bool   `json:"created"`
}

// handleImportArticles handles POST /v1/articles. The body is either one
// article object or an array of them.
func (s *LitServer) handleImportArticles(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	articles, err := model.DecodeArticles(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := s.Import(r.Context(), articles)
	if err != nil {
		writeOpError(w, err)
		return
	}
	out := make([]importResult, len(articles))
	for i, a := range articles {
		out[i] = importResult{ID: a.ID, Title: a.Title, Created: created[i]}
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": out})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "article id must be an integer")
		return 0, false
	}
	return id, true
}

// handleGetArticle handles GET /v1/articles/{id}.
func (s *LitServer) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := s.Article(r.Context(), id)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleDeleteArticle handles DELETE /v1/articles/{id}.
func (s *LitServer) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Delete(r.Context(), id); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReload handles POST /v1/catalog/reload.
func (s *LitServer) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload catalogue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"articles": s.catalog.Len()})
}

// handleFacets handles GET /v1/facets.
func (s *LitServer) handleFacets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Facets())
}

// handleStats handles GET /v1/stats.
func (s *LitServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Stats())
}
