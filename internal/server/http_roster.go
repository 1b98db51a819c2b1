package server

import (
	"net/http"
	"strconv"
	"time"
)

// handleSessions handles GET /v1/sessions.
// Returns the explorer session roster from the presence tracker.
func (s *LitServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.Presence == nil {
		writeJSON(w, http.StatusOK, map[string]any{"sessions": []any{}})
		return
	}

	// Optional stale_threshold_secs query param; 0 lists everything.
	var stale time.Duration
	if v := r.URL.Query().Get("stale_threshold_secs"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			stale = time.Duration(secs) * time.Second
		}
	}

	active, idle := s.Presence.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.Presence.Roster(stale),
		"active":   active,
		"idle":     idle,
	})
}
