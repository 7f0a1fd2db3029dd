package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleUpstreamStats(w http.ResponseWriter, r *http.Request) {
	gen := s.orchestrator.Generator()
	if gen == nil {
		jsonError(w, "upstream stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"enabled":     gen.Enabled(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       gen.Stats().Snapshot(),
	})
}
