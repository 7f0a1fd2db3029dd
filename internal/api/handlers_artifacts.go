package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docforge/internal/store"
)

// handleJobArtifacts lists the artifacts a job produced or reused.
func (s *Server) handleJobArtifacts(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	ctx := r.Context()
	st := s.orchestrator.Store()

	seen := make(map[string]bool)
	var arts []*store.Artifact
	if job := s.orchestrator.GetJob(jobID); job != nil {
		for _, id := range job.ArtifactIDs() {
			a, err := st.Get(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				jsonError(w, "failed to load artifact: "+err.Error(), http.StatusInternalServerError)
				return
			}
			seen[a.ID] = true
			arts = append(arts, a)
		}
	}

	// Artifacts outlive the in-memory job record.
	owned, err := st.ListByJob(ctx, jobID)
	if err != nil {
		jsonError(w, "failed to list artifacts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	for _, a := range owned {
		if !seen[a.ID] {
			arts = append(arts, a)
		}
	}
	if len(arts) == 0 && s.orchestrator.GetJob(jobID) == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	out := make([]map[string]any, 0, len(arts))
	for _, a := range arts {
		out = append(out, map[string]any{
			"artifact_id":  a.ID,
			"kind":         a.Kind,
			"filename":     a.Filename,
			"content_type": a.ContentType,
			"pages":        a.Pages,
			"size":         a.Size,
			"created_at":   a.CreatedAt,
			"reused":       a.JobID != jobID,
			"download_url": "/api/artifacts/" + a.ID,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"job_id": jobID, "artifacts": out})
}

func (s *Server) handleDownloadArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "artifactID")
	a, err := s.orchestrator.Store().Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "artifact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load artifact: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("X-Page-Count", strconv.Itoa(a.Pages))
	writeFile(w, a.Filename, a.ContentType, a.Data)
}
