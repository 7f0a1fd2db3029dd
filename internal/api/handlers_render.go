package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/docforge/internal/doctree"
	"github.com/dgallion1/docforge/internal/export"
)

type previewRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind" validate:"omitempty,oneof=resume cover_letter"`
}

type exportRequest struct {
	Text   string `json:"text"`
	Kind   string `json:"kind" validate:"omitempty,oneof=resume cover_letter"`
	Format string `json:"format" validate:"omitempty,oneof=pdf html"`
}

// decode reads a JSON body into dst and validates it. On failure it has
// already written the error response.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTextBytes+64<<10)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", tooBig.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldName(fe), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fieldName(fe))
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Text":
		return "text"
	case "Kind":
		return "kind"
	case "Format":
		return "format"
	}
	return fe.Field()
}

func (s *Server) checkTextSize(w http.ResponseWriter, text string) bool {
	if int64(len(text)) > s.cfg.MaxTextBytes {
		jsonError(w, fmt.Sprintf("text exceeds max size (%d bytes)", s.cfg.MaxTextBytes), http.StatusRequestEntityTooLarge)
		return false
	}
	return true
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !s.decode(w, r, &req) || !s.checkTextSize(w, req.Text) {
		return
	}
	kind, err := doctree.ParseKind(req.Kind)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(export.Preview(req.Text, kind))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !s.decode(w, r, &req) || !s.checkTextSize(w, req.Text) {
		return
	}
	kind, err := doctree.ParseKind(req.Kind)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := export.Render(req.Text, kind, export.Options{Format: format})
	if err != nil {
		s.log.Error("export failed", "kind", kind, "format", format, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("X-Page-Count", strconv.Itoa(a.Pages))
	writeFile(w, a.Filename, a.ContentType, a.Data)
}

// writeFile sends data as a download named filename.
func writeFile(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
