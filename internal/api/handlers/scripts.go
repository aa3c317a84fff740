package handlers

import (
	"net/http"

	"github.com/nuworks/agentia/internal/pipeline"
	"github.com/nuworks/agentia/internal/script"
)

type ScriptHandler struct {
	svc      *pipeline.Service
	maxBytes int64
}

func NewScriptHandler(svc *pipeline.Service, maxBytes int64) *ScriptHandler {
	return &ScriptHandler{svc: svc, maxBytes: maxBytes}
}

type scriptResponse struct {
	script.Result
	ExtractedChars int    `json:"extracted_chars"`
	ExtractStatus  string `json:"extract_status"`
	Pages          int    `json:"pages"`
}

// Create drafts a narration script from the uploaded document. Unreadable
// documents and backend failures still return 200 with the tagged result.
func (h *ScriptHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, h.maxBytes); err != nil {
		if !writeSubmissionError(w, err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return
	}

	doc, err := formDocument(r, h.maxBytes)
	if err != nil {
		if !writeSubmissionError(w, err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return
	}

	draft, err := h.svc.Draft(r.Context(), formFields(r), doc)
	if err != nil {
		if !writeSubmissionError(w, err) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, scriptResponse{
		Result:         draft.Script,
		ExtractedChars: draft.ExtractedChars,
		ExtractStatus:  string(draft.Extracted.Status),
		Pages:          draft.Extracted.Pages,
	})
}
