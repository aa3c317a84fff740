package handlers

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/nuworks/agentia/internal/archive"
	"github.com/nuworks/agentia/internal/audit"
	"github.com/nuworks/agentia/internal/pipeline"
)

type OrderHandler struct {
	svc      *pipeline.Service
	auditSvc *audit.Service
	maxBytes int64
}

// NewOrderHandler accepts a nil auditSvc; List is only routed when order
// logging is enabled.
func NewOrderHandler(svc *pipeline.Service, auditSvc *audit.Service, maxBytes int64) *OrderHandler {
	return &OrderHandler{svc: svc, auditSvc: auditSvc, maxBytes: maxBytes}
}

// Create packages the edited script with the uploaded assets and streams the
// archive back as a download.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	logo, err := formLogo(r, h.maxBytes)
	if err != nil {
		if !writeSubmissionError(w, err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return
	}

	o, err := h.svc.Finalize(r.Context(), formFields(r), r.FormValue("script"), logo, doc)
	if err != nil {
		if !writeSubmissionError(w, err) {
			slog.ErrorContext(r.Context(), "order packaging failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "order packaging failed"})
		}
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", archive.ContentType)
	hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": o.Archive.Filename}))
	hdr.Set("Content-Length", strconv.Itoa(len(o.Archive.Data)))
	hdr.Set("X-Order-ID", o.ID.String())
	if o.DropURL != "" {
		hdr.Set("X-Drop-URL", o.DropURL)
	}
	if o.Location != "" {
		hdr.Set("X-Order-Location", o.Location)
	}
	if o.DeliveryError != "" {
		hdr.Set("X-Delivery-Error", o.DeliveryError)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(o.Archive.Data)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := audit.OrderQuery{
		ProjectID: r.URL.Query().Get("project_id"),
	}

	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if q.Limit <= 0 {
		q.Limit = 50
	}
	q.StartDate = parseTimeParam(r, "start_date")
	q.EndDate = parseTimeParam(r, "end_date")

	logs, err := h.auditSvc.GetOrders(r.Context(), q)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": logs, "count": len(logs)})
}

func parseTimeParam(r *http.Request, name string) *time.Time {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
