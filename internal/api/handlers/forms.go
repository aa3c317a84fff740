package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nuworks/agentia/internal/document"
	"github.com/nuworks/agentia/internal/order"
	"github.com/nuworks/agentia/pkg/textextract"
)

// multipartMemory is how much of a form is held in memory before spilling
// file parts to disk.
const multipartMemory = 8 << 20

var errFormTooLarge = errors.New("upload too large")

func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errFormTooLarge
		}
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	return nil
}

func formFields(r *http.Request) order.FormFields {
	return order.FormFields{
		ProjectID:    r.FormValue("project_id"),
		CompanyName:  r.FormValue("company_name"),
		BackgroundID: r.FormValue("background_id"),
		AvatarID:     r.FormValue("avatar_id"),
		BGMID:        r.FormValue("bgm_id"),
	}
}

// formFile reads an optional file part. A missing part returns (nil, "", nil).
func formFile(r *http.Request, field string, maxBytes int64) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	data, err := document.ReadAsset(header.Filename, file, maxBytes)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// formDocument returns nil when no document was uploaded so validation can
// report it alongside the other missing fields.
func formDocument(r *http.Request, maxBytes int64) (*document.Asset, error) {
	data, name, err := formFile(r, "document", maxBytes)
	if err != nil || name == "" {
		return nil, err
	}
	return document.NewDocument(name, data)
}

func formLogo(r *http.Request, maxBytes int64) (*document.Asset, error) {
	data, name, err := formFile(r, "logo", maxBytes)
	if err != nil || name == "" {
		return nil, err
	}
	return document.NewImage(name, data), nil
}

// writeSubmissionError maps pipeline input errors to responses. It reports
// false for errors that are not caused by the submission.
func writeSubmissionError(w http.ResponseWriter, err error) bool {
	var ve *order.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "required fields missing",
			"missing": ve.Missing,
		})
	case errors.Is(err, order.ErrUnknownAsset):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, textextract.ErrUnsupportedType):
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]interface{}{
			"error":     err.Error(),
			"supported": textextract.SupportedTypes(),
		})
	case errors.Is(err, errFormTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
	default:
		return false
	}
	return true
}
