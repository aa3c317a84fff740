package order

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO 8601 basic date format written to order.json.
const DateLayout = "20060102"

// Record is the order.json payload consumed by the video-production tool.
// Field names are a wire contract.
type Record struct {
	ProjectID    string `json:"project_id"`
	CompanyName  string `json:"company_name"`
	Date         string `json:"date"`
	BackgroundID string `json:"background_id"`
	AvatarID     string `json:"avatar_id"`
	BGMID        string `json:"bgm_id"`
	Script       string `json:"script"`
}

// FormFields are the scalar values collected from the operator.
type FormFields struct {
	ProjectID    string `json:"project_id"`
	CompanyName  string `json:"company_name"`
	BackgroundID string `json:"background_id"`
	AvatarID     string `json:"avatar_id"`
	BGMID        string `json:"bgm_id"`
}

// Normalize trims surrounding whitespace from every field.
func (f FormFields) Normalize() FormFields {
	return FormFields{
		ProjectID:    strings.TrimSpace(f.ProjectID),
		CompanyName:  strings.TrimSpace(f.CompanyName),
		BackgroundID: strings.TrimSpace(f.BackgroundID),
		AvatarID:     strings.TrimSpace(f.AvatarID),
		BGMID:        strings.TrimSpace(f.BGMID),
	}
}

// ValidationError lists every required input that was not supplied.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required fields missing: %s", strings.Join(e.Missing, ", "))
}

// Validate checks that every required input is present before any work
// starts. hasDocument reports whether a source document was uploaded.
func (f FormFields) Validate(hasDocument bool) error {
	var missing []string
	if strings.TrimSpace(f.ProjectID) == "" {
		missing = append(missing, "project_id")
	}
	if strings.TrimSpace(f.CompanyName) == "" {
		missing = append(missing, "company_name")
	}
	if strings.TrimSpace(f.BackgroundID) == "" {
		missing = append(missing, "background_id")
	}
	if strings.TrimSpace(f.AvatarID) == "" {
		missing = append(missing, "avatar_id")
	}
	if strings.TrimSpace(f.BGMID) == "" {
		missing = append(missing, "bgm_id")
	}
	if !hasDocument {
		missing = append(missing, "document")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

type Builder struct {
	catalog *Catalog
}

func NewBuilder(catalog *Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// Build assembles the record. Callers validate required fields first; Build
// only rejects selections that are not in the catalog.
func (b *Builder) Build(fields FormFields, script string, ts time.Time) (*Record, error) {
	if err := b.Check(fields); err != nil {
		return nil, err
	}
	return &Record{
		ProjectID:    fields.ProjectID,
		CompanyName:  fields.CompanyName,
		Date:         ts.Format(DateLayout),
		BackgroundID: fields.BackgroundID,
		AvatarID:     fields.AvatarID,
		BGMID:        fields.BGMID,
		Script:       script,
	}, nil
}

// Check rejects selections that are not in the catalog without building a
// record, so a submission can fail before any extraction work.
func (b *Builder) Check(fields FormFields) error {
	return b.catalog.Check(fields.BackgroundID, fields.AvatarID, fields.BGMID)
}

func (b *Builder) Catalog() *Catalog { return b.catalog }
