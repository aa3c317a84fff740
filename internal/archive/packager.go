package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/nuworks/agentia/internal/document"
	"github.com/nuworks/agentia/internal/order"
)

const (
	RecordEntry     = "order.json"
	logoBase        = "logo"
	defaultLogoExt  = "png"
	ContentType     = "application/zip"
	documentPrefix  = "document_"
	fallbackDocName = "document"
)

// Archive is a finished order package held in memory.
type Archive struct {
	Filename  string
	Data      []byte
	Entries   []string
	CreatedAt time.Time
}

type Packager struct {
	level int
	now   func() time.Time
}

func NewPackager() *Packager {
	return &Packager{level: flate.BestCompression, now: time.Now}
}

// MarshalRecord renders order.json: indented, UTF-8, no HTML or non-ASCII
// escaping. Equal records give equal bytes.
func MarshalRecord(rec *order.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode order record: %w", err)
	}
	return buf.Bytes(), nil
}

// Package writes order.json plus the optional logo and source document.
// On any error no archive is returned.
func (p *Packager) Package(rec *order.Record, logo, doc *document.Asset) (*Archive, error) {
	if rec == nil {
		return nil, fmt.Errorf("package order: nil record")
	}

	recordJSON, err := MarshalRecord(rec)
	if err != nil {
		return nil, err
	}

	created := p.now()
	modified := entryTime(rec, created)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, p.level)
	})

	var entries []string
	add := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		entries = append(entries, name)
		return nil
	}

	if err := add(RecordEntry, recordJSON); err != nil {
		return nil, err
	}

	logoName := ""
	if logo != nil {
		logoName = LogoEntryName(logo)
		if err := add(logoName, logo.Data); err != nil {
			return nil, err
		}
	}

	if doc != nil {
		if err := add(DocumentEntryName(doc, logoName), doc.Data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	return &Archive{
		Filename:  Filename(rec),
		Data:      buf.Bytes(),
		Entries:   entries,
		CreatedAt: created,
	}, nil
}

// LogoEntryName keeps the uploaded extension so the consumer can tell the
// image format from the name alone.
func LogoEntryName(logo *document.Asset) string {
	ext := logo.Ext()
	if ext == "" {
		ext = defaultLogoExt
	}
	return logoBase + "." + ext
}

// DocumentEntryName is the original base filename, prefixed only when it
// would collide with order.json or the logo entry.
func DocumentEntryName(doc *document.Asset, logoName string) string {
	name := doc.BaseName()
	if name == "" || name == "." || name == "/" {
		return fallbackDocName
	}
	if strings.EqualFold(name, RecordEntry) || (logoName != "" && strings.EqualFold(name, logoName)) {
		return documentPrefix + name
	}
	return name
}

// entryTime is the record date at midnight UTC, so the same record always
// packages to the same bytes.
func entryTime(rec *order.Record, fallback time.Time) time.Time {
	t, err := time.ParseInLocation(order.DateLayout, rec.Date, time.UTC)
	if err != nil {
		return fallback.UTC().Truncate(time.Second)
	}
	return t
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// Filename is the download name: <project_id>_<company_name>_Order.zip.
func Filename(rec *order.Record) string {
	return filenameReplacer.Replace(fmt.Sprintf("%s_%s_Order.zip", rec.ProjectID, rec.CompanyName))
}
