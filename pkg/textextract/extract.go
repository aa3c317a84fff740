package textextract

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Kind is the document family a file is parsed as.
type Kind string

const (
	KindPDF       Kind = "pdf"
	KindSlideDeck Kind = "slide-deck"
)

const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
)

var ErrUnsupportedType = errors.New("unsupported file type")

type ExtractedText struct {
	Content  string
	Pages    int
	Status   string
	Metadata map[string]string
}

// Empty reports whether no usable text was found.
func (e *ExtractedText) Empty() bool {
	return e == nil || e.Status == StatusEmpty
}

// KindFromFilename infers the kind from the filename suffix only.
func KindFromFilename(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".pptx":
		return KindSlideDeck, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, name)
	}
}

func SupportedTypes() []string {
	return []string{".pdf", ".pptx"}
}

func Extract(data io.ReaderAt, size int64, kind Kind) (*ExtractedText, error) {
	switch kind {
	case KindPDF:
		return extractPDF(data, size)
	case KindSlideDeck:
		return extractPPTX(data, size)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
}

// Empty returns the result used when a document yields no text.
func Empty(kind Kind) *ExtractedText {
	return &ExtractedText{
		Status:   StatusEmpty,
		Metadata: map[string]string{"type": string(kind)},
	}
}

func finish(text string, pages int, kind Kind) *ExtractedText {
	if strings.TrimSpace(text) == "" {
		out := Empty(kind)
		out.Pages = pages
		return out
	}
	return &ExtractedText{
		Content: text,
		Pages:   pages,
		Status:  StatusOK,
		Metadata: map[string]string{
			"type": string(kind),
		},
	}
}

// extractPDF joins page texts with a single newline between pages.
func extractPDF(data io.ReaderAt, size int64) (result *ExtractedText, err error) {
	// the pdf package panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}

	return finish(strings.Join(pages, "\n"), numPages, KindPDF), nil
}
