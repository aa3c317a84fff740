package document

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/nuworks/agentia/pkg/textextract"
)

type TextExtractor interface {
	Extract(ctx context.Context, asset *Asset) *textextract.ExtractedText
	SupportedTypes() []string
}

type extractor struct{}

func NewTextExtractor() TextExtractor {
	return &extractor{}
}

// Extract never fails: parse errors are logged and reported as an empty
// result so the script step can tell the operator the document is unreadable.
func (e *extractor) Extract(ctx context.Context, asset *Asset) *textextract.ExtractedText {
	if asset == nil {
		return textextract.Empty("")
	}

	result, err := textextract.Extract(bytes.NewReader(asset.Data), int64(len(asset.Data)), asset.Kind)
	if err != nil {
		slog.WarnContext(ctx, "document text extraction failed",
			"filename", asset.Filename,
			"kind", asset.Kind,
			"error", err,
		)
		return textextract.Empty(asset.Kind)
	}

	slog.DebugContext(ctx, "document text extracted",
		"filename", asset.Filename,
		"pages", result.Pages,
		"status", result.Status,
		"chars", len([]rune(result.Content)),
	)
	return result
}

func (e *extractor) SupportedTypes() []string {
	return textextract.SupportedTypes()
}
