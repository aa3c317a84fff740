package textextract

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/nuworks/agentia/internal/testfixture"
)

func extractBytes(t *testing.T, data []byte, kind Kind) (*ExtractedText, error) {
	t.Helper()
	return Extract(bytes.NewReader(data), int64(len(data)), kind)
}

func TestKindFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"profile.pdf", KindPDF, false},
		{"PROFILE.PDF", KindPDF, false},
		{"deck.pptx", KindSlideDeck, false},
		{"deck.Pptx", KindSlideDeck, false},
		{"deck.ppt", "", true},
		{"notes.docx", "", true},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KindFromFilename(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Fatalf("expected ErrUnsupportedType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractPDFPagesInOrder(t *testing.T) {
	res, err := extractBytes(t, testfixture.PDF("Hello ", "World"), KindPDF)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Status != StatusOK {
		t.Fatalf("expected ok status, got %q", res.Status)
	}
	if res.Pages != 2 {
		t.Fatalf("expected 2 pages, got %d", res.Pages)
	}
	hello := strings.Index(res.Content, "Hello")
	world := strings.Index(res.Content, "World")
	if hello < 0 || world < 0 || hello > world {
		t.Fatalf("expected Hello before World, got %q", res.Content)
	}
	if !strings.Contains(res.Content, "\n") {
		t.Fatalf("expected newline page separator, got %q", res.Content)
	}
}

func TestExtractPDFWithoutText(t *testing.T) {
	res, err := extractBytes(t, testfixture.PDF(""), KindPDF)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !res.Empty() || res.Content != "" {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestExtractPDFCorrupt(t *testing.T) {
	if _, err := extractBytes(t, []byte("definitely not a pdf"), KindPDF); err == nil {
		t.Fatalf("expected error for corrupt PDF")
	}
}

func TestExtractPPTX(t *testing.T) {
	deck := testfixture.PPTX(
		testfixture.Slide{{"Title"}, {"line one", "line two"}},
		testfixture.Slide{{"Second slide"}},
	)
	res, err := extractBytes(t, deck, KindSlideDeck)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Title\nline one\nline two\nSecond slide\n"
	if res.Content != want {
		t.Fatalf("got %q, want %q", res.Content, want)
	}
	if res.Pages != 2 {
		t.Fatalf("expected 2 slides, got %d", res.Pages)
	}
	if strings.Contains(res.Content, "grouped") {
		t.Fatalf("grouped shape text leaked into %q", res.Content)
	}
}

func TestExtractPPTXWithoutText(t *testing.T) {
	deck := testfixture.PPTX(testfixture.Slide{}, testfixture.Slide{{""}})
	res, err := extractBytes(t, deck, KindSlideDeck)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !res.Empty() || res.Content != "" {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestExtractPPTXCorrupt(t *testing.T) {
	if _, err := extractBytes(t, []byte("PK not really"), KindSlideDeck); err == nil {
		t.Fatalf("expected error for corrupt PPTX")
	}
}

func TestSlideTextSkipsGroupsAndBreaks(t *testing.T) {
	xml := `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
<p:cSld><p:spTree>
<p:sp><p:txBody><a:p><a:r><a:t>A</a:t></a:r><a:br/><a:r><a:t>B</a:t></a:r></a:p></p:txBody></p:sp>
<p:pic><p:blipFill/></p:pic>
<p:sp><p:spPr/></p:sp>
<p:grpSp><p:sp><p:txBody><a:p><a:r><a:t>hidden</a:t></a:r></a:p></p:txBody></p:sp></p:grpSp>
</p:spTree></p:cSld></p:sld>`

	var buf strings.Builder
	if err := slideText(strings.NewReader(xml), &buf); err != nil {
		t.Fatalf("slideText: %v", err)
	}
	if got, want := buf.String(), "A\nB\n\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractUnsupportedKind(t *testing.T) {
	_, err := Extract(bytes.NewReader(nil), 0, Kind("doc"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}
