package textextract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
	relNS     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX writes the text of every top-level shape, slide by slide,
// each followed by a newline.
func extractPPTX(data io.ReaderAt, size int64) (*ExtractedText, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PPTX: %w", err)
	}

	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}

	slides := slideOrder(files)

	var buf strings.Builder
	for _, name := range slides {
		f, ok := files[name]
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		err = slideText(rc, &buf)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	return finish(buf.String(), len(slides), KindSlideDeck), nil
}

// slideOrder follows the presentation's slide list, falling back to the
// numeric order of slide part names when the list cannot be read.
func slideOrder(files map[string]*zip.File) []string {
	if ordered, err := presentationOrder(files); err == nil && len(ordered) > 0 {
		return ordered
	}

	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for name := range files {
		m := slidePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{name: name, n: n})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names
}

type presentationXML struct {
	SlideIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func presentationOrder(files map[string]*zip.File) ([]string, error) {
	var pres presentationXML
	if err := decodePart(files, "ppt/presentation.xml", &pres); err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := decodePart(files, "ppt/_rels/presentation.xml.rels", &rels); err != nil {
		return nil, err
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		target := r.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("ppt", target)
		}
		targets[r.ID] = target
	}

	names := make([]string, 0, len(pres.SlideIDs))
	for _, s := range pres.SlideIDs {
		if t, ok := targets[s.RelID]; ok {
			names = append(names, t)
		}
	}
	return names, nil
}

func decodePart(files map[string]*zip.File, name string, v any) error {
	f, ok := files[name]
	if !ok {
		return fmt.Errorf("missing part %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// slideText streams one slide part. Only shapes that sit directly in the
// slide's shape tree are read; grouped shapes, pictures and tables are not.
func slideText(r io.Reader, buf *strings.Builder) error {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		inShape    bool
		shapeDepth int
		inPara     bool
		inText     bool
		paras      []string
		cur        strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, t.Name.Local)

			switch {
			case !inShape && t.Name.Local == "sp" && parent == "spTree":
				inShape = true
				shapeDepth = len(stack)
				paras = paras[:0]
			case inShape && t.Name.Local == "p" && t.Name.Space == drawingNS:
				inPara = true
				cur.Reset()
			case inPara && t.Name.Local == "t":
				inText = true
			case inPara && t.Name.Local == "br":
				cur.WriteString("\n")
			}

		case xml.EndElement:
			switch {
			case inText && t.Name.Local == "t":
				inText = false
			case inPara && t.Name.Local == "p":
				paras = append(paras, cur.String())
				inPara = false
			case inShape && t.Name.Local == "sp" && len(stack) == shapeDepth:
				buf.WriteString(strings.Join(paras, "\n"))
				buf.WriteString("\n")
				inShape = false
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
}
