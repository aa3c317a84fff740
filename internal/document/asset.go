package document

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nuworks/agentia/pkg/textextract"
)

// Asset is an uploaded file held in memory for one submission.
type Asset struct {
	Filename string
	Kind     textextract.Kind
	Data     []byte
}

// NewDocument builds a document asset, inferring its kind from the filename.
func NewDocument(filename string, data []byte) (*Asset, error) {
	kind, err := textextract.KindFromFilename(filename)
	if err != nil {
		return nil, err
	}
	return &Asset{Filename: filename, Kind: kind, Data: data}, nil
}

// NewImage builds a logo asset. Images carry no document kind.
func NewImage(filename string, data []byte) *Asset {
	return &Asset{Filename: filename, Data: data}
}

// ReadAsset drains an upload into memory, rejecting inputs over maxBytes.
func ReadAsset(filename string, r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", filename, maxBytes)
	}
	return data, nil
}

// Ext returns the lower-cased extension without the dot.
func (a *Asset) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(a.Filename)), ".")
}

// BaseName strips any directory components a client may have sent.
func (a *Asset) BaseName() string {
	name := strings.ReplaceAll(a.Filename, `\`, "/")
	return filepath.Base(name)
}
