package order

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

//go:embed catalog.json
var defaultCatalogJSON []byte

var ErrUnknownAsset = errors.New("unknown catalog key")

type Visual struct {
	Key           string `json:"key"`
	DisplayName   string `json:"display_name"`
	ImageLocation string `json:"image_location"`
}

type Track struct {
	Key           string `json:"key"`
	DisplayName   string `json:"display_name"`
	Description   string `json:"description"`
	AudioLocation string `json:"audio_location"`
}

// Catalog holds the fixed background, avatar and BGM options an order may
// reference.
type Catalog struct {
	Backgrounds map[string]Visual `json:"backgrounds"`
	Avatars     map[string]Visual `json:"avatars"`
	BGMs        map[string]Track  `json:"bgms"`
}

func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file, or returns the embedded one when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Backgrounds) == 0 || len(c.Avatars) == 0 || len(c.BGMs) == 0 {
		return nil, fmt.Errorf("parse catalog: backgrounds, avatars and bgms must each have at least one entry")
	}
	for k, v := range c.Backgrounds {
		v.Key = k
		c.Backgrounds[k] = v
	}
	for k, v := range c.Avatars {
		v.Key = k
		c.Avatars[k] = v
	}
	for k, v := range c.BGMs {
		v.Key = k
		c.BGMs[k] = v
	}
	return &c, nil
}

// Check returns an ErrUnknownAsset error for each selection missing from
// the catalog.
func (c *Catalog) Check(backgroundID, avatarID, bgmID string) error {
	var errs []error
	if _, ok := c.Backgrounds[backgroundID]; !ok {
		errs = append(errs, fmt.Errorf("%w: background_id %q", ErrUnknownAsset, backgroundID))
	}
	if _, ok := c.Avatars[avatarID]; !ok {
		errs = append(errs, fmt.Errorf("%w: avatar_id %q", ErrUnknownAsset, avatarID))
	}
	if _, ok := c.BGMs[bgmID]; !ok {
		errs = append(errs, fmt.Errorf("%w: bgm_id %q", ErrUnknownAsset, bgmID))
	}
	return errors.Join(errs...)
}

// Listing is the catalog with entries sorted by key.
type Listing struct {
	Backgrounds []Visual `json:"backgrounds"`
	Avatars     []Visual `json:"avatars"`
	BGMs        []Track  `json:"bgms"`
}

func (c *Catalog) Listing() Listing {
	return Listing{
		Backgrounds: sortedVisuals(c.Backgrounds),
		Avatars:     sortedVisuals(c.Avatars),
		BGMs:        sortedTracks(c.BGMs),
	}
}

func sortedVisuals(m map[string]Visual) []Visual {
	out := make([]Visual, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sortedTracks(m map[string]Track) []Track {
	out := make([]Track, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
