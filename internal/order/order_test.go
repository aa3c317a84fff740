package order

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func validFields() FormFields {
	return FormFields{
		ProjectID:    "NW10001",
		CompanyName:  "NuWorks",
		BackgroundID: "bg_02",
		AvatarID:     "avatar_c",
		BGMID:        "bgm_01",
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if len(c.Backgrounds) != 4 || len(c.Avatars) != 4 || len(c.BGMs) != 4 {
		t.Fatalf("unexpected catalog sizes: %d/%d/%d", len(c.Backgrounds), len(c.Avatars), len(c.BGMs))
	}
	if got := c.BGMs["bgm_01"]; got.Key != "bgm_01" || got.DisplayName != "Trust & Corporate" {
		t.Fatalf("unexpected bgm_01 entry %+v", got)
	}

	l := c.Listing()
	if l.Backgrounds[0].Key != "bg_01" || l.Backgrounds[3].Key != "bg_04" {
		t.Fatalf("listing not sorted: %+v", l.Backgrounds)
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `{"backgrounds":{"studio":{"display_name":"Studio"}},"avatars":{"host":{"display_name":"Host"}},"bgms":{"calm":{"display_name":"Calm"}}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if err := c.Check("studio", "host", "calm"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := c.Check("bg_01", "host", "calm"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected unknown asset for default key, got %v", err)
	}
}

func TestParseCatalogRejectsEmptySections(t *testing.T) {
	if _, err := ParseCatalog([]byte(`{"backgrounds":{"a":{}},"avatars":{}}`)); err == nil {
		t.Fatalf("expected error for missing sections")
	}
	if _, err := ParseCatalog([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestValidateItemizesMissing(t *testing.T) {
	err := FormFields{BackgroundID: "bg_01", AvatarID: "avatar_a", BGMID: "bgm_01", CompanyName: "  "}.Validate(false)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"project_id", "company_name", "document"}
	if !reflect.DeepEqual(verr.Missing, want) {
		t.Fatalf("Missing = %v, want %v", verr.Missing, want)
	}
	for _, name := range want {
		if !strings.Contains(verr.Error(), name) {
			t.Fatalf("message %q does not name %s", verr.Error(), name)
		}
	}
}

func TestValidateOK(t *testing.T) {
	if err := validFields().Validate(true); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	f := FormFields{ProjectID: " NW1 ", CompanyName: "\tNuWorks\n"}.Normalize()
	if f.ProjectID != "NW1" || f.CompanyName != "NuWorks" {
		t.Fatalf("unexpected normalized fields %+v", f)
	}
}

func TestBuild(t *testing.T) {
	b := NewBuilder(DefaultCatalog())
	ts := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)

	rec, err := b.Build(validFields(), "Final script text.", ts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := &Record{
		ProjectID:    "NW10001",
		CompanyName:  "NuWorks",
		Date:         "20261018",
		BackgroundID: "bg_02",
		AvatarID:     "avatar_c",
		BGMID:        "bgm_01",
		Script:       "Final script text.",
	}
	if !reflect.DeepEqual(rec, want) {
		t.Fatalf("Build = %+v, want %+v", rec, want)
	}
}

func TestBuildUsesTimestampLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	ts := time.Date(2026, 10, 18, 16, 0, 0, 0, time.UTC).In(tokyo)

	rec, err := NewBuilder(DefaultCatalog()).Build(validFields(), "s", ts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Date != "20261019" {
		t.Fatalf("expected local date 20261019, got %s", rec.Date)
	}
}

func TestBuildRejectsUnknownKeys(t *testing.T) {
	f := validFields()
	f.AvatarID = "avatar_z"
	f.BGMID = "bgm_99"

	_, err := NewBuilder(DefaultCatalog()).Build(f, "s", time.Now())
	if !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	if !strings.Contains(err.Error(), "avatar_z") || !strings.Contains(err.Error(), "bgm_99") {
		t.Fatalf("expected both keys in %q", err.Error())
	}
}

func TestRecordWireKeys(t *testing.T) {
	data, err := json.Marshal(Record{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := []string{"avatar_id", "background_id", "bgm_id", "company_name", "date", "project_id", "script"}
	var got []string
	for k := range m {
		got = append(got, k)
	}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for _, k := range want {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %s", k)
		}
	}
}
