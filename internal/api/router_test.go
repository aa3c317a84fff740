package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/nuworks/agentia/internal/archive"
	"github.com/nuworks/agentia/internal/config"
	"github.com/nuworks/agentia/internal/document"
	"github.com/nuworks/agentia/internal/llm"
	"github.com/nuworks/agentia/internal/order"
	"github.com/nuworks/agentia/internal/pipeline"
	"github.com/nuworks/agentia/internal/script"
	"github.com/nuworks/agentia/internal/testfixture"
)

type fakeGateway struct {
	calls int
}

func (f *fakeGateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.calls++
	return &llm.ChatResponse{Provider: "fake", Model: "fake-1", Content: "Generated narration."}, nil
}

func (f *fakeGateway) Provider(name string) (llm.Provider, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGateway) ListModels() []llm.ModelInfo {
	return []llm.ModelInfo{{Provider: "fake", Model: "fake-1", Default: true}}
}

func newTestServer(t *testing.T, operatorKey string) (*httptest.Server, *fakeGateway) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{MaxUploadMB: 4, RateLimitRPS: 100, CORSOrigins: []string{"*"}},
		Auth:   config.AuthConfig{OperatorKey: operatorKey, APIKeyHeader: "X-API-Key"},
		Script: config.ScriptConfig{MinInputChars: 10, MaxInputChars: 15000},
	}
	gw := &fakeGateway{}
	svc := pipeline.NewService(
		document.NewTextExtractor(),
		script.NewGenerator(gw, cfg.Script),
		order.NewBuilder(order.DefaultCatalog()),
		archive.NewPackager(),
		pipeline.Options{DropURL: "https://drop.example.com/upload"},
	)
	rt := NewRouter(cfg, Deps{Pipeline: svc, Gateway: gw})
	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(func() {
		srv.Close()
		rt.Close()
	})
	return srv, gw
}

type upload struct {
	field, filename string
	data            []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		fw.Write(f.data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func scenarioForm() map[string]string {
	return map[string]string{
		"project_id":    "NW10001",
		"company_name":  "NuWorks",
		"background_id": "bg_02",
		"avatar_id":     "avatar_c",
		"bgm_id":        "bgm_01",
	}
}

func post(t *testing.T, url string, body *bytes.Buffer, contentType string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, "")

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status %d", path, resp.StatusCode)
		}
	}
}

func TestCatalogAndModels(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/v1/catalog")
	if err != nil {
		t.Fatalf("GET catalog: %v", err)
	}
	defer resp.Body.Close()
	var listing order.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(listing.Backgrounds) != 4 || len(listing.Avatars) != 4 || len(listing.BGMs) != 4 {
		t.Fatalf("unexpected catalog sizes %d/%d/%d", len(listing.Backgrounds), len(listing.Avatars), len(listing.BGMs))
	}

	resp, err = http.Get(srv.URL + "/api/v1/llm/models")
	if err != nil {
		t.Fatalf("GET models: %v", err)
	}
	defer resp.Body.Close()
	var models struct {
		Models []llm.ModelInfo `json:"models"`
	}
	json.NewDecoder(resp.Body).Decode(&models)
	if len(models.Models) != 1 || !models.Models[0].Default {
		t.Fatalf("unexpected models %+v", models.Models)
	}
}

func TestScriptsMissingFields(t *testing.T) {
	srv, gw := newTestServer(t, "")

	body, ct := multipartBody(t, map[string]string{"project_id": "NW10001", "background_id": "bg_01"})
	resp := post(t, srv.URL+"/api/v1/scripts", body, ct, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", resp.StatusCode)
	}
	var out struct {
		Missing []string `json:"missing"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	want := []string{"company_name", "avatar_id", "bgm_id", "document"}
	if !reflect.DeepEqual(out.Missing, want) {
		t.Fatalf("missing = %v, want %v", out.Missing, want)
	}
	if gw.calls != 0 {
		t.Fatalf("backend called for invalid submission")
	}
}

func TestScriptsGenerates(t *testing.T) {
	srv, gw := newTestServer(t, "")

	body, ct := multipartBody(t, scenarioForm(), upload{"document", "profile.pdf", testfixture.PDF("NuWorks builds logistics software.")})
	resp := post(t, srv.URL+"/api/v1/scripts", body, ct, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out struct {
		Status         string `json:"status"`
		Script         string `json:"script"`
		ExtractedChars int    `json:"extracted_chars"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Status != "ok" || out.Script != "Generated narration." || out.ExtractedChars == 0 {
		t.Fatalf("unexpected response %+v", out)
	}
	if gw.calls != 1 {
		t.Fatalf("expected one backend call, got %d", gw.calls)
	}
}

func TestScriptsUnreadableDocument(t *testing.T) {
	srv, gw := newTestServer(t, "")

	body, ct := multipartBody(t, scenarioForm(), upload{"document", "scan.pdf", testfixture.PDF("")})
	resp := post(t, srv.URL+"/api/v1/scripts", body, ct, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Status != "unreadable" || out.Error == "" {
		t.Fatalf("unexpected response %+v", out)
	}
	if gw.calls != 0 {
		t.Fatalf("backend called for unreadable document")
	}
}

func TestScriptsUnsupportedDocument(t *testing.T) {
	srv, _ := newTestServer(t, "")

	body, ct := multipartBody(t, scenarioForm(), upload{"document", "profile.docx", []byte("docx")})
	resp := post(t, srv.URL+"/api/v1/scripts", body, ct, nil)
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status %d, want 415", resp.StatusCode)
	}
}

func TestOrdersReturnsArchive(t *testing.T) {
	srv, _ := newTestServer(t, "")

	form := scenarioForm()
	form["script"] = "Final script text."
	body, ct := multipartBody(t, form,
		upload{"document", "profile.pdf", testfixture.PDF("profile")},
		upload{"logo", "brand.PNG", []byte("png")},
	)
	resp := post(t, srv.URL+"/api/v1/orders", body, ct, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/zip" {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] != "NW10001_NuWorks_Order.zip" {
		t.Fatalf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}
	if resp.Header.Get("X-Order-ID") == "" || resp.Header.Get("X-Drop-URL") != "https://drop.example.com/upload" {
		t.Fatalf("order headers missing: %v", resp.Header)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if !reflect.DeepEqual(names, []string{"order.json", "logo.png", "profile.pdf"}) {
		t.Fatalf("unexpected entries %v", names)
	}
}

func TestOrdersUnknownAsset(t *testing.T) {
	srv, _ := newTestServer(t, "")

	form := scenarioForm()
	form["bgm_id"] = "bgm_99"
	form["script"] = "Final script text."
	body, ct := multipartBody(t, form, upload{"document", "profile.pdf", testfixture.PDF("profile")})
	resp := post(t, srv.URL+"/api/v1/orders", body, ct, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", resp.StatusCode)
	}
}

func TestOperatorKeyRequired(t *testing.T) {
	srv, _ := newTestServer(t, "s3cret")

	resp, err := http.Get(srv.URL + "/api/v1/catalog")
	if err != nil {
		t.Fatalf("GET catalog: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/catalog", nil)
	req.Header.Set("X-API-Key", "s3cret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET catalog: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d with key, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should not require a key, got %d", resp.StatusCode)
	}
}
