package script

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nuworks/agentia/internal/config"
	"github.com/nuworks/agentia/internal/llm"
)

type fakeBackend struct {
	t        *testing.T
	forbid   bool
	err      error
	panicMsg string
	content  string
	requests []llm.ChatRequest
}

func (f *fakeBackend) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if f.forbid {
		f.t.Fatalf("backend must not be called")
	}
	f.requests = append(f.requests, req)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Provider: "fake", Model: "fake-1", Content: f.content, OutputTokens: 7}, nil
}

func testConfig(max int) config.ScriptConfig {
	return config.ScriptConfig{MinInputChars: 10, MaxInputChars: max}
}

func materialOf(t *testing.T, req llm.ChatRequest) string {
	t.Helper()
	if len(req.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(req.Messages))
	}
	user := req.Messages[1].Content
	const marker = "Company material:\n"
	i := strings.Index(user, marker)
	if i < 0 {
		t.Fatalf("user message missing material section: %q", user)
	}
	return user[i+len(marker):]
}

func TestGenerateShortTextSkipsBackend(t *testing.T) {
	backend := &fakeBackend{t: t, forbid: true}
	gen := NewGenerator(backend, testConfig(100))

	for _, text := range []string{"", "   \n\t", "too short", "短いテキストです"} {
		res := gen.Generate(context.Background(), text, DefaultStyle())
		if res.Status != StatusUnreadable {
			t.Fatalf("%q: expected unreadable, got %q", text, res.Status)
		}
		if res.Script != "" || !strings.Contains(res.Error, "document unreadable") {
			t.Fatalf("%q: unexpected result %+v", text, res)
		}
	}
}

func TestGenerateMinimumLengthIsInclusive(t *testing.T) {
	backend := &fakeBackend{t: t, content: "script"}
	gen := NewGenerator(backend, testConfig(100))

	res := gen.Generate(context.Background(), "0123456789", DefaultStyle())
	if !res.OK() {
		t.Fatalf("expected ok at exactly the minimum, got %+v", res)
	}
}

func TestGenerateTruncatesBeforeSending(t *testing.T) {
	backend := &fakeBackend{t: t, content: "script"}
	gen := NewGenerator(backend, testConfig(50))

	text := strings.Repeat("会社概要テキスト", 40)
	res := gen.Generate(context.Background(), text, DefaultStyle())
	if !res.OK() {
		t.Fatalf("expected ok, got %+v", res)
	}
	if !res.Truncated || res.InputChars != 50 {
		t.Fatalf("expected truncation to 50 chars, got %+v", res)
	}

	material := materialOf(t, backend.requests[0])
	if got := utf8.RuneCountInString(material); got != 50 {
		t.Fatalf("expected 50 code points sent, got %d", got)
	}
	if !strings.HasPrefix(text, material) {
		t.Fatalf("sent text is not a prefix of the document")
	}
}

func TestGenerateKeepsShortDocumentWhole(t *testing.T) {
	backend := &fakeBackend{t: t, content: "script"}
	gen := NewGenerator(backend, testConfig(15000))

	text := "NuWorks builds AI video tools for sales teams."
	res := gen.Generate(context.Background(), text, DefaultStyle())
	if res.Truncated {
		t.Fatalf("did not expect truncation")
	}
	if material := materialOf(t, backend.requests[0]); material != text {
		t.Fatalf("material changed: %q", material)
	}
}

func TestGenerateReturnsContentVerbatim(t *testing.T) {
	content := "  Final narration.\n\nWith trailing space.  "
	backend := &fakeBackend{t: t, content: content}
	gen := NewGenerator(backend, testConfig(100))

	res := gen.Generate(context.Background(), "A long enough company description.", DefaultStyle())
	if res.Script != content {
		t.Fatalf("script was modified: %q", res.Script)
	}
	if res.Error != "" {
		t.Fatalf("ok result must not carry an error: %q", res.Error)
	}
	if res.Provider != "fake" || res.Model != "fake-1" || res.OutputTokens != 7 {
		t.Fatalf("missing backend metadata: %+v", res)
	}
}

func TestGenerateServiceError(t *testing.T) {
	backend := &fakeBackend{t: t, err: errors.New("dial tcp: connection refused")}
	gen := NewGenerator(backend, testConfig(100))

	res := gen.Generate(context.Background(), "A long enough company description.", DefaultStyle())
	if res.Status != StatusServiceError {
		t.Fatalf("expected service error, got %q", res.Status)
	}
	if res.Script != "" {
		t.Fatalf("error result must not carry a script")
	}
	if !strings.Contains(res.Error, "connection refused") || !strings.Contains(res.Error, "generation service error") {
		t.Fatalf("expected diagnostic in error, got %q", res.Error)
	}
}

func TestGenerateServiceErrorNamesProvider(t *testing.T) {
	backend := &fakeBackend{t: t, err: &llm.ProviderError{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		Err:      errors.New("401 unauthorized"),
	}}
	gen := NewGenerator(backend, testConfig(100))

	res := gen.Generate(context.Background(), "A long enough company description.", DefaultStyle())
	if res.Provider != "openai" || res.Model != "gpt-4o-mini" {
		t.Fatalf("expected failed call's provider and model, got %q/%q", res.Provider, res.Model)
	}

	pinned := NewGenerator(&fakeBackend{t: t, err: errors.New("boom")}, testConfig(100)).WithModel("anthropic", "claude-sonnet-4-20250514")
	res = pinned.Generate(context.Background(), "A long enough company description.", DefaultStyle())
	if res.Provider != "anthropic" || res.Model != "claude-sonnet-4-20250514" {
		t.Fatalf("expected requested provider and model, got %q/%q", res.Provider, res.Model)
	}
}

func TestGenerateRecoversBackendPanic(t *testing.T) {
	backend := &fakeBackend{t: t, panicMsg: "nil map write"}
	gen := NewGenerator(backend, testConfig(100))

	res := gen.Generate(context.Background(), "A long enough company description.", DefaultStyle())
	if res.Status != StatusServiceError || !strings.Contains(res.Error, "nil map write") {
		t.Fatalf("expected recovered service error, got %+v", res)
	}
}

func TestBuildRequestPrompt(t *testing.T) {
	gen := NewGenerator(&fakeBackend{t: t}, testConfig(100)).WithModel("anthropic", "claude-sonnet-4-20250514")

	req, truncated, err := gen.BuildRequest("Company text here.", Style{DurationSeconds: 90, TargetChars: 900, Language: "English"})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if truncated {
		t.Fatalf("unexpected truncation")
	}
	if req.Provider != "anthropic" || req.Model != "claude-sonnet-4-20250514" {
		t.Fatalf("model pin not applied: %+v", req)
	}
	if req.Messages[0].Role != llm.RoleSystem || !strings.Contains(req.Messages[0].Content, "narration scriptwriter") {
		t.Fatalf("unexpected system message %+v", req.Messages[0])
	}
	user := req.Messages[1].Content
	for _, want := range []string{
		"1 minute 30 seconds",
		"900 characters",
		"hook → problem → solution → credibility → close",
		"generic greeting",
		"in English",
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in        string
		max       int
		want      string
		truncated bool
	}{
		{"abcdef", 3, "abc", true},
		{"abc", 3, "abc", false},
		{"日本語テキスト", 3, "日本語", true},
		{"abc", 0, "abc", false},
	}
	for _, tt := range tests {
		got, truncated := Truncate(tt.in, tt.max)
		if got != tt.want || truncated != tt.truncated {
			t.Fatalf("Truncate(%q, %d) = %q, %v", tt.in, tt.max, got, truncated)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{
		120: "2 minutes",
		60:  "1 minute",
		90:  "1 minute 30 seconds",
		45:  "45 seconds",
		61:  "1 minute 1 second",
	}
	for in, want := range tests {
		if got := formatDuration(in); got != want {
			t.Fatalf("formatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestStyleFromConfig(t *testing.T) {
	s := StyleFromConfig(config.ScriptConfig{TargetChars: 800, Language: "English"})
	if s.TargetChars != 800 || s.Language != "English" || s.DurationSeconds != 120 {
		t.Fatalf("unexpected style %+v", s)
	}
	if len(s.Structure) != 5 {
		t.Fatalf("expected default structure, got %v", s.Structure)
	}
}
