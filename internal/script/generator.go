package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/nuworks/agentia/internal/config"
	"github.com/nuworks/agentia/internal/llm"
	"github.com/nuworks/agentia/internal/prompt"
	"github.com/nuworks/agentia/pkg/tokenizer"
)

type Status string

const (
	StatusOK           Status = "ok"
	StatusUnreadable   Status = "unreadable"
	StatusServiceError Status = "service_error"
)

const (
	unreadableMessage = "document unreadable: no usable text could be extracted, upload a document with a text layer"
	serviceErrorLabel = "generation service error"
)

// Backend is the text-generation capability the generator depends on.
// llm.Gateway satisfies it.
type Backend interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

const systemInstruction = "You are a professional narration scriptwriter. You write voice-over scripts for corporate introduction videos that are read aloud by an announcer."

var userTemplate = prompt.New("narration", `Using the company material below, write a narration script that conveys what makes this company attractive.

Requirements:
- Spoken length of about {{duration}} (roughly {{target_chars}} characters).
- Written to be read aloud by a professional announcer.
- Build it as a sales video following this structure: {{structure}}.
- {{tone}}
- Write the script in {{language}}.
- Return only the narration text.

Company material:
{{text}}`)

// Result is either a script or an error message, never both.
type Result struct {
	Status       Status  `json:"status"`
	Script       string  `json:"script,omitempty"`
	Error        string  `json:"error,omitempty"`
	Provider     string  `json:"provider,omitempty"`
	Model        string  `json:"model,omitempty"`
	InputChars   int     `json:"input_chars"`
	Truncated    bool    `json:"truncated"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
	LatencyMs    int64   `json:"latency_ms,omitempty"`
}

func (r Result) OK() bool { return r.Status == StatusOK }

type Generator struct {
	backend  Backend
	minChars int
	maxChars int
	provider string
	model    string
}

func NewGenerator(backend Backend, cfg config.ScriptConfig) *Generator {
	return &Generator{
		backend:  backend,
		minChars: cfg.MinInputChars,
		maxChars: cfg.MaxInputChars,
	}
}

// WithModel returns a copy that pins the provider and model. Empty values
// leave the gateway defaults in place.
func (g *Generator) WithModel(provider, model string) *Generator {
	c := *g
	c.provider = provider
	c.model = model
	return &c
}

// Generate never returns a Go error: unreadable input and backend failures
// are both reported through Result.Status.
func (g *Generator) Generate(ctx context.Context, text string, style Style) (res Result) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || utf8.RuneCountInString(trimmed) < g.minChars {
		slog.InfoContext(ctx, "script generation skipped, document text too short",
			"chars", utf8.RuneCountInString(text),
			"min", g.minChars,
		)
		return Result{Status: StatusUnreadable, Error: unreadableMessage}
	}

	req, truncated, err := g.BuildRequest(text, style)
	if err != nil {
		return Result{Status: StatusServiceError, Error: fmt.Sprintf("%s: %v", serviceErrorLabel, err)}
	}
	inputChars := utf8.RuneCountInString(text)
	if truncated {
		inputChars = g.maxChars
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "generation backend panicked", "panic", r)
			res = Result{
				Status:     StatusServiceError,
				Error:      fmt.Sprintf("%s: %v", serviceErrorLabel, r),
				Provider:   req.Provider,
				Model:      req.Model,
				InputChars: inputChars,
				Truncated:  truncated,
			}
		}
	}()

	slog.DebugContext(ctx, "requesting script",
		"input_chars", inputChars,
		"truncated", truncated,
		"estimated_tokens", tokenizer.CountTokens(req.Messages[len(req.Messages)-1].Content),
	)

	resp, err := g.backend.Chat(ctx, req)
	if err != nil {
		provider, model := req.Provider, req.Model
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			provider, model = pe.Provider, pe.Model
		}
		slog.WarnContext(ctx, "script generation failed", "provider", provider, "model", model, "error", err)
		return Result{
			Status:     StatusServiceError,
			Error:      fmt.Sprintf("%s: %v", serviceErrorLabel, err),
			Provider:   provider,
			Model:      model,
			InputChars: inputChars,
			Truncated:  truncated,
		}
	}

	slog.InfoContext(ctx, "script generated",
		"provider", resp.Provider,
		"model", resp.Model,
		"input_chars", inputChars,
		"truncated", truncated,
		"output_tokens", resp.OutputTokens,
		"cost_usd", resp.CostUSD,
		"latency_ms", resp.LatencyMs,
	)

	return Result{
		Status:       StatusOK,
		Script:       resp.Content,
		Provider:     resp.Provider,
		Model:        resp.Model,
		InputChars:   inputChars,
		Truncated:    truncated,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
		LatencyMs:    resp.LatencyMs,
	}
}

// BuildRequest truncates text to the configured cap and renders the chat
// messages. It reports whether truncation happened.
func (g *Generator) BuildRequest(text string, style Style) (llm.ChatRequest, bool, error) {
	body, truncated := Truncate(text, g.maxChars)

	vars := style.withDefaults().vars()
	vars["text"] = body
	user, err := userTemplate.Render(vars)
	if err != nil {
		return llm.ChatRequest{}, truncated, err
	}

	return llm.ChatRequest{
		Provider: g.provider,
		Model:    g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemInstruction},
			{Role: llm.RoleUser, Content: user},
		},
	}, truncated, nil
}

// Truncate keeps the first max code points of text.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i], true
		}
		n++
	}
	return text, false
}
