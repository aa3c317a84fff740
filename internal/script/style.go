package script

import (
	"fmt"
	"strings"

	"github.com/nuworks/agentia/internal/config"
)

// Style describes the narration the backend is asked to write.
type Style struct {
	TargetChars     int      `json:"target_chars"`
	DurationSeconds int      `json:"duration_seconds"`
	Structure       []string `json:"structure"`
	Tone            []string `json:"tone"`
	Language        string   `json:"language"`
}

var defaultStructure = []string{"hook", "problem", "solution", "credibility", "close"}

var defaultTone = []string{
	`Do not open with a generic greeting such as "Hello everyone".`,
	"Keep a confident, professional register suited to prospective clients.",
	"Write for the ear: short sentences, no headings, no bullet points.",
}

func DefaultStyle() Style {
	return Style{
		TargetChars:     1500,
		DurationSeconds: 120,
		Structure:       append([]string(nil), defaultStructure...),
		Tone:            append([]string(nil), defaultTone...),
		Language:        "Japanese",
	}
}

func StyleFromConfig(cfg config.ScriptConfig) Style {
	s := DefaultStyle()
	if cfg.TargetChars > 0 {
		s.TargetChars = cfg.TargetChars
	}
	if cfg.DurationSeconds > 0 {
		s.DurationSeconds = cfg.DurationSeconds
	}
	if cfg.Language != "" {
		s.Language = cfg.Language
	}
	return s
}

// withDefaults fills zero fields so a partially specified style still
// renders a complete prompt.
func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.TargetChars <= 0 {
		s.TargetChars = d.TargetChars
	}
	if s.DurationSeconds <= 0 {
		s.DurationSeconds = d.DurationSeconds
	}
	if len(s.Structure) == 0 {
		s.Structure = d.Structure
	}
	if len(s.Tone) == 0 {
		s.Tone = d.Tone
	}
	if s.Language == "" {
		s.Language = d.Language
	}
	return s
}

func formatDuration(seconds int) string {
	m, s := seconds/60, seconds%60
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case m == 0:
		return plural(s, "second")
	case s == 0:
		return plural(m, "minute")
	default:
		return plural(m, "minute") + " " + plural(s, "second")
	}
}

func (s Style) vars() map[string]string {
	return map[string]string{
		"duration":     formatDuration(s.DurationSeconds),
		"target_chars": fmt.Sprintf("%d", s.TargetChars),
		"structure":    strings.Join(s.Structure, " → "),
		"tone":         strings.Join(s.Tone, "\n- "),
		"language":     s.Language,
	}
}
