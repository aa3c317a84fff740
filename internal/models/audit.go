package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OrderLog is one packaged order.
type OrderLog struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ProjectID    string    `json:"project_id" db:"project_id"`
	CompanyName  string    `json:"company_name" db:"company_name"`
	OrderDate    string    `json:"order_date" db:"order_date"`
	BackgroundID string    `json:"background_id" db:"background_id"`
	AvatarID     string    `json:"avatar_id" db:"avatar_id"`
	BGMID        string    `json:"bgm_id" db:"bgm_id"`
	ScriptChars  int       `json:"script_chars" db:"script_chars"`
	ArchiveName  string    `json:"archive_name" db:"archive_name"`
	ArchiveBytes int       `json:"archive_bytes" db:"archive_bytes"`
	Entries      []string  `json:"entries" db:"entries"`
	Location     string    `json:"location,omitempty" db:"location"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type LLMUsageLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Provider     string          `json:"provider" db:"provider"`
	Model        string          `json:"model" db:"model"`
	Status       string          `json:"status" db:"status"`
	InputTokens  int             `json:"input_tokens" db:"input_tokens"`
	OutputTokens int             `json:"output_tokens" db:"output_tokens"`
	TotalTokens  int             `json:"total_tokens" db:"total_tokens"`
	CostUSD      float64         `json:"cost_usd" db:"cost_usd"`
	LatencyMs    int64           `json:"latency_ms" db:"latency_ms"`
	Endpoint     string          `json:"endpoint" db:"endpoint"`
	Metadata     json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
