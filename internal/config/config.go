package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Script   ScriptConfig
	Storage  StorageConfig
	Catalog  CatalogConfig
	LogLevel string
}

type ServerConfig struct {
	Host         string
	Port         int
	MaxUploadMB  int
	RateLimitRPS int
	CORSOrigins  []string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type AuthConfig struct {
	OperatorKey  string // empty disables the check
	APIKeyHeader string
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
	Timeout          time.Duration
}

// ScriptConfig bounds what is sent to the generation backend.
type ScriptConfig struct {
	MinInputChars   int
	MaxInputChars   int
	TargetChars     int
	DurationSeconds int
	Language        string
}

type StorageConfig struct {
	Backend string // "none", "s3" or "supabase"
	DropURL string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	SupabaseURL string
	SupabaseKey string

	Bucket string
}

type CatalogConfig struct {
	Path string // empty uses the embedded catalog
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", 32)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	rps, err := getEnvInt("RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	timeout, err := getEnvDuration("LLM_TIMEOUT", 90*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}

	minChars, err := getEnvInt("SCRIPT_MIN_INPUT_CHARS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid SCRIPT_MIN_INPUT_CHARS: %w", err)
	}

	maxChars, err := getEnvInt("SCRIPT_MAX_INPUT_CHARS", 15000)
	if err != nil {
		return nil, fmt.Errorf("invalid SCRIPT_MAX_INPUT_CHARS: %w", err)
	}

	targetChars, err := getEnvInt("SCRIPT_TARGET_CHARS", 1500)
	if err != nil {
		return nil, fmt.Errorf("invalid SCRIPT_TARGET_CHARS: %w", err)
	}

	duration, err := getEnvInt("SCRIPT_DURATION_SECONDS", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid SCRIPT_DURATION_SECONDS: %w", err)
	}

	useSSL, err := getEnvBool("S3_USE_SSL", true)
	if err != nil {
		return nil, fmt.Errorf("invalid S3_USE_SSL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         port,
			MaxUploadMB:  maxUpload,
			RateLimitRPS: rps,
			CORSOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Auth: AuthConfig{
			OperatorKey:  getEnv("OPERATOR_API_KEY", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "X-API-Key"),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
			Timeout:          timeout,
		},
		Script: ScriptConfig{
			MinInputChars:   minChars,
			MaxInputChars:   maxChars,
			TargetChars:     targetChars,
			DurationSeconds: duration,
			Language:        getEnv("SCRIPT_LANGUAGE", "Japanese"),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", "none")),
			DropURL:     getEnv("DROP_URL", ""),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
			S3Region:    getEnv("S3_REGION", "us-east-1"),
			S3UseSSL:    useSSL,
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "orders"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports every missing variable for the selected provider and
// storage backend in a single error.
func (c *Config) Validate() error {
	var missing []string

	switch c.LLM.DefaultProvider {
	case "openai":
		if c.LLM.OpenAIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.LLM.AnthropicKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "ollama":
		if c.LLM.OllamaURL == "" {
			missing = append(missing, "OLLAMA_URL")
		}
	default:
		return fmt.Errorf("unknown LLM_DEFAULT_PROVIDER %q", c.LLM.DefaultProvider)
	}

	switch c.Storage.Backend {
	case "none", "":
	case "s3":
		if c.Storage.S3Endpoint == "" {
			missing = append(missing, "S3_ENDPOINT")
		}
		if c.Storage.S3AccessKey == "" {
			missing = append(missing, "S3_ACCESS_KEY")
		}
		if c.Storage.S3SecretKey == "" {
			missing = append(missing, "S3_SECRET_KEY")
		}
	case "supabase":
		if c.Storage.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if c.Storage.SupabaseKey == "" {
			missing = append(missing, "SUPABASE_SERVICE_KEY")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	if c.Script.MinInputChars < 0 || c.Script.MaxInputChars <= 0 {
		return fmt.Errorf("script input bounds must be positive")
	}
	if c.Script.MinInputChars > c.Script.MaxInputChars {
		return fmt.Errorf("SCRIPT_MIN_INPUT_CHARS (%d) exceeds SCRIPT_MAX_INPUT_CHARS (%d)",
			c.Script.MinInputChars, c.Script.MaxInputChars)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
