package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the risk analysis server.
type Config struct {
	Server   ServerConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	AI       AIConfig
	Workflow WorkflowConfig
	Export   ExportConfig
}

type ServerConfig struct {
	Port     int
	Env      string
	LogLevel slog.Level
}

type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	Enabled            bool
	RateLimitPerMinute int
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	RetryAttempts    int
	Ollama           OllamaConfig
	VLLM             VLLMConfig
	OpenAI           OpenAIConfig
	Gemini           GeminiConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// WorkflowConfig holds the fixed counts of the analysis workflow.
type WorkflowConfig struct {
	MethodCount   int
	QuestionCount int
	SummaryTopN   int
}

// ExportConfig controls report document rendering.
type ExportConfig struct {
	PDFFontPath string
}

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	maxMethodCount        = 4
	maxQuestionsPerMethod = 10
	maxRetryAttempts      = 5
)

var validProviders = map[string]bool{
	"openai": true,
	"ollama": true,
	"vllm":   true,
	"gemini": true,
	"mock":   true,
}

var validBackends = map[string]bool{
	BackendMemory:   true,
	BackendRedis:    true,
	BackendPostgres: true,
}

// Load reads configuration from environment variables (and an optional .env
// file in the working directory) and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     envInt("RISK_PORT", 8080),
			Env:      envString("RISK_ENV", "development"),
			LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
		},
		Session: SessionConfig{
			Backend: envString("SESSION_BACKEND", BackendMemory),
			TTL:     envDuration("SESSION_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			Enabled:            envBool("AUTH_ENABLED", false),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		AI: AIConfig{
			Provider:         os.Getenv("AI_PROVIDER"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			RetryAttempts:    envInt("AI_RETRY_ATTEMPTS", 2),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			Gemini: GeminiConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  envString("GEMINI_MODEL", "gemini-2.5-flash"),
			},
		},
		Workflow: WorkflowConfig{
			MethodCount:   envInt("WORKFLOW_METHOD_COUNT", 2),
			QuestionCount: envInt("WORKFLOW_QUESTION_COUNT", 5),
			SummaryTopN:   envInt("WORKFLOW_SUMMARY_TOP_N", 3),
		},
		Export: ExportConfig{
			PDFFontPath: os.Getenv("PDF_FONT_PATH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("RISK_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !validBackends[c.Session.Backend] {
		return fmt.Errorf("SESSION_BACKEND must be one of memory, redis, postgres; got %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.Backend == BackendRedis {
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND is redis")
		}
		if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
			return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
		}
	}
	if c.Session.Backend == BackendPostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when SESSION_BACKEND is postgres")
	}
	if c.Auth.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when AUTH_ENABLED is true")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, ollama, vllm, gemini, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "vllm" && c.AI.VLLM.Model == "" {
		return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
	}
	if c.AI.RetryAttempts < 1 || c.AI.RetryAttempts > maxRetryAttempts {
		return fmt.Errorf("AI_RETRY_ATTEMPTS must be between 1 and %d, got %d", maxRetryAttempts, c.AI.RetryAttempts)
	}

	w := c.Workflow
	if w.MethodCount < 1 || w.MethodCount > maxMethodCount {
		return fmt.Errorf("WORKFLOW_METHOD_COUNT must be between 1 and %d, got %d", maxMethodCount, w.MethodCount)
	}
	if w.QuestionCount < w.MethodCount || w.QuestionCount > w.MethodCount*maxQuestionsPerMethod {
		return fmt.Errorf("WORKFLOW_QUESTION_COUNT must be between %d and %d, got %d",
			w.MethodCount, w.MethodCount*maxQuestionsPerMethod, w.QuestionCount)
	}
	if w.SummaryTopN < 1 {
		return fmt.Errorf("WORKFLOW_SUMMARY_TOP_N must be at least 1, got %d", w.SummaryTopN)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return lvl
}
