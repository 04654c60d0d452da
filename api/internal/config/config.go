package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	TelegramBotToken string
	WebhookURL       string

	LLMEngine    string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	FieldsFile    string
	QuestionCount int
	GenAttempts   int
	GenBackoff    time.Duration

	SessionCacheSize int
	SessionTTL       time.Duration

	// TranscriptRetention of 0 keeps archived transcripts forever.
	TranscriptRetention time.Duration
}

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("missing required env %s", k)
	}
	return v, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return n, nil
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return d, nil
}

// Load reads an optional .env file and then the environment. It exits the
// process when the configuration is unusable.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		LLMEngine:        strings.ToLower(getEnv("LLM_ENGINE", "gemini")),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		FieldsFile:       getEnv("FIELDS_FILE", ""),
	}

	var err error
	switch cfg.LLMEngine {
	case "gemini":
		cfg.GeminiAPIKey, err = mustEnv("GEMINI_API_KEY")
		cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	case "gpt", "openai":
		cfg.OpenAIAPIKey, err = mustEnv("OPENAI_API_KEY")
		cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	default:
		err = fmt.Errorf("unknown LLM_ENGINE %q", cfg.LLMEngine)
	}
	if err != nil {
		return nil, err
	}

	if cfg.QuestionCount, err = getInt("QUESTION_COUNT", 3); err != nil {
		return nil, err
	}
	if cfg.GenAttempts, err = getInt("GEN_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.GenBackoff, err = getDuration("GEN_BACKOFF", 300*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SessionCacheSize, err = getInt("SESSION_CACHE_SIZE", 10000); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TranscriptRetention, err = getDuration("TRANSCRIPT_RETENTION", 0); err != nil {
		return nil, err
	}
	if cfg.TranscriptRetention < 0 {
		return nil, errors.New("TRANSCRIPT_RETENTION must not be negative")
	}
	if cfg.QuestionCount <= 0 {
		return nil, errors.New("QUESTION_COUNT must be positive")
	}
	return cfg, nil
}
