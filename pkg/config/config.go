package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	OpenAI    OpenAIConfig
	GigaChat  GigaChatConfig
	Retrieval RetrievalConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// OpenAIConfig configures the embedding provider.
type OpenAIConfig struct {
	APIKey         string
	EmbeddingModel string
	Timeout        time.Duration
}

// GigaChatConfig configures the generative fallback provider.
type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// RetrievalConfig holds the confidence thresholds and greeting routing rules.
// Thresholds must satisfy High >= Medium >= Low > 0; Load fails fast otherwise.
type RetrievalConfig struct {
	HighThreshold    float64
	MediumThreshold  float64
	LowThreshold     float64
	TopK             int
	GreetingPatterns []string
	GreetingMaxLen   int
	HistoryLimit     int
}

const defaultGreetingPatterns = "hi,hii,hello,hey,howdy,namaste,good morning,good afternoon,good evening,what's up,sup"

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine, environment variables still apply (Docker/K8s)

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	embedTimeout, _ := strconv.Atoi(getEnv("OPENAI_TIMEOUT_SECONDS", "10"))
	genTimeout, _ := strconv.Atoi(getEnv("GIGACHAT_TIMEOUT_SECONDS", "15"))
	topK, _ := strconv.Atoi(getEnv("RETRIEVAL_TOP_K", "3"))
	greetingMaxLen, _ := strconv.Atoi(getEnv("GREETING_MAX_LENGTH", "50"))
	historyLimit, _ := strconv.Atoi(getEnv("CHAT_HISTORY_LIMIT", "5"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	high, err := parseThreshold("RETRIEVAL_HIGH_THRESHOLD", "0.85")
	if err != nil {
		return nil, err
	}
	medium, err := parseThreshold("RETRIEVAL_MEDIUM_THRESHOLD", "0.70")
	if err != nil {
		return nil, err
	}
	low, err := parseThreshold("RETRIEVAL_LOW_THRESHOLD", "0.55")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pawmate"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:        time.Duration(embedTimeout) * time.Second,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
			Timeout:            time.Duration(genTimeout) * time.Second,
		},
		Retrieval: RetrievalConfig{
			HighThreshold:    high,
			MediumThreshold:  medium,
			LowThreshold:     low,
			TopK:             topK,
			GreetingPatterns: splitPatterns(getEnv("GREETING_PATTERNS", defaultGreetingPatterns)),
			GreetingMaxLen:   greetingMaxLen,
			HistoryLimit:     historyLimit,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Retrieval.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retrieval config: %w", err)
	}

	return cfg, nil
}

// Validate enforces the threshold ordering and greeting rules before the
// first query is served.
func (c *RetrievalConfig) Validate() error {
	if c.LowThreshold <= 0 {
		return fmt.Errorf("low threshold must be positive, got %v", c.LowThreshold)
	}
	if c.MediumThreshold < c.LowThreshold {
		return fmt.Errorf("medium threshold %v below low threshold %v", c.MediumThreshold, c.LowThreshold)
	}
	if c.HighThreshold < c.MediumThreshold {
		return fmt.Errorf("high threshold %v below medium threshold %v", c.HighThreshold, c.MediumThreshold)
	}
	if c.HighThreshold > 1 {
		return fmt.Errorf("high threshold %v above 1", c.HighThreshold)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.GreetingMaxLen <= 0 {
		return fmt.Errorf("greeting max length must be positive, got %d", c.GreetingMaxLen)
	}
	if len(c.GreetingPatterns) == 0 {
		return fmt.Errorf("greeting pattern set is empty")
	}
	return nil
}

func parseThreshold(key, defaultValue string) (float64, error) {
	raw := getEnv(key, defaultValue)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func splitPatterns(raw string) []string {
	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
