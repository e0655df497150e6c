package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	LogLevel string

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// Classifier
	ModelPath         string
	ClassifyWorkers   int
	MaxReceiptBytes   int
	UseOllama         bool
	OllamaURL         string
	OllamaModel       string
	OllamaTimeout     time.Duration
	FallbackCacheSize int
	FallbackCacheTTL  time.Duration

	OCRLanguages []string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finlens.db"),

		ModelPath:         getEnv("MODEL_PATH", "./data/receipt_categorizer.gob"),
		ClassifyWorkers:   getEnvInt("CLASSIFY_WORKERS", 8),
		MaxReceiptBytes:   getEnvInt("MAX_RECEIPT_BYTES", 64<<10),
		UseOllama:         getEnvBool("USE_OLLAMA", false),
		OllamaURL:         getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3"),
		OllamaTimeout:     getEnvDuration("OLLAMA_TIMEOUT", 8*time.Second),
		FallbackCacheSize: getEnvInt("FALLBACK_CACHE_SIZE", 500),
		FallbackCacheTTL:  getEnvDuration("FALLBACK_CACHE_TTL", time.Hour),

		OCRLanguages: getEnvList("OCR_LANGUAGES", []string{"eng"}),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finlens_exchange"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "receipt_scanned"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.ModelPath == "" {
		errors = append(errors, "model path cannot be empty")
	}
	if c.ClassifyWorkers < 1 || c.ClassifyWorkers > 256 {
		errors = append(errors, fmt.Sprintf("invalid classify workers %d: must be between 1 and 256", c.ClassifyWorkers))
	}
	if c.MaxReceiptBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max receipt bytes %d: must be positive", c.MaxReceiptBytes))
	}

	if c.UseOllama {
		if parsedURL, err := url.Parse(c.OllamaURL); err != nil || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid Ollama URL '%s'", c.OllamaURL))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid Ollama URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.OllamaModel == "" {
			errors = append(errors, "Ollama model cannot be empty when USE_OLLAMA is set")
		}
		if c.OllamaTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("invalid Ollama timeout %v: must be positive", c.OllamaTimeout))
		}
		if c.FallbackCacheSize < 1 {
			errors = append(errors, fmt.Sprintf("invalid fallback cache size %d: must be at least 1", c.FallbackCacheSize))
		}
		if c.FallbackCacheTTL <= 0 {
			errors = append(errors, fmt.Sprintf("invalid fallback cache TTL %v: must be positive", c.FallbackCacheTTL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool accepts true/1/yes/on and false/0/no/off in any case.
func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return defaultValue
}

// getEnvList splits a comma or plus separated value ("eng+ita").
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '+' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
