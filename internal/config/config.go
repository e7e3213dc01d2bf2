package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"goscout/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	AI         AIConfig
	Server     ServerConfig
	Pipeline   PipelineConfig
	Connectors ConnectorConfig
	Notify     NotifyConfig
	Scheduler  SchedulerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// AIConfig holds generative-model settings
type AIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	ProfilesFile string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// PipelineConfig holds the policy values the orchestrator enforces. All of
// these are tunable knobs, not correctness constants.
type PipelineConfig struct {
	// Bucket thresholds: total >= HighThreshold is high,
	// total >= MediumThreshold is medium, below is low.
	HighThreshold   int
	MediumThreshold int

	// MaxGenerationItems is the per-run fan-out cap K: only the top-K
	// high/medium items are sent to generation.
	MaxGenerationItems int

	// MaxConcurrentCalls bounds in-flight generative calls within a stage.
	MaxConcurrentCalls int

	// DedupThreshold is the title-similarity cutoff for near-duplicates.
	DedupThreshold float64

	// Ventures are the work-streams plans can target.
	Ventures []string
}

// ConnectorConfig holds source-connector settings
type ConnectorConfig struct {
	MaxResults     int
	CrossrefMailto string
}

// NotifyConfig holds run notification settings
type NotifyConfig struct {
	WebhookURL string
}

// SchedulerConfig holds periodic-run settings
type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		AI: AIConfig{
			APIKey:       os.Getenv("OPENAI_API_KEY"),
			BaseURL:      getEnvOrDefault("OPENAI_BASE_URL", ""),
			Model:        getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:    getEnvIntOrDefault("MAX_TOKENS", 4000),
			Temperature:  getEnvFloatOrDefault("TEMPERATURE", 0.4),
			Timeout:      getEnvDurationOrDefault("LLM_TIMEOUT", 120*time.Second),
			ProfilesFile: getEnvOrDefault("STAGE_PROFILES_FILE", ""),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Pipeline: PipelineConfig{
			HighThreshold:      getEnvIntOrDefault("PIPELINE_HIGH_THRESHOLD", 70),
			MediumThreshold:    getEnvIntOrDefault("PIPELINE_MEDIUM_THRESHOLD", 40),
			MaxGenerationItems: getEnvIntOrDefault("PIPELINE_MAX_GENERATION_ITEMS", 5),
			MaxConcurrentCalls: getEnvIntOrDefault("PIPELINE_MAX_CONCURRENT_CALLS", 2),
			DedupThreshold:     getEnvFloatOrDefault("PIPELINE_DEDUP_THRESHOLD", 0.85),
			Ventures:           splitList(getEnvOrDefault("PIPELINE_VENTURES", "")),
		},
		Connectors: ConnectorConfig{
			MaxResults:     getEnvIntOrDefault("CONNECTOR_MAX_RESULTS", 25),
			CrossrefMailto: getEnvOrDefault("CROSSREF_MAILTO", ""),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnvOrDefault("NOTIFY_WEBHOOK_URL", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvBoolOrDefault("SCHEDULER_ENABLED", false),
			Interval: getEnvDurationOrDefault("SCHEDULER_INTERVAL", 24*time.Hour),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.AI.APIKey == "" {
		return errors.ConfigInvalid("OPENAI_API_KEY is required")
	}
	if config.Pipeline.MediumThreshold >= config.Pipeline.HighThreshold {
		return errors.ConfigInvalid("PIPELINE_MEDIUM_THRESHOLD must be below PIPELINE_HIGH_THRESHOLD")
	}
	if config.Pipeline.MaxGenerationItems <= 0 {
		return errors.ConfigInvalid("PIPELINE_MAX_GENERATION_ITEMS must be positive")
	}
	if config.Pipeline.MaxConcurrentCalls <= 0 {
		return errors.ConfigInvalid("PIPELINE_MAX_CONCURRENT_CALLS must be positive")
	}
	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
