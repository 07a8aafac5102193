package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Whisperer WhispererConfig
	LLM       LLMConfig
	Storage   StorageConfig
	Cache     CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WhispererConfig holds LLMWhisperer API configuration
type WhispererConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Mode          string        `mapstructure:"mode"`
	OutputMode    string        `mapstructure:"output_mode"`
	PageSeparator string        `mapstructure:"page_separator"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

// LLMConfig holds the chat-completions API configuration
type LLMConfig struct {
	APIKey                string        `mapstructure:"api_key"`
	BaseURL               string        `mapstructure:"base_url"`
	Model                 string        `mapstructure:"model"`
	ExtractionTemperature float64       `mapstructure:"extraction_temperature"`
	QueryTemperature      float64       `mapstructure:"query_temperature"`
	MaxDocumentChars      int           `mapstructure:"max_document_chars"`
	MaxSystemPromptChars  int           `mapstructure:"max_system_prompt_chars"`
	MaxUserPromptChars    int           `mapstructure:"max_user_prompt_chars"`
	MaxRetries            int           `mapstructure:"max_retries"`
	RetryDelay            time.Duration `mapstructure:"retry_delay"`
	RequestsPerMinute     int           `mapstructure:"requests_per_minute"`
}

// StorageConfig holds the flat-file job store configuration
type StorageConfig struct {
	ProcessedDir string `mapstructure:"processed_dir"`
	MaxUploadMB  int64  `mapstructure:"max_upload_mb"`
}

// CacheConfig holds answer-cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/millscan/")

	// Environment variable settings
	v.SetEnvPrefix("MILLSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Whisperer defaults. The api_key defaults register the keys with viper
	// so env-only values survive Unmarshal.
	v.SetDefault("whisperer.api_key", "")
	v.SetDefault("whisperer.base_url", "https://llmwhisperer-api.us-central.unstract.com/api/v2")
	v.SetDefault("whisperer.mode", "high_quality")
	v.SetDefault("whisperer.output_mode", "layout_preserving")
	v.SetDefault("whisperer.page_separator", "<<<")
	v.SetDefault("whisperer.wait_timeout", "300s")
	v.SetDefault("whisperer.poll_interval", "5s")

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.extraction_temperature", 0.1)
	v.SetDefault("llm.query_temperature", 0.3)
	v.SetDefault("llm.max_document_chars", 10000)
	v.SetDefault("llm.max_system_prompt_chars", 1000)
	v.SetDefault("llm.max_user_prompt_chars", 500)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", "2s")
	v.SetDefault("llm.requests_per_minute", 60)

	// Storage defaults
	v.SetDefault("storage.processed_dir", "processed_files")
	v.SetDefault("storage.max_upload_mb", 16)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Whisperer.APIKey == "" {
		return fmt.Errorf("LLMWhisperer API key is required (set MILLSCAN_WHISPERER_API_KEY)")
	}

	if config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set MILLSCAN_LLM_API_KEY)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Storage.MaxUploadMB <= 0 {
		return fmt.Errorf("storage max_upload_mb must be positive, got: %d", config.Storage.MaxUploadMB)
	}

	return nil
}
