package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("MILLSCAN_SERVER_PORT")
		os.Unsetenv("MILLSCAN_SERVER_ENVIRONMENT")
		os.Unsetenv("MILLSCAN_WHISPERER_API_KEY")
		os.Unsetenv("MILLSCAN_WHISPERER_BASE_URL")
		os.Unsetenv("MILLSCAN_LLM_API_KEY")
		os.Unsetenv("MILLSCAN_LLM_MODEL")
		os.Unsetenv("MILLSCAN_STORAGE_PROCESSED_DIR")
		os.Unsetenv("MILLSCAN_STORAGE_MAX_UPLOAD_MB")
		os.Unsetenv("MILLSCAN_CACHE_TYPE")
		os.Unsetenv("MILLSCAN_CACHE_REDIS_URL")
		os.Unsetenv("MILLSCAN_CACHE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		// Set required API keys
		os.Setenv("MILLSCAN_WHISPERER_API_KEY", "whisper-key")
		os.Setenv("MILLSCAN_LLM_API_KEY", "llm-key")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Whisperer.BaseURL != "https://llmwhisperer-api.us-central.unstract.com/api/v2" {
			t.Errorf("Whisperer.BaseURL = %s", cfg.Whisperer.BaseURL)
		}
		if cfg.Whisperer.Mode != "high_quality" {
			t.Errorf("Whisperer.Mode = %s, want high_quality", cfg.Whisperer.Mode)
		}
		if cfg.Whisperer.PageSeparator != "<<<" {
			t.Errorf("Whisperer.PageSeparator = %s, want <<<", cfg.Whisperer.PageSeparator)
		}
		if cfg.LLM.Model != "gpt-4o-mini" {
			t.Errorf("LLM.Model = %s, want gpt-4o-mini", cfg.LLM.Model)
		}
		if cfg.LLM.ExtractionTemperature != 0.1 {
			t.Errorf("LLM.ExtractionTemperature = %v, want 0.1", cfg.LLM.ExtractionTemperature)
		}
		if cfg.LLM.MaxDocumentChars != 10000 {
			t.Errorf("LLM.MaxDocumentChars = %d, want 10000", cfg.LLM.MaxDocumentChars)
		}
		if cfg.LLM.MaxRetries != 2 {
			t.Errorf("LLM.MaxRetries = %d, want 2", cfg.LLM.MaxRetries)
		}
		if cfg.Storage.ProcessedDir != "processed_files" {
			t.Errorf("Storage.ProcessedDir = %s, want processed_files", cfg.Storage.ProcessedDir)
		}
		if cfg.Storage.MaxUploadMB != 16 {
			t.Errorf("Storage.MaxUploadMB = %d, want 16", cfg.Storage.MaxUploadMB)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MILLSCAN_SERVER_PORT", "9090")
		os.Setenv("MILLSCAN_SERVER_ENVIRONMENT", "production")
		os.Setenv("MILLSCAN_WHISPERER_API_KEY", "whisper-key")
		os.Setenv("MILLSCAN_WHISPERER_BASE_URL", "https://custom.ocr.example")
		os.Setenv("MILLSCAN_LLM_API_KEY", "llm-key")
		os.Setenv("MILLSCAN_LLM_MODEL", "gpt-4o")
		os.Setenv("MILLSCAN_STORAGE_PROCESSED_DIR", "/var/lib/millscan")
		os.Setenv("MILLSCAN_STORAGE_MAX_UPLOAD_MB", "32")
		os.Setenv("MILLSCAN_CACHE_TYPE", "redis")
		os.Setenv("MILLSCAN_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("MILLSCAN_CACHE_TTL", "1h")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Whisperer.BaseURL != "https://custom.ocr.example" {
			t.Errorf("Whisperer.BaseURL = %s", cfg.Whisperer.BaseURL)
		}
		if cfg.LLM.Model != "gpt-4o" {
			t.Errorf("LLM.Model = %s, want gpt-4o", cfg.LLM.Model)
		}
		if cfg.Storage.ProcessedDir != "/var/lib/millscan" {
			t.Errorf("Storage.ProcessedDir = %s", cfg.Storage.ProcessedDir)
		}
		if cfg.Storage.MaxUploadMB != 32 {
			t.Errorf("Storage.MaxUploadMB = %d, want 32", cfg.Storage.MaxUploadMB)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
	})

	t.Run("fails validation when whisperer API key is missing", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MILLSCAN_LLM_API_KEY", "llm-key")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing whisperer API key")
		}
	})

	t.Run("fails validation when LLM API key is missing", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MILLSCAN_WHISPERER_API_KEY", "whisper-key")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing LLM API key")
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MILLSCAN_WHISPERER_API_KEY", "whisper-key")
		os.Setenv("MILLSCAN_LLM_API_KEY", "llm-key")
		os.Setenv("MILLSCAN_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MILLSCAN_WHISPERER_API_KEY", "whisper-key")
		os.Setenv("MILLSCAN_LLM_API_KEY", "llm-key")
		os.Setenv("MILLSCAN_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestValidate(t *testing.T) {
	validConfig := func() *Config {
		return &Config{
			Whisperer: WhispererConfig{APIKey: "whisper-key"},
			LLM:       LLMConfig{APIKey: "llm-key"},
			Storage:   StorageConfig{MaxUploadMB: 16},
			Cache:     CacheConfig{Type: "memory"},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails when whisperer API key is empty", func(t *testing.T) {
		cfg := validConfig()
		cfg.Whisperer.APIKey = ""
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty whisperer API key")
		}
	})

	t.Run("fails when LLM API key is empty", func(t *testing.T) {
		cfg := validConfig()
		cfg.LLM.APIKey = ""
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty LLM API key")
		}
	})

	t.Run("validates redis cache type with URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Type = "redis"
		cfg.Cache.RedisURL = "redis://localhost:6379"
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for valid redis config", err)
		}
	})

	t.Run("fails for redis cache without URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cache.Type = "redis"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for redis without URL")
		}
	})

	t.Run("fails for non-positive upload limit", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.MaxUploadMB = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero upload limit")
		}
	})
}
