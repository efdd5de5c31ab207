// Package config loads service configuration from a YAML file, environment
// variables (PERELAY_ prefix), or both. Every backend choice is
// configuration: one canonical OCR backend and one canonical translation
// backend per deployment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/perelay/internal/genai"
	"github.com/valpere/perelay/internal/history"
	"github.com/valpere/perelay/internal/ocr"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Genai     genai.Config    `mapstructure:"genai"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Translate TranslateConfig `mapstructure:"translate"`
	History   HistoryConfig   `mapstructure:"history"`
	Detector  DetectorConfig  `mapstructure:"detector"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Mode selects the log encoder: "dev" or "prod".
	Mode string `mapstructure:"mode"`
}

type OCRConfig struct {
	// Backend is one of: vision, docscan, asyncdoc.
	Backend    string             `mapstructure:"backend"`
	Concurrent bool               `mapstructure:"concurrent"`
	Docscan    ocr.DocscanConfig  `mapstructure:"docscan"`
	AsyncDoc   ocr.AsyncDocConfig `mapstructure:"asyncdoc"`
}

type TranslateConfig struct {
	// Backend is one of: llm, google. Streaming requires llm; with google
	// the pipeline still streams by relaying the blocking result.
	Backend string `mapstructure:"backend"`
	// GoogleCredentials is a service-account file path for the google
	// backend.
	GoogleCredentials string `mapstructure:"google_credentials"`
}

type HistoryConfig struct {
	// Backend is one of: redis, sqlite, none.
	Backend    string              `mapstructure:"backend"`
	Redis      history.RedisConfig `mapstructure:"redis"`
	SQLitePath string              `mapstructure:"sqlite_path"`
	// Timeout bounds the history load per request.
	Timeout time.Duration `mapstructure:"timeout"`
}

type DetectorConfig struct {
	// Statistical enables the lingua-backed cascade step.
	Statistical bool `mapstructure:"statistical"`
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "dev")
	v.SetDefault("genai.base_url", "https://api.openai.com/v1")
	v.SetDefault("genai.model", "gpt-4o-mini")
	v.SetDefault("genai.timeout", "120s")
	v.SetDefault("ocr.backend", "vision")
	v.SetDefault("ocr.concurrent", true)
	v.SetDefault("translate.backend", "llm")
	v.SetDefault("history.backend", "none")
	v.SetDefault("history.timeout", "2s")
	v.SetDefault("history.redis.ttl", "720h")
	v.SetDefault("detector.statistical", false)

	v.SetEnvPrefix("PERELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about. The keys
	// without defaults, secrets above all, must be bound explicitly or env
	// configuration silently drops them.
	for _, key := range []string{
		"genai.api_key",
		"ocr.docscan.endpoint", "ocr.docscan.api_key", "ocr.docscan.timeout",
		"ocr.asyncdoc.endpoint", "ocr.asyncdoc.api_key", "ocr.asyncdoc.timeout",
		"translate.google_credentials",
		"history.redis.addr", "history.redis.password", "history.redis.db",
		"history.sqlite_path",
	} {
		v.MustBindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.OCR.Backend {
	case "vision", "docscan", "asyncdoc":
	default:
		return fmt.Errorf("config: unknown ocr backend %q", c.OCR.Backend)
	}
	switch c.Translate.Backend {
	case "llm", "google":
	default:
		return fmt.Errorf("config: unknown translate backend %q", c.Translate.Backend)
	}
	switch c.History.Backend {
	case "redis", "sqlite", "none":
	default:
		return fmt.Errorf("config: unknown history backend %q", c.History.Backend)
	}
	return nil
}
