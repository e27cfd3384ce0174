// Package config loads application configuration from config.yaml and
// OUTREACH_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	DataForSEO DataForSEOConfig `yaml:"dataforseo" mapstructure:"dataforseo"`
	Snov       SnovConfig       `yaml:"snov" mapstructure:"snov"`
	Hunter     HunterConfig     `yaml:"hunter" mapstructure:"hunter"`
	Gmail      GmailConfig      `yaml:"gmail" mapstructure:"gmail"`
	SendGrid   SendGridConfig   `yaml:"sendgrid" mapstructure:"sendgrid"`
	Draft      DraftConfig      `yaml:"draft" mapstructure:"draft"`
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Send       SendConfig       `yaml:"send" mapstructure:"send"`
	Jobs       JobsConfig       `yaml:"jobs" mapstructure:"jobs"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DataForSEOConfig holds SERP provider credentials and request parameters.
type DataForSEOConfig struct {
	Login    string `yaml:"login" mapstructure:"login"`
	Password string `yaml:"password" mapstructure:"password"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Depth    int    `yaml:"depth" mapstructure:"depth"`
	Device   string `yaml:"device" mapstructure:"device"`
	Language string `yaml:"language" mapstructure:"language"`
}

// SnovConfig holds Snov.io credentials.
type SnovConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter.io credentials.
type HunterConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GmailConfig holds Gmail send credentials and token refresh settings.
type GmailConfig struct {
	AccessToken  string `yaml:"access_token" mapstructure:"access_token"`
	RefreshToken string `yaml:"refresh_token" mapstructure:"refresh_token"`
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	FromAddress  string `yaml:"from_address" mapstructure:"from_address"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	TokenURL     string `yaml:"token_url" mapstructure:"token_url"`
}

// SendGridConfig holds SendGrid credentials.
type SendGridConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	FromAddress string `yaml:"from_address" mapstructure:"from_address"`
	FromName    string `yaml:"from_name" mapstructure:"from_name"`
}

// DraftConfig configures the message draft generator.
type DraftConfig struct {
	Provider       string  `yaml:"provider" mapstructure:"provider"` // "anthropic" or "openai"
	AnthropicKey   string  `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	AnthropicModel string  `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	OpenAIKey      string  `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel    string  `yaml:"openai_model" mapstructure:"openai_model"`
	MaxTokens      int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature    float64 `yaml:"temperature" mapstructure:"temperature"`
	SenderName     string  `yaml:"sender_name" mapstructure:"sender_name"`
	SenderCompany  string  `yaml:"sender_company" mapstructure:"sender_company"`
}

// DiscoveryConfig configures query generation and SERP polling.
type DiscoveryConfig struct {
	MaxQueries       int `yaml:"max_queries" mapstructure:"max_queries"`
	QueryPacingMs    int `yaml:"query_pacing_ms" mapstructure:"query_pacing_ms"`
	PollMaxAttempts  int `yaml:"poll_max_attempts" mapstructure:"poll_max_attempts"`
	PollPreDelaySecs int `yaml:"poll_pre_delay_secs" mapstructure:"poll_pre_delay_secs"`
}

// EnrichConfig configures the enrichment waterfall.
type EnrichConfig struct {
	Providers       []string `yaml:"providers" mapstructure:"providers"` // waterfall order
	WaterfallConfig string   `yaml:"waterfall_config" mapstructure:"waterfall_config"`
	MaxConcurrent   int      `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	PatternBudget   int      `yaml:"pattern_budget" mapstructure:"pattern_budget"`
	AutoPromote     bool     `yaml:"auto_promote" mapstructure:"auto_promote"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min" mapstructure:"rate_limit_per_min"`
}

// SendConfig configures the send stage.
type SendConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // "gmail" or "sendgrid"
	PacingSecs  int    `yaml:"pacing_secs" mapstructure:"pacing_secs"`
	MaxPerDay   int    `yaml:"max_per_day" mapstructure:"max_per_day"`
}

// JobsConfig configures the background job runner.
type JobsConfig struct {
	TimeoutHours int `yaml:"timeout_hours" mapstructure:"timeout_hours"`
}

// ServerConfig configures the trigger surface HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "outreach.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("dataforseo.base_url", "https://api.dataforseo.com/v3")
	v.SetDefault("dataforseo.depth", 20)
	v.SetDefault("dataforseo.device", "desktop")
	v.SetDefault("dataforseo.language", "en")
	v.SetDefault("snov.base_url", "https://api.snov.io")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("gmail.base_url", "https://gmail.googleapis.com")
	v.SetDefault("gmail.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("draft.provider", "anthropic")
	v.SetDefault("draft.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("draft.openai_model", "gpt-4o-mini")
	v.SetDefault("draft.max_tokens", 1024)
	v.SetDefault("draft.temperature", 0.7)
	v.SetDefault("discovery.max_queries", 50)
	v.SetDefault("discovery.query_pacing_ms", 1000)
	v.SetDefault("discovery.poll_max_attempts", 30)
	v.SetDefault("discovery.poll_pre_delay_secs", 5)
	v.SetDefault("enrich.providers", []string{"snov", "hunter"})
	v.SetDefault("enrich.max_concurrent", 3)
	v.SetDefault("enrich.pattern_budget", 6)
	v.SetDefault("enrich.auto_promote", true)
	v.SetDefault("enrich.rate_limit_per_min", 60)
	v.SetDefault("send.provider", "gmail")
	v.SetDefault("send.pacing_secs", 2)
	v.SetDefault("send.max_per_day", 100)
	v.SetDefault("jobs.timeout_hours", 2)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
