package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the quiz backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	LogLevel    string   `mapstructure:"log_level"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
	CACert string `mapstructure:"ca_cert"` // base64 PEM, mysql TLS
}

// CacheConfig selects the cache backend shared across components.
type CacheConfig struct {
	Driver string `mapstructure:"driver"` // memory (default) or database
}

// OpenAIConfig holds the external model connection settings.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AdminConfig gates the operator-facing cost report.
type AdminConfig struct {
	Token         string `mapstructure:"token"`
	CostsEndpoint bool   `mapstructure:"costs_endpoint"`
}

// RateLimitConfig bounds request rates for the public and admin surfaces.
type RateLimitConfig struct {
	Requests      int           `mapstructure:"requests"`
	Window        time.Duration `mapstructure:"window"`
	AdminRequests int           `mapstructure:"admin_requests"`
	AdminWindow   time.Duration `mapstructure:"admin_window"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("VIMQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindConventionalEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/vimquiz.sqlite")

	v.SetDefault("cache.driver", "memory")

	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 2048)
	v.SetDefault("openai.timeout", "60s")

	v.SetDefault("admin.costs_endpoint", false)

	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "15m")
	v.SetDefault("rate_limit.admin_requests", 10)
	v.SetDefault("rate_limit.admin_window", "1m")
}

// bindConventionalEnv accepts the unprefixed variable names the hosting
// platform injects alongside the VIMQUIZ_ prefixed forms.
func bindConventionalEnv(v *viper.Viper) {
	_ = v.BindEnv("openai.api_key", "VIMQUIZ_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("database.url", "VIMQUIZ_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("database.ca_cert", "VIMQUIZ_DATABASE_CA_CERT", "MYSQL_CA_CERT")
	_ = v.BindEnv("admin.token", "VIMQUIZ_ADMIN_TOKEN", "ADMIN_API_TOKEN")
	_ = v.BindEnv("admin.costs_endpoint", "VIMQUIZ_ADMIN_COSTS_ENDPOINT", "ALLOW_AI_COSTS_ENDPOINT")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
