package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Defaults applied before the config file and the environment are read.
const (
	DefaultBaseURL         = "https://api-inference.huggingface.co"
	DefaultChatModel       = "google/gemma-2-2b-it"
	DefaultFallbackModel   = "TinyLlama/TinyLlama-1.1B-Chat-v1.0"
	DefaultLastResortModel = "TinyLlama/TinyLlama-1.1B-Chat-v1.0"
	DefaultClipModel       = "sentence-transformers/clip-ViT-B-32-multilingual-v1"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Inference  InferenceConfig  `mapstructure:"inference"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// InferenceConfig describes the hosted inference API. Model ids here are
// defaults; requests may override them.
type InferenceConfig struct {
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	Token           string        `mapstructure:"token"`
	ChatModel       string        `mapstructure:"chat_model"`
	FallbackModel   string        `mapstructure:"fallback_model"`
	LastResortModel string        `mapstructure:"last_resort_model"`
	ImageModel      string        `mapstructure:"image_model"`
	ClipModel       string        `mapstructure:"clip_model"`
	TextTimeout     time.Duration `mapstructure:"text_timeout" validate:"gt=0"`
	ImageTimeout    time.Duration `mapstructure:"image_timeout" validate:"gt=0"`
	MaxNewTokens    int           `mapstructure:"max_new_tokens" validate:"gt=0"`
	Temperature     float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"gt=0"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string     `mapstructure:"format" validate:"oneof=json text"`
	Output string     `mapstructure:"output" validate:"oneof=stdout stderr file"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"startswith=/"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language" validate:"required"`
	Languages       []string `mapstructure:"languages" validate:"min=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	// Must outlive the image timeout plus a text chain.
	v.SetDefault("server.write_timeout", 6*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("inference.base_url", DefaultBaseURL)
	v.SetDefault("inference.token", "")
	v.SetDefault("inference.chat_model", DefaultChatModel)
	v.SetDefault("inference.fallback_model", DefaultFallbackModel)
	v.SetDefault("inference.last_resort_model", DefaultLastResortModel)
	v.SetDefault("inference.image_model", "")
	v.SetDefault("inference.clip_model", DefaultClipModel)
	v.SetDefault("inference.text_timeout", 60*time.Second)
	v.SetDefault("inference.image_timeout", 120*time.Second)
	v.SetDefault("inference.max_new_tokens", 320)
	v.SetDefault("inference.temperature", 0.3)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("monitoring.metrics.enabled", false)
	v.SetDefault("monitoring.metrics.port", 9090)
	v.SetDefault("monitoring.metrics.path", "/metrics")

	v.SetDefault("i18n.default_language", "en")
	v.SetDefault("i18n.languages", []string{"en", "hi"})
}

// envBindings maps config keys to the environment variables the hosting
// platform provides.
var envBindings = map[string][]string{
	"server.port":                {"PORT"},
	"inference.base_url":         {"HF_API_BASE"},
	"inference.token":            {"HF_TOKEN"},
	"inference.chat_model":       {"HF_CHAT_MODEL"},
	"inference.fallback_model":   {"HF_CHAT_MODEL_FALLBACK"},
	"inference.image_model":      {"HF_IMAGE_MODEL"},
	"inference.clip_model":       {"HF_CLIP_MODEL"},
	"logging.level":              {"LOG_LEVEL"},
	"logging.format":             {"LOG_FORMAT"},
	"rate_limit.enabled":         {"RATE_LIMIT_ENABLED"},
	"monitoring.metrics.enabled": {"METRICS_ENABLED"},
	"monitoring.metrics.port":    {"METRICS_PORT"},
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if cfg.Logging.Output == "file" && cfg.Logging.File.Path == "" {
		return fmt.Errorf("logging.file.path is required when logging to a file")
	}
	return nil
}
