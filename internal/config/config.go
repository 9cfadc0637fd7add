// Package config loads settings from defaults, an optional config file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ARCHPROMPT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Secrets SecretsConfig `mapstructure:"secrets"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Preview PreviewConfig `mapstructure:"preview"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Release         bool          `mapstructure:"release"`
}

// GeminiConfig controls the model call. Zero Timeout leaves the transport
// default in place and zero MaxRetries means a single attempt.
type GeminiConfig struct {
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    uint64        `mapstructure:"max_retries"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

type SecretsConfig struct {
	// APIKeyParam is the parameter store path holding the Google API key.
	APIKeyParam string `mapstructure:"api_key_param"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type PreviewConfig struct {
	MaxWidth int `mapstructure:"max_width"`
}

// Load reads path if it is non-empty, then applies ARCHPROMPT_* environment
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Gemini.Model == "" {
		errs = append(errs, errors.New("gemini.model is empty"))
	}
	if c.Gemini.Timeout < 0 {
		errs = append(errs, errors.New("gemini.timeout is negative"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be positive"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.release", false)

	v.SetDefault("gemini.model", "gemini-1.5-pro")
	v.SetDefault("gemini.timeout", "0s")
	v.SetDefault("gemini.max_retries", 0)
	v.SetDefault("gemini.retry_interval", "500ms")

	v.SetDefault("secrets.api_key_param", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("upload.max_bytes", 20<<20)
	v.SetDefault("preview.max_width", 480)
}
