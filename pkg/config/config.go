// Package config loads runtime settings from built-in defaults, an optional
// matchcard.yaml and MATCHCARD_* environment variables. Environment variables
// win over the file and the file wins over defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, with dots replaced
// by underscores: server.addr → MATCHCARD_SERVER_ADDR.
const EnvPrefix = "MATCHCARD"

// Config holds all configuration values.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Log       LogConfig       `mapstructure:"log"`
	Theme     ThemeConfig     `mapstructure:"theme"`
	Card      CardConfig      `mapstructure:"card"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Contact   ContactConfig   `mapstructure:"contact"`
	Form      FormConfig      `mapstructure:"form"`
}

type AppConfig struct {
	Env    string `mapstructure:"env"`
	Locale string `mapstructure:"locale"`
	// Brand overrides the catalog's app.brand / app.exportPrefix when set.
	Brand string `mapstructure:"brand"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ShutdownGrace     time.Duration `mapstructure:"shutdown_grace"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	// SecureCookies marks the CSRF cookie Secure; enable behind TLS.
	SecureCookies bool `mapstructure:"secure_cookies"`
}

type UploadConfig struct {
	MaxBytes     int64 `mapstructure:"max_bytes"`
	MaxDimension int   `mapstructure:"max_dimension"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ThemeConfig struct {
	Name    string `mapstructure:"name"`
	Variant string `mapstructure:"variant"`
}

type CardConfig struct {
	FontPath     string `mapstructure:"font_path"`
	BoldFontPath string `mapstructure:"bold_font_path"`
	Scale        int    `mapstructure:"scale"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// ContactConfig describes the operator shown on the summary page.
type ContactConfig struct {
	Name      string `mapstructure:"name"`
	WeChat    string `mapstructure:"wechat"`
	QRCodeURL string `mapstructure:"qr_code_url"`
	DeepLink  string `mapstructure:"deep_link"`
}

type FormConfig struct {
	// SchemaPath replaces the embedded schema when set.
	SchemaPath string `mapstructure:"schema_path"`
	// PresetPath points at a YAML preset applied to the built form.
	PresetPath string `mapstructure:"preset_path"`
	// TemplatesDir overrides the embedded page templates.
	TemplatesDir string `mapstructure:"templates_dir"`
}

var defaults = map[string]any{
	"app.env":                    "development",
	"app.locale":                 "zh-CN",
	"app.brand":                  "",
	"server.addr":                ":8080",
	"server.shutdown_grace":      "10s",
	"server.read_header_timeout": "5s",
	"server.secure_cookies":      false,
	"upload.max_bytes":           8 << 20,
	"upload.max_dimension":       1024,
	"log.level":                  "info",
	"theme.name":                 "hemei",
	"theme.variant":              "",
	"card.font_path":             "",
	"card.bold_font_path":        "",
	"card.scale":                 2,
	"ratelimit.per_minute":       60,
	"ratelimit.burst":            10,
	"contact.name":               "",
	"contact.wechat":             "",
	"contact.qr_code_url":        "",
	"contact.deep_link":          "",
	"form.schema_path":           "",
	"form.preset_path":           "",
	"form.templates_dir":         "",
}

// Option customises loading.
type Option func(*viper.Viper)

// WithConfigFile reads an explicit file instead of searching for
// matchcard.yaml.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		if path != "" {
			v.SetConfigFile(path)
		}
	}
}

// WithSearchPaths replaces the directories searched for matchcard.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(v *viper.Viper) {
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}
}

// Load resolves the configuration. A missing config file is not an error.
func Load(options ...Option) (Config, error) {
	v := viper.New()
	v.SetConfigName("matchcard")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	custom := len(options) > 0
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	if !custom {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Server.Addr) == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, "upload.max_bytes must be positive")
	}
	if c.Card.Scale < 1 || c.Card.Scale > 4 {
		problems = append(problems, "card.scale must be between 1 and 4")
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		problems = append(problems, "ratelimit values must not be negative")
	}
	if (c.Card.FontPath == "") != (c.Card.BoldFontPath == "") {
		problems = append(problems, "card.font_path and card.bold_font_path must be set together")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether app.env is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
