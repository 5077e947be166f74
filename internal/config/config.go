package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harun/oracle/pkg/provider"
)

// Config represents the oracle configuration. It is resolved once at startup
// and threaded through every command; nothing below the CLI reads the
// environment for the storage root.
type Config struct {
	// Storage
	HomeDir     string `json:"home_dir" mapstructure:"home_dir"`
	SessionsDir string `json:"sessions_dir" mapstructure:"sessions_dir"`

	// Run defaults
	Model            string `json:"model" mapstructure:"model"`
	Engine           string `json:"engine" mapstructure:"engine"` // api, browser
	Search           string `json:"search" mapstructure:"search"` // on, off
	PromptSuffix     string `json:"prompt_suffix" mapstructure:"prompt_suffix"`
	HeartbeatSeconds int    `json:"heartbeat_seconds" mapstructure:"heartbeat_seconds"`
	Background       bool   `json:"background" mapstructure:"background"`
	FilesReport      bool   `json:"files_report" mapstructure:"files_report"`
	MaxInputBytes    int64  `json:"max_input_bytes" mapstructure:"max_input_bytes"` // per file

	// Attach
	PollInterval time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
	WatchEvents  bool          `json:"watch_events" mapstructure:"watch_events"`

	// Detach
	NoDetach bool `json:"no_detach" mapstructure:"no_detach"`

	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Providers ProvidersConfig `json:"providers" mapstructure:"providers"`
	Metrics   MetricsConfig   `json:"metrics" mapstructure:"metrics"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// ProviderConfig holds credentials for one provider family
type ProviderConfig struct {
	APIKey  string `json:"api_key" mapstructure:"api_key"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`
}

// ProvidersConfig holds every provider family
type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai" mapstructure:"openai"`
	Anthropic ProviderConfig `json:"anthropic" mapstructure:"anthropic"`
	Gemini    ProviderConfig `json:"gemini" mapstructure:"gemini"`
	XAI       ProviderConfig `json:"xai" mapstructure:"xai"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	Textfile string `json:"textfile" mapstructure:"textfile"`
}

const (
	EngineAPI     = "api"
	EngineBrowser = "browser"

	SearchOn  = "on"
	SearchOff = "off"

	DefaultMaxInputBytes = 1 << 20
)

// DefaultConfig returns a config with default values. Paths are filled by
// the loader once the home directory is known.
func DefaultConfig() *Config {
	return &Config{
		Model:            provider.DefaultModel,
		Engine:           EngineAPI,
		Search:           SearchOn,
		HeartbeatSeconds: 30,
		MaxInputBytes:    DefaultMaxInputBytes,
		PollInterval:     time.Second,
		Logging: LoggingConfig{
			Level:     "warn",
			MaxSize:   20,
			MaxAge:    14,
			Compress:  true,
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config with keys masked.
func (c *Config) String() string {
	masked := *c
	masked.Providers.OpenAI.APIKey = maskKey(c.Providers.OpenAI.APIKey)
	masked.Providers.Anthropic.APIKey = maskKey(c.Providers.Anthropic.APIKey)
	masked.Providers.Gemini.APIKey = maskKey(c.Providers.Gemini.APIKey)
	masked.Providers.XAI.APIKey = maskKey(c.Providers.XAI.APIKey)
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	return "***"
}

// SearchEnabled reports whether provider search is on. Anything but "off"
// keeps it enabled.
func (c *Config) SearchEnabled() bool {
	return c.Search != SearchOff
}

// Heartbeat returns the heartbeat interval.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// Credentials converts provider settings for the provider registry.
func (c *Config) Credentials() provider.Credentials {
	return provider.Credentials{
		OpenAI:    provider.Endpoint{APIKey: c.Providers.OpenAI.APIKey, BaseURL: c.Providers.OpenAI.BaseURL},
		Anthropic: provider.Endpoint{APIKey: c.Providers.Anthropic.APIKey, BaseURL: c.Providers.Anthropic.BaseURL},
		Gemini:    provider.Endpoint{APIKey: c.Providers.Gemini.APIKey, BaseURL: c.Providers.Gemini.BaseURL},
		XAI:       provider.Endpoint{APIKey: c.Providers.XAI.APIKey, BaseURL: c.Providers.XAI.BaseURL},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()
	var errs []error

	if c.SessionsDir == "" {
		errs = append(errs, fmt.Errorf("sessions_dir is required"))
	}
	if err := v.ValidateEngine(c.Engine); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateSearch(c.Search); err != nil {
		errs = append(errs, err)
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.HeartbeatSeconds < 0 {
		errs = append(errs, fmt.Errorf("heartbeat_seconds must be >= 0"))
	}
	if c.MaxInputBytes < 0 {
		errs = append(errs, fmt.Errorf("max_input_bytes must be >= 0"))
	}
	if err := v.ValidateLogLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("logging max_size and max_age must be >= 0"))
	}

	return errors.Join(errs...)
}
