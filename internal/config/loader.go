package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// HomeEnv overrides the oracle home directory.
	HomeEnv = "ORACLE_HOME_DIR"

	EnvPrefix      = "ORACLE"
	ConfigFileName = "config.json"
	LogFileName    = "oracle.log"
	SessionsSubdir = "sessions"
)

// providerEnvFallbacks maps config keys to the conventional SDK variables
// consulted after ORACLE_* overrides.
var providerEnvFallbacks = map[string]string{
	"providers.openai.api_key":    "OPENAI_API_KEY",
	"providers.openai.base_url":   "OPENAI_BASE_URL",
	"providers.anthropic.api_key": "ANTHROPIC_API_KEY",
	"providers.gemini.api_key":    "GEMINI_API_KEY",
	"providers.xai.api_key":       "XAI_API_KEY",
}

// Loader handles configuration loading
type Loader struct {
	homeFlag   string
	configPath string
}

// NewLoader creates a loader. homeFlag and configPath may be empty.
func NewLoader(homeFlag, configPath string) *Loader {
	return &Loader{
		homeFlag:   homeFlag,
		configPath: configPath,
	}
}

// ResolveHome picks the oracle home: flag, then ORACLE_HOME_DIR, then
// ~/.oracle.
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".oracle"), nil
}

// ConfigPath returns the config file path for the resolved home.
func (l *Loader) ConfigPath(home string) string {
	if l.configPath != "" {
		return l.configPath
	}
	return filepath.Join(home, ConfigFileName)
}

// Load reads the config file when present, overlays ORACLE_* environment
// variables and fills derived paths.
func (l *Loader) Load() (*Config, error) {
	home, err := ResolveHome(l.homeFlag)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	for key, fallback := range providerEnvFallbacks {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, fallback); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	configPath := l.ConfigPath(home)
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.HomeDir = home
	if cfg.SessionsDir == "" {
		cfg.SessionsDir = filepath.Join(home, SessionsSubdir)
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(home, LogFileName)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("home_dir", "")
	v.SetDefault("sessions_dir", "")
	v.SetDefault("model", d.Model)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("search", d.Search)
	v.SetDefault("prompt_suffix", d.PromptSuffix)
	v.SetDefault("heartbeat_seconds", d.HeartbeatSeconds)
	v.SetDefault("background", d.Background)
	v.SetDefault("files_report", d.FilesReport)
	v.SetDefault("max_input_bytes", d.MaxInputBytes)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("watch_events", d.WatchEvents)
	v.SetDefault("no_detach", d.NoDetach)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.redaction", d.Logging.Redaction)

	for _, family := range []string{"openai", "anthropic", "gemini", "xai"} {
		v.SetDefault("providers."+family+".api_key", "")
		v.SetDefault("providers."+family+".base_url", "")
	}

	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// Load is a convenience function that creates a loader and loads the config
func Load(homeFlag, configPath string) (*Config, error) {
	return NewLoader(homeFlag, configPath).Load()
}
