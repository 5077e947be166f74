package config

import (
	"fmt"
	"strings"

	"github.com/harun/oracle/pkg/provider"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAPIKey checks the shape of a provider key. Mismatches are
// reported as warnings since proxies often accept other formats.
func (v *Validator) ValidateAPIKey(key string, family provider.Family) error {
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", family)
	}

	switch family {
	case provider.FamilyAnthropic:
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case provider.FamilyOpenAI:
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	case provider.FamilyXAI:
		if !strings.HasPrefix(key, "xai-") {
			return fmt.Errorf("invalid xAI API key format (should start with xai-)")
		}
	}

	return nil
}

// ValidateModel validates a model name
func (v *Validator) ValidateModel(model string) error {
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	// Unknown models are allowed and priced as unknown.
	return nil
}

// ValidateEngine validates the execution engine
func (v *Validator) ValidateEngine(engine string) error {
	return oneOf("engine", engine, EngineAPI, EngineBrowser)
}

// ValidateSearch validates the search toggle
func (v *Validator) ValidateSearch(search string) error {
	return oneOf("search", search, SearchOn, SearchOff)
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	return oneOf("log level", level, "debug", "info", "warn", "error")
}

func oneOf(field, value string, valid ...string) error {
	for _, candidate := range valid {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s (must be one of: %s)", field, value, strings.Join(valid, ", "))
}

// Warnings returns non-fatal findings about cfg, such as malformed keys.
func (v *Validator) Warnings(cfg *Config) []error {
	var warnings []error

	keys := []struct {
		family provider.Family
		key    string
	}{
		{provider.FamilyOpenAI, cfg.Providers.OpenAI.APIKey},
		{provider.FamilyAnthropic, cfg.Providers.Anthropic.APIKey},
		{provider.FamilyGemini, cfg.Providers.Gemini.APIKey},
		{provider.FamilyXAI, cfg.Providers.XAI.APIKey},
	}
	for _, k := range keys {
		if k.key == "" {
			continue
		}
		if err := v.ValidateAPIKey(k.key, k.family); err != nil {
			warnings = append(warnings, err)
		}
	}

	if err := v.ValidateModel(cfg.Model); err != nil {
		warnings = append(warnings, err)
	}
	return warnings
}
