package config

import (
	"testing"

	"github.com/harun/oracle/pkg/provider"
	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		key     string
		family  provider.Family
		wantErr bool
	}{
		{"valid anthropic", "sk-ant-abc", provider.FamilyAnthropic, false},
		{"invalid anthropic", "sk-abc", provider.FamilyAnthropic, true},
		{"valid openai", "sk-proj-abc", provider.FamilyOpenAI, false},
		{"invalid openai", "abc", provider.FamilyOpenAI, true},
		{"valid xai", "xai-abc", provider.FamilyXAI, false},
		{"gemini any format", "AIzaAnything", provider.FamilyGemini, false},
		{"empty", "", provider.FamilyOpenAI, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAPIKey(tt.key, tt.family)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEnums(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateEngine("api"))
	assert.NoError(t, v.ValidateEngine("browser"))
	assert.Error(t, v.ValidateEngine("API"))

	assert.NoError(t, v.ValidateSearch("on"))
	assert.NoError(t, v.ValidateSearch("off"))
	assert.Error(t, v.ValidateSearch(""))

	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.NoError(t, v.ValidateLogLevel(level))
	}
	assert.Error(t, v.ValidateLogLevel("trace"))

	assert.Error(t, v.ValidateModel("  "))
	assert.NoError(t, v.ValidateModel("some-future-model"))
}

func TestWarnings(t *testing.T) {
	v := NewValidator()
	cfg := validConfig()
	cfg.Providers.OpenAI.APIKey = "not-an-openai-key"
	cfg.Providers.Anthropic.APIKey = "sk-ant-ok"

	warnings := v.Warnings(cfg)
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Error(), "OpenAI")
}
