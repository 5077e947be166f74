package provider

import (
	"strings"

	"github.com/harun/oracle/pkg/session"
)

// Family groups models served by the same SDK client and credentials.
type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
	FamilyGemini    Family = "gemini"
	FamilyXAI       Family = "xai"
)

// DefaultModel is used when neither flags nor config name a model.
const DefaultModel = "gpt-5-pro"

// ModelInfo is one row of the model table.
type ModelInfo struct {
	Name            string
	APIModel        string
	Family          Family
	InputLimit      int
	InputPerToken   float64
	OutputPerToken  float64
	ReasoningEffort string
	known           bool
}

var modelTable = map[string]ModelInfo{
	"gpt-5-pro": {
		Name:           "gpt-5-pro",
		APIModel:       "gpt-5-pro",
		Family:         FamilyOpenAI,
		InputLimit:     196000,
		InputPerToken:  15.0 / 1_000_000,
		OutputPerToken: 120.0 / 1_000_000,
	},
	"gpt-5.1": {
		Name:            "gpt-5.1",
		APIModel:        "gpt-5.1",
		Family:          FamilyOpenAI,
		InputLimit:      196000,
		InputPerToken:   1.25 / 1_000_000,
		OutputPerToken:  10.0 / 1_000_000,
		ReasoningEffort: "high",
	},
	"gemini-3-pro": {
		Name:           "gemini-3-pro",
		APIModel:       "gemini-3-pro-preview",
		Family:         FamilyGemini,
		InputLimit:     200000,
		InputPerToken:  2.0 / 1_000_000,
		OutputPerToken: 12.0 / 1_000_000,
	},
	"claude-4.5-sonnet": {
		Name:           "claude-4.5-sonnet",
		APIModel:       "claude-sonnet-4-5",
		Family:         FamilyAnthropic,
		InputLimit:     200000,
		InputPerToken:  3.0 / 1_000_000,
		OutputPerToken: 15.0 / 1_000_000,
	},
	"claude-4.1-opus": {
		Name:           "claude-4.1-opus",
		APIModel:       "claude-opus-4-1",
		Family:         FamilyAnthropic,
		InputLimit:     200000,
		InputPerToken:  15.0 / 1_000_000,
		OutputPerToken: 75.0 / 1_000_000,
	},
	"grok-4.1": {
		Name:           "grok-4.1",
		APIModel:       "grok-4-1-fast-reasoning",
		Family:         FamilyXAI,
		InputLimit:     2000000,
		InputPerToken:  0.2 / 1_000_000,
		OutputPerToken: 0.5 / 1_000_000,
	},
}

var modelShorthands = map[string]string{
	"gpt-5":  "gpt-5-pro",
	"gpt5":   "gpt-5-pro",
	"5.1":    "gpt-5.1",
	"gpt5.1": "gpt-5.1",
	"gemini": "gemini-3-pro",
	"claude": "claude-4.5-sonnet",
	"sonnet": "claude-4.5-sonnet",
	"opus":   "claude-4.1-opus",
	"grok":   "grok-4.1",
}

// familyPrefixes maps model-name prefixes to families for models outside
// the table. Longest prefix wins, so order does not matter.
var familyPrefixes = map[string]Family{
	"gpt":    FamilyOpenAI,
	"o1":     FamilyOpenAI,
	"o3":     FamilyOpenAI,
	"o4":     FamilyOpenAI,
	"claude": FamilyAnthropic,
	"gemini": FamilyGemini,
	"grok":   FamilyXAI,
}

// ResolveModel normalizes a user supplied model name to its canonical table
// name. Unknown names are returned lowercased and trimmed.
func ResolveModel(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return DefaultModel
	}
	if canonical, ok := modelShorthands[normalized]; ok {
		return canonical
	}
	return normalized
}

// LookupModel returns the table row for name. Models outside the table get
// a synthesized row with the family inferred from the name and no pricing.
func LookupModel(name string) ModelInfo {
	resolved := ResolveModel(name)
	if info, ok := modelTable[resolved]; ok {
		info.known = true
		return info
	}
	return ModelInfo{
		Name:     resolved,
		APIModel: resolved,
		Family:   FamilyForModel(resolved),
	}
}

// FamilyForModel infers the provider family from a model name prefix,
// defaulting to OpenAI.
func FamilyForModel(name string) Family {
	name = strings.ToLower(name)
	best := ""
	family := FamilyOpenAI
	for prefix, f := range familyPrefixes {
		if strings.HasPrefix(name, prefix) && len(prefix) > len(best) {
			best = prefix
			family = f
		}
	}
	return family
}

// Known reports whether the model came from the table.
func (m ModelInfo) Known() bool {
	return m.known
}

// Cost prices usage against the model table. ok is false for models
// without pricing.
func (m ModelInfo) Cost(u session.Usage) (cost float64, ok bool) {
	if !m.known {
		return 0, false
	}
	return float64(u.InputTokens)*m.InputPerToken + float64(u.OutputTokens)*m.OutputPerToken, true
}

// KnownModels lists canonical model names.
func KnownModels() []string {
	names := make([]string, 0, len(modelTable))
	for name := range modelTable {
		names = append(names, name)
	}
	return names
}
