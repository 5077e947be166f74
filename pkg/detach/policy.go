package detach

import (
	"strings"
)

// DisableEnv forces inline execution when set to a truthy value.
const DisableEnv = "ORACLE_NO_DETACH"

// Rule pins models with a name prefix to inline or detached execution.
type Rule struct {
	Prefix string
	Detach bool
	Reason string
}

// DefaultRules is the fixed per-provider exception table.
var DefaultRules = []Rule{
	{
		Prefix: "gemini",
		Detach: false,
		Reason: "gemini runs hang when started from a detached context",
	},
}

// Policy decides whether a run is launched detached.
type Policy struct {
	Disabled bool
	Rules    []Rule
}

// NewPolicy returns the default policy. disabled is the explicit override.
func NewPolicy(disabled bool) Policy {
	return Policy{Disabled: disabled, Rules: DefaultRules}
}

// ShouldDetach reports whether a run over models should detach. The
// override always wins; otherwise any model pinned inline keeps the whole
// run inline. Everything else detaches.
func (p Policy) ShouldDetach(models ...string) bool {
	if p.Disabled {
		return false
	}
	for _, model := range models {
		if rule, ok := p.match(model); ok && !rule.Detach {
			return false
		}
	}
	return true
}

// InlineReason returns why model is pinned inline, or "" when it is not.
func (p Policy) InlineReason(model string) string {
	if rule, ok := p.match(model); ok && !rule.Detach {
		return rule.Reason
	}
	return ""
}

func (p Policy) match(model string) (Rule, bool) {
	model = strings.ToLower(model)
	best := -1
	for i, rule := range p.Rules {
		if strings.HasPrefix(model, strings.ToLower(rule.Prefix)) {
			if best < 0 || len(rule.Prefix) > len(p.Rules[best].Prefix) {
				best = i
			}
		}
	}
	if best < 0 {
		return Rule{}, false
	}
	return p.Rules[best], true
}

// EnvDisabled interprets the value of DisableEnv.
func EnvDisabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
