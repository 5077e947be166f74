package provider

import (
	"sync"

	"github.com/harun/oracle/internal/logger"
	"github.com/rs/zerolog"
)

// Endpoint is the credential pair of one provider family.
type Endpoint struct {
	APIKey  string
	BaseURL string
}

// Credentials holds endpoints for every provider family.
type Credentials struct {
	OpenAI    Endpoint
	Anthropic Endpoint
	Gemini    Endpoint
	XAI       Endpoint
}

func (c Credentials) endpoint(f Family) Endpoint {
	switch f {
	case FamilyAnthropic:
		return c.Anthropic
	case FamilyGemini:
		return c.Gemini
	case FamilyXAI:
		return c.XAI
	default:
		return c.OpenAI
	}
}

// Factory builds a Provider for a family and endpoint.
type Factory func(family Family, ep Endpoint) Provider

// DefaultFactory builds the SDK backed adapters.
func DefaultFactory(family Family, ep Endpoint) Provider {
	if family == FamilyAnthropic {
		return NewAnthropicProvider(ep.APIKey, ep.BaseURL)
	}
	return NewOpenAIProvider(family, ep.APIKey, ep.BaseURL)
}

// Registry hands out one provider per family, created on first use. It is
// safe for concurrent use by multi-model dispatches.
type Registry struct {
	creds   Credentials
	factory Factory
	log     zerolog.Logger

	mu        sync.Mutex
	providers map[Family]Provider
}

// NewRegistry creates a registry over creds using the SDK adapters.
func NewRegistry(creds Credentials, log zerolog.Logger) *Registry {
	return NewRegistryWithFactory(creds, DefaultFactory, log)
}

// NewRegistryWithFactory creates a registry with a custom provider factory.
func NewRegistryWithFactory(creds Credentials, factory Factory, log zerolog.Logger) *Registry {
	return &Registry{
		creds:     creds,
		factory:   factory,
		log:       log.With().Str("component", "provider-registry").Logger(),
		providers: make(map[Family]Provider),
	}
}

// For resolves model and returns the provider serving it.
func (r *Registry) For(model string) (Provider, ModelInfo, error) {
	info := LookupModel(model)
	ep := r.creds.endpoint(info.Family)
	if ep.APIKey == "" {
		return nil, info, missingKey(info.Name, info.Family)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[info.Family]; ok {
		return p, info, nil
	}
	p := r.factory(info.Family, ep)
	r.providers[info.Family] = p
	r.log.Debug().
		Str("provider", string(info.Family)).
		Str("api_key", logger.MaskAPIKey(ep.APIKey)).
		Str("base_url", logger.FormatBaseURLForLog(ep.BaseURL)).
		Msg("Provider client created")
	return p, info, nil
}
