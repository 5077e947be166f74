// Package provider adapts model vendor SDKs to a single Submit capability.
//
// Invariants:
// - Adapters never write to session transcripts; they only return a Response.
// - Every SDK failure leaves Submit as a *TransportError with a Reason.
// - Model names are resolved through the model table before any call.
//
// Usage:
//
//	reg := provider.NewRegistry(provider.Credentials{...}, logger)
//	p, info, _ := reg.For("gpt-5-pro")
//	resp, err := p.Submit(ctx, provider.Request{Model: info.Name, APIModel: info.APIModel, Prompt: "hi"})
package provider
