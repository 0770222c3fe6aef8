// Package llm is the boundary to the hosted language model. Extraction and
// drafting both go through the Client interface so tests can substitute a
// scripted model.
package llm

import "maps"

// ModelTier names a capability level; each tier maps to one provider model
type ModelTier string

const (
	// TierLite is the cheapest model, for short replies
	TierLite ModelTier = "lite"
	// TierStandard handles job extraction and email drafting
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for long or messy pages
	TierAdvanced ModelTier = "advanced"
)

// fallbackOrder is consulted when a tier has no model of its own
var fallbackOrder = []ModelTier{TierStandard, TierLite}

// Provider names an LLM vendor
type Provider string

// ProviderGemini is Google Gemini, the only provider implemented
const ProviderGemini Provider = "gemini"

// Config selects the provider, the model per tier and sampling settings
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// Temperature is passed to every request
	Temperature float32
	// MaxOutputTokens caps the reply length; 0 leaves the provider default
	MaxOutputTokens int32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the Gemini models used by default. Temperature
// is zero so extraction output is as repeatable as the provider allows.
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model for tier, falling back to the standard and then
// the lite model. Empty when nothing is configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model := c.Models[tier]; model != "" {
		return model
	}
	for _, t := range fallbackOrder {
		if model := c.Models[t]; model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c with tier mapped to model
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = maps.Clone(c.Models)
	if out.Models == nil {
		out.Models = make(map[ModelTier]string)
	}
	out.Models[tier] = model
	return &out
}
