package openai

import "strings"

// ModelPricing is USD per million tokens
type ModelPricing struct {
	PromptPrice     float64
	CompletionPrice float64
}

// Prices for direct OpenAI models and their OpenRouter aliases.
// TODO: refresh from the OpenRouter /models endpoint instead of hardcoding.
var modelPricing = map[string]ModelPricing{
	"gpt-3.5-turbo-1106": {PromptPrice: 1.00, CompletionPrice: 2.00},
	"gpt-3.5-turbo":      {PromptPrice: 0.50, CompletionPrice: 1.50},
	"gpt-4o":             {PromptPrice: 2.50, CompletionPrice: 10.00},
	"gpt-4o-mini":        {PromptPrice: 0.15, CompletionPrice: 0.60},
	"gpt-4-turbo":        {PromptPrice: 10.00, CompletionPrice: 30.00},
	"gpt-4.1-mini":       {PromptPrice: 0.40, CompletionPrice: 1.60},

	"anthropic/claude-3.5-sonnet":       {PromptPrice: 3.00, CompletionPrice: 15.00},
	"anthropic/claude-3-haiku":          {PromptPrice: 0.25, CompletionPrice: 1.25},
	"google/gemini-flash-1.5":           {PromptPrice: 0.075, CompletionPrice: 0.30},
	"meta-llama/llama-3.1-70b-instruct": {PromptPrice: 0.52, CompletionPrice: 0.75},
	"meta-llama/llama-3.1-8b-instruct":  {PromptPrice: 0.055, CompletionPrice: 0.055},
}

// DefaultPricingFallback is charged per request for models without a price
const DefaultPricingFallback = 0.01

// CalculateCost returns the USD cost of a request
func CalculateCost(model string, promptTokens, completionTokens int) float64 {
	pricing, found := GetPricing(model)
	if !found {
		return DefaultPricingFallback
	}
	return float64(promptTokens)/1_000_000*pricing.PromptPrice +
		float64(completionTokens)/1_000_000*pricing.CompletionPrice
}

// GetPricing returns pricing for a model. OpenRouter's "openai/" prefix is
// accepted for direct OpenAI models.
func GetPricing(model string) (ModelPricing, bool) {
	if pricing, found := modelPricing[model]; found {
		return pricing, true
	}
	pricing, found := modelPricing[strings.TrimPrefix(model, "openai/")]
	return pricing, found
}
