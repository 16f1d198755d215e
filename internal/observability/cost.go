package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/llm"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// GPT-4.1 pricing
	gpt41InputPrice  = 0.002
	gpt41OutputPrice = 0.008

	// GPT-4.1-mini pricing
	gpt41MiniInputPrice  = 0.0004
	gpt41MiniOutputPrice = 0.0016

	// GPT-4o-mini pricing
	gpt4oMiniInputPrice  = 0.00015
	gpt4oMiniOutputPrice = 0.0006

	// Gemini 2.5 Flash pricing
	gemini25FlashInputPrice  = 0.0003
	gemini25FlashOutputPrice = 0.0025

	// Gemini 2.5 Pro pricing
	gemini25ProInputPrice  = 0.00125
	gemini25ProOutputPrice = 0.01

	defaultPricingModel = "gpt-4.1-mini"
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all models
var PricingTable = map[string]ModelPricing{
	"gpt-4.1":          {InputPricePer1K: gpt41InputPrice, OutputPricePer1K: gpt41OutputPrice},
	"gpt-4.1-mini":     {InputPricePer1K: gpt41MiniInputPrice, OutputPricePer1K: gpt41MiniOutputPrice},
	"gpt-4o-mini":      {InputPricePer1K: gpt4oMiniInputPrice, OutputPricePer1K: gpt4oMiniOutputPrice},
	"gemini-2.5-flash": {InputPricePer1K: gemini25FlashInputPrice, OutputPricePer1K: gemini25FlashOutputPrice},
	"gemini-2.5-pro":   {InputPricePer1K: gemini25ProInputPrice, OutputPricePer1K: gemini25ProOutputPrice},
}

// CalculateCost calculates the cost in USD for one provider call. Synthetic
// test-mode results cost nothing.
func CalculateCost(model string, usage llm.Usage) float64 {
	if model == "" || strings.EqualFold(model, "synthetic") {
		return 0
	}
	pricing, exists := PricingTable[strings.ToLower(model)]
	if !exists {
		pricing = PricingTable[defaultPricingModel]
	}

	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K
	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}
