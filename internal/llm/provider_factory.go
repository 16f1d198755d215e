package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/config"
)

// ProviderFactory creates providers based on model name or explicit provider choice
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string
	openaiModel  string
	geminiModel  string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey, openaiModel, geminiModel string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
		openaiModel:  openaiModel,
		geminiModel:  geminiModel,
	}
}

// GetProvider returns the appropriate provider for the given model/provider name
func (f *ProviderFactory) GetProvider(ctx context.Context, model, providerName string) (Provider, error) {
	if providerName != "" {
		return f.getProviderByName(ctx, providerName)
	}
	return f.getProviderByModel(ctx, model)
}

func (f *ProviderFactory) getProviderByName(ctx context.Context, providerName string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case providerNameOpenAI:
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured: %w", ErrNoCredentials)
		}
		return NewOpenAIProvider(f.openaiAPIKey, f.openaiModel), nil
	case providerNameGemini:
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured: %w", ErrNoCredentials)
		}
		return NewGeminiProvider(ctx, f.geminiAPIKey, f.geminiModel)
	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: openai, gemini)", providerName)
	}
}

func (f *ProviderFactory) getProviderByModel(ctx context.Context, model string) (Provider, error) {
	if strings.HasPrefix(strings.ToLower(model), "gemini-") {
		return f.getProviderByName(ctx, providerNameGemini)
	}
	return f.getProviderByName(ctx, providerNameOpenAI)
}

// Chain returns the primary provider followed by every other provider that
// has credentials. The generation client walks the chain on rate limits.
func (f *ProviderFactory) Chain(ctx context.Context, primary string) ([]Provider, error) {
	order := []string{providerNameOpenAI, providerNameGemini}
	if strings.EqualFold(primary, providerNameGemini) {
		order = []string{providerNameGemini, providerNameOpenAI}
	}

	var chain []Provider
	for _, name := range order {
		if !f.hasKey(name) {
			continue
		}
		provider, err := f.getProviderByName(ctx, name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, provider)
	}
	if len(chain) == 0 {
		return nil, ErrNoCredentials
	}
	return chain, nil
}

func (f *ProviderFactory) hasKey(name string) bool {
	switch name {
	case providerNameOpenAI:
		return f.openaiAPIKey != ""
	case providerNameGemini:
		return f.geminiAPIKey != ""
	}
	return false
}

// NewProviderChain builds the provider chain from configuration
func NewProviderChain(ctx context.Context, cfg *config.Config) ([]Provider, error) {
	factory := NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey, cfg.OpenAIModel, cfg.GeminiModel)
	return factory.Chain(ctx, cfg.GenerationProvider)
}
