package songwriter

import (
	"context"
	"strings"

	"github.com/Conceptual-Machines/singalong-genie/internal/config"
	"github.com/Conceptual-Machines/singalong-genie/internal/llm"
	"github.com/Conceptual-Machines/singalong-genie/internal/logger"
)

// NewFromConfig picks the provider for the configured model. A provider that cannot be
// built (missing key) is replaced by one that fails every call, so the service still starts
// and the failure surfaces per request.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)

	provider, err := factory.GetProvider(ctx, cfg.LLMModel, cfg.LLMProvider)
	if err != nil {
		name := cfg.LLMProvider
		if name == "" {
			name = inferProviderName(cfg.LLMModel)
		}
		logger.Warn("LLM provider unavailable, generation requests will fail", logger.Fields{
			"provider": name,
			"model":    cfg.LLMModel,
			"error":    err.Error(),
		})
		provider = llm.NewUnavailableProvider(name, err)
	}

	return NewService(provider, cfg.LLMModel, opts...)
}

func inferProviderName(model string) string {
	if strings.HasPrefix(strings.ToLower(model), "gpt-") {
		return "openai"
	}
	return "gemini"
}
