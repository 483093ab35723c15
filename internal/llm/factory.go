package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/tutorbot/internal/logger"
	"github.com/abhisek/tutorbot/internal/store"
)

// NewProvider builds the configured backend wrapped, outermost first, in
// retry and logging decorators. eventRepo may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, eventRepo, log)
	return WithRetry(logged, cfg.Retry), nil
}

// NewProviderFromEnv resolves the configuration from the environment and
// builds the provider.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, log *logger.Logger) (Provider, Config, error) {
	cfg := ResolveConfig()
	p, err := NewProvider(ctx, cfg, eventRepo, log)
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}
