package services

import (
	"sync"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/utils"
)

// ModelProvider resolves the chat backend lazily: the primary provider is
// tried first, then the secondary as fallback. The first client that
// constructs successfully is cached for the process lifetime; unlike the
// embedding provider, a failed attempt is retried on the next request
// because construction here is cheap.
type ModelProvider struct {
	log *logger.Logger

	mu     sync.Mutex
	client ModelClient

	factories []func() (ModelClient, error)
}

func NewModelProvider(log *logger.Logger) *ModelProvider {
	providerLog := log.With("service", "ModelProvider")

	primary := func() (ModelClient, error) {
		return NewOpenAIModelClient(providerLog, ModelClientConfig{
			BaseURL: utils.GetEnv("CHAT_BASE_URL", "http://localhost:11434", providerLog),
			APIKey:  utils.GetEnv("CHAT_API_KEY", "", nil),
			Model:   utils.GetEnv("CHAT_MODEL", "qwen3:8b", providerLog),
		})
	}
	secondary := func() (ModelClient, error) {
		return NewOpenAIModelClient(providerLog, ModelClientConfig{
			BaseURL: utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", providerLog),
			APIKey:  utils.GetEnv("OPENAI_API_KEY", "", nil),
			Model:   utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", providerLog),
		})
	}

	return &ModelProvider{
		log:       providerLog,
		factories: []func() (ModelClient, error){primary, secondary},
	}
}

func NewModelProviderWithFactories(log *logger.Logger, factories ...func() (ModelClient, error)) *ModelProvider {
	return &ModelProvider{
		log:       log.With("service", "ModelProvider"),
		factories: factories,
	}
}

// Client returns the cached chat backend, initializing it on first use.
func (p *ModelProvider) Client() (ModelClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	var lastErr error
	for i, factory := range p.factories {
		client, err := factory()
		if err != nil {
			lastErr = err
			p.log.Warn("Chat backend provider failed to initialize", "provider_index", i, "error", err)
			continue
		}
		p.client = client
		p.log.Info("Chat backend initialized", "provider_index", i)
		return p.client, nil
	}
	if lastErr != nil {
		return nil, apierr.ServiceUnavailable("chat backend unavailable: %v", lastErr)
	}
	return nil, apierr.ServiceUnavailable("no chat backend configured")
}

// EnsureReady is the idempotent readiness check used per request.
func (p *ModelProvider) EnsureReady() bool {
	_, err := p.Client()
	return err == nil
}
