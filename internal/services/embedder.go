package services

import (
	"context"
	"sync"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/utils"
)

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// EmbedderProvider owns the process-wide embedding handle. Lifecycle is
// uninitialized -> {ready | failed}: the first Get constructs the backend
// client and caches it; a construction failure is sticky, so later calls
// report unavailable without re-attempting until the process restarts.
// Backend loading is expensive and failures are environmental, they do not
// self-heal inside one process.
type EmbedderProvider struct {
	log *logger.Logger

	mu       sync.Mutex
	embedder Embedder
	failed   bool

	newEmbedder func() (Embedder, error)
}

func NewEmbedderProvider(log *logger.Logger) *EmbedderProvider {
	providerLog := log.With("service", "EmbedderProvider")
	return &EmbedderProvider{
		log: providerLog,
		newEmbedder: func() (Embedder, error) {
			return NewOpenAIModelClient(providerLog, ModelClientConfig{
				BaseURL:    utils.GetEnv("EMBEDDING_BASE_URL", "http://localhost:11434", providerLog),
				APIKey:     utils.GetEnv("EMBEDDING_API_KEY", "", nil),
				EmbedModel: utils.GetEnv("EMBEDDING_MODEL", "nomic-embed-text", providerLog),
			})
		},
	}
}

// NewEmbedderProviderWithFactory injects the construction step; used by
// tests and alternate wiring.
func NewEmbedderProviderWithFactory(log *logger.Logger, factory func() (Embedder, error)) *EmbedderProvider {
	return &EmbedderProvider{
		log:         log.With("service", "EmbedderProvider"),
		newEmbedder: factory,
	}
}

func (p *EmbedderProvider) Get() (Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.embedder != nil {
		return p.embedder, nil
	}
	if p.failed {
		return nil, apierr.ServiceUnavailable("embedding backend unavailable")
	}

	emb, err := p.newEmbedder()
	if err != nil {
		p.failed = true
		p.log.Error("Embedding backend initialization failed; will not retry this process", "error", err)
		return nil, apierr.ServiceUnavailable("embedding backend unavailable: %v", err)
	}
	p.embedder = emb
	p.log.Info("Embedding backend initialized")
	return p.embedder, nil
}

// Ready reports availability without mutating provider state.
func (p *EmbedderProvider) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.embedder != nil
}
