package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/quillhq/quill/pkg/logging"
)

// Names the shipped provider adapters register under.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Registry routes model IDs to their owning provider and caches the
// merged model catalog. Routing is deterministic and never touches the
// network; only Models/RefreshModels reach out to vendors.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	byName    map[string]Provider
	catalog   []ModelInfo
	owners    map[string]string
	fetched   bool

	logger *logging.Logger
}

// NewRegistry creates a registry over the given providers, in order.
func NewRegistry(providers ...Provider) *Registry {
	logger, _ := logging.NewLogger("registry")
	r := &Registry{
		byName: make(map[string]Provider),
		owners: make(map[string]string),
		logger: logger,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider. A provider already registered under the
// same name is left in place.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name()]; exists {
		return
	}
	r.providers = append(r.providers, p)
	r.byName[p.Name()] = p
}

// Provider returns the registered provider with the given name.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	return p, ok
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Models returns the merged model catalog across all providers,
// fetching and caching it on first call. Providers that fail to list
// contribute nothing; a listing failure never fails the merge.
func (r *Registry) Models(ctx context.Context) []ModelInfo {
	r.mu.RLock()
	if r.fetched {
		out := make([]ModelInfo, len(r.catalog))
		copy(out, r.catalog)
		r.mu.RUnlock()
		return out
	}
	r.mu.RUnlock()

	return r.RefreshModels(ctx)
}

// RefreshModels discards the cached catalog and fetches a fresh one.
func (r *Registry) RefreshModels(ctx context.Context) []ModelInfo {
	r.mu.RLock()
	providers := make([]Provider, len(r.providers))
	copy(providers, r.providers)
	r.mu.RUnlock()

	var merged []ModelInfo
	owners := make(map[string]string)
	for _, p := range providers {
		models, err := p.Models(ctx)
		if err != nil {
			r.logger.Warnf("Model listing failed for provider %s: %v", p.Name(), err)
			continue
		}
		for _, m := range models {
			if m.Provider == "" {
				m.Provider = p.Name()
			}
			if _, taken := owners[m.ID]; taken {
				continue
			}
			owners[m.ID] = p.Name()
			merged = append(merged, m)
		}
	}

	r.mu.Lock()
	r.catalog = merged
	r.owners = owners
	r.fetched = true
	r.mu.Unlock()

	out := make([]ModelInfo, len(merged))
	copy(out, merged)
	return out
}

// Resolve maps a model ID to its owning provider. An exact match in the
// cached catalog wins; otherwise deterministic vendor prefix rules
// decide. Unknown models are a configuration error, not a lookup miss.
func (r *Registry) Resolve(model string) (Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("model ID is empty: %w", ErrUnknownModel)
	}

	r.mu.RLock()
	owner, cataloged := r.owners[model]
	r.mu.RUnlock()

	if cataloged {
		if p, ok := r.Provider(owner); ok {
			return p, nil
		}
	}

	name := vendorForModel(model)
	p, ok := r.Provider(name)
	if !ok {
		return nil, fmt.Errorf("model '%s' needs provider '%s' which is not registered: %w", model, name, ErrUnknownModel)
	}
	return p, nil
}

// vendorForModel applies the naming conventions vendor model IDs
// follow. Anything unrecognized is assumed to be a local Ollama model.
func vendorForModel(model string) string {
	id := strings.ToLower(strings.TrimPrefix(model, "models/"))
	switch {
	case strings.HasPrefix(id, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(id, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(id, "gpt"), strings.HasPrefix(id, "chatgpt"), isReasoningSeries(id):
		return ProviderOpenAI
	default:
		return ProviderOllama
	}
}

// isReasoningSeries matches the o1/o3/o4-mini style OpenAI model IDs
// without swallowing local model names that merely start with "o".
func isReasoningSeries(id string) bool {
	if len(id) < 2 || id[0] != 'o' || id[1] < '0' || id[1] > '9' {
		return false
	}
	return len(id) == 2 || id[2] == '-' || id[2] == '.'
}
