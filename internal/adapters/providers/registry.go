package providers

import (
	"context"
	"fmt"
	"sync"
)

// Registry routes generation calls to the Generator registered under the
// slot's provider name. It lets the fan-out engine stay agnostic of which
// concrete providers are wired in a given deployment.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register binds a provider name to a Generator. Re-registering a name
// replaces the previous binding.
func (r *Registry) Register(name string, gen Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = gen
}

// Generate dispatches to the generator registered for ref.Provider.
func (r *Registry) Generate(ctx context.Context, prompt string, ref ModelRef) (*Image, error) {
	r.mu.RLock()
	gen, ok := r.generators[ref.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, ref.Provider)
	}
	return gen.Generate(ctx, prompt, ref)
}
