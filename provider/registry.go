package provider

import (
	"fmt"
	"sync"
)

// Registry manages the registered donation provider implementations.
type Registry struct {
	providers map[Provider]ProviderFactory
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[Provider]ProviderFactory),
	}
}

// Register adds a provider factory to the registry
func (r *Registry) Register(p Provider, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p] = factory
}

// Get retrieves a provider factory by name
func (r *Registry) Get(p Provider) (ProviderFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.providers[p]
	if !exists {
		return nil, fmt.Errorf("payment provider %q is not registered", p)
	}

	return factory, nil
}

// CreateProvider creates a new instance of a donation provider
func (r *Registry) CreateProvider(p Provider) (DonationProvider, error) {
	factory, err := r.Get(p)
	if err != nil {
		return nil, err
	}

	return factory(), nil
}

// RegisteredProviders returns the providers with a registered factory
func (r *Registry) RegisteredProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Provider, 0, len(r.providers))
	for p := range r.providers {
		names = append(names, p)
	}

	return names
}

// DefaultRegistry is the global default provider registry
var DefaultRegistry = NewRegistry()

// Register registers a provider with the default registry
func Register(p Provider, factory ProviderFactory) {
	DefaultRegistry.Register(p, factory)
}

// Get retrieves a provider factory from the default registry
func Get(p Provider) (ProviderFactory, error) {
	return DefaultRegistry.Get(p)
}

// CreateProvider creates a provider instance from the default registry
func CreateProvider(p Provider) (DonationProvider, error) {
	return DefaultRegistry.CreateProvider(p)
}
