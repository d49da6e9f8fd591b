package repositories

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rios0rios0/bulkimport/internal/domain/entities"
	domainRepos "github.com/rios0rios0/bulkimport/internal/domain/repositories"
)

// ProviderFactory creates a ProviderRepository for one configured provider instance.
type ProviderFactory func(
	settings entities.ProviderSettings,
	importSettings entities.ImportSettings,
) (domainRepos.ProviderRepository, error)

// CatalogFactory creates the catalog client of one import session.
type CatalogFactory func(
	settings entities.CatalogSettings,
	importSettings entities.ImportSettings,
) (domainRepos.CatalogRepository, error)

// ProviderRegistry manages all registered Git provider implementations.
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register adds a provider factory under the given name (e.g. "github").
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// Get returns a configured provider instance for the given settings.
func (r *ProviderRegistry) Get(
	settings entities.ProviderSettings,
	importSettings entities.ImportSettings,
) (domainRepos.ProviderRepository, error) {
	factory, ok := r.providers[settings.Type]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q", settings.Type)
	}
	return factory(settings, importSettings)
}

// Names returns the list of registered provider names.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSession opens a provider session: instances are built lazily on first
// use and shared by every item of the batch, so each backend acquires its
// credentials at most once per batch.
func (r *ProviderRegistry) NewSession(
	providers []entities.ProviderSettings,
	importSettings entities.ImportSettings,
) *ProviderSession {
	return &ProviderSession{
		registry:       r,
		providers:      providers,
		importSettings: importSettings,
		instances:      make(map[int]domainRepos.ProviderRepository),
		errs:           make(map[int]error),
	}
}

// ProviderSession hands out the provider instances of one batch. It is safe
// for concurrent use.
type ProviderSession struct {
	registry       *ProviderRegistry
	providers      []entities.ProviderSettings
	importSettings entities.ImportSettings

	mu        sync.Mutex
	instances map[int]domainRepos.ProviderRepository
	errs      map[int]error
}

// Resolve returns the provider of the given type whose host serves the
// repository URL. A URL on a host no instance of that type serves is an error,
// never a guess.
func (s *ProviderSession) Resolve(providerName, repoURL string) (domainRepos.ProviderRepository, error) {
	var candidates []int
	for i, provider := range s.providers {
		if provider.Type == providerName {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for %q", entities.ErrProviderNotConfigured, providerName)
	}

	host := entities.HostOf(repoURL)
	if host == "" {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidRepositoryURL, repoURL)
	}

	var buildErr error
	for _, i := range candidates {
		provider, err := s.instance(i)
		if err != nil {
			if buildErr == nil {
				buildErr = err
			}
			continue
		}
		if provider.MatchesURL(repoURL) {
			return provider, nil
		}
	}
	if buildErr != nil {
		return nil, buildErr
	}
	return nil, fmt.Errorf("%w for %q on host %s", entities.ErrProviderNotConfigured, providerName, host)
}

// All builds every configured provider, in configuration order. Providers
// that cannot be built are returned as errors naming their type.
func (s *ProviderSession) All() ([]domainRepos.ProviderRepository, []error) {
	providers := make([]domainRepos.ProviderRepository, 0, len(s.providers))
	var failures []error
	for i, settings := range s.providers {
		provider, err := s.instance(i)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", settings.Type, err))
			continue
		}
		providers = append(providers, provider)
	}
	return providers, failures
}

func (s *ProviderSession) instance(i int) (domainRepos.ProviderRepository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if provider, ok := s.instances[i]; ok {
		return provider, nil
	}
	if err, ok := s.errs[i]; ok {
		return nil, err
	}

	provider, err := s.registry.Get(s.providers[i], s.importSettings)
	if err != nil {
		s.errs[i] = err
		return nil, err
	}
	s.instances[i] = provider
	return provider, nil
}
