package remotes

import (
	"os"
	"strings"

	"github.com/temirov/multipush/internal/services"
)

// CredentialProvider supplies push tokens for services.
type CredentialProvider interface {
	Credential(serviceIdentifier string) (string, bool)
}

// ServiceResolver resolves service identifiers to configured services.
type ServiceResolver interface {
	Resolve(identifier string) (services.ConfiguredService, error)
}

// EnvironmentLookup mirrors os.LookupEnv.
type EnvironmentLookup func(key string) (string, bool)

// EnvironmentCredentialProvider reads tokens from each service's configured environment variable.
type EnvironmentCredentialProvider struct {
	resolver ServiceResolver
	lookup   EnvironmentLookup
}

// NewEnvironmentCredentialProvider constructs a provider; a nil lookup falls back to os.LookupEnv.
func NewEnvironmentCredentialProvider(resolver ServiceResolver, lookup EnvironmentLookup) *EnvironmentCredentialProvider {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvironmentCredentialProvider{resolver: resolver, lookup: lookup}
}

// Credential returns the non-empty token for the service.
func (provider *EnvironmentCredentialProvider) Credential(serviceIdentifier string) (string, bool) {
	if provider == nil || provider.resolver == nil {
		return "", false
	}
	service, resolveError := provider.resolver.Resolve(serviceIdentifier)
	if resolveError != nil || len(service.TokenEnvironmentVariable) == 0 {
		return "", false
	}
	value, found := provider.lookup(service.TokenEnvironmentVariable)
	value = strings.TrimSpace(value)
	if !found || len(value) == 0 {
		return "", false
	}
	return value, true
}

// StaticCredentialProvider serves tokens from a fixed map keyed by service identifier.
type StaticCredentialProvider map[string]string

// Credential returns the token stored for the service.
func (provider StaticCredentialProvider) Credential(serviceIdentifier string) (string, bool) {
	value, found := provider[strings.ToLower(strings.TrimSpace(serviceIdentifier))]
	if !found || len(value) == 0 {
		return "", false
	}
	return value, true
}
