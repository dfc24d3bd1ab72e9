package services

import (
	"sort"
	"strings"

	"github.com/temirov/multipush/internal/shared"
)

const (
	registryUnknownSettingsTemplate     = "settings reference unknown service %q"
	registryUnknownReferenceTemplate    = "configuration references unknown service %q"
	registryMissingCustomDomainTemplate = "service %q requires a custom_domain"
	registryUnsupportedAuthTemplate     = "service %q does not support auth_method %q (supported: %s)"
	authMethodsSeparatorConstant        = ", "
	templatePlaceholderPrefixConstant   = "{"
)

// Settings captures the user's per-service configuration.
type Settings struct {
	AuthMethod   string `mapstructure:"auth_method"`
	CustomDomain string `mapstructure:"custom_domain"`
	Username     string `mapstructure:"username"`
}

// ConfiguredService is a catalog entry combined with the user's settings.
type ConfiguredService struct {
	Service
	AuthMethod   AuthMethod
	CustomDomain string
	Username     string
}

// EffectiveDomain returns the custom domain when configured and the catalog domain otherwise.
func (configured ConfiguredService) EffectiveDomain() string {
	if len(configured.CustomDomain) > 0 {
		return configured.CustomDomain
	}
	return configured.Domain
}

// Detectable reports whether URLs can be matched against the service's domain.
func (configured ConfiguredService) Detectable() bool {
	domain := configured.EffectiveDomain()
	return len(domain) > 0 && !strings.Contains(domain, templatePlaceholderPrefixConstant)
}

// Registry resolves service identifiers to configured services in catalog order.
type Registry struct {
	services []ConfiguredService
	index    map[string]int
}

// NewRegistry validates settings and referenced identifiers against the catalog.
func NewRegistry(catalog Catalog, settings map[string]Settings, referencedIdentifiers []string) (*Registry, error) {
	registry := &Registry{index: make(map[string]int)}
	for _, service := range catalog.Services() {
		registry.index[service.Identifier] = len(registry.services)
		registry.services = append(registry.services, ConfiguredService{Service: service, AuthMethod: service.DefaultAuthMethod()})
	}

	mustValidate := make(map[string]struct{})

	settingIdentifiers := make([]string, 0, len(settings))
	for identifier := range settings {
		settingIdentifiers = append(settingIdentifiers, identifier)
	}
	sort.Strings(settingIdentifiers)

	for _, rawIdentifier := range settingIdentifiers {
		identifier := normalizeIdentifier(rawIdentifier)
		position, known := registry.index[identifier]
		if !known {
			return nil, newConfigurationError(registryUnknownSettingsTemplate, identifier)
		}
		serviceSettings := settings[rawIdentifier]
		configured := &registry.services[position]

		if authMethod := strings.ToLower(strings.TrimSpace(serviceSettings.AuthMethod)); len(authMethod) > 0 {
			if !configured.Supports(AuthMethod(authMethod)) {
				return nil, newConfigurationError(registryUnsupportedAuthTemplate, identifier, authMethod, joinAuthMethods(configured.AuthMethods))
			}
			configured.AuthMethod = AuthMethod(authMethod)
		}
		configured.CustomDomain = strings.TrimSpace(serviceSettings.CustomDomain)
		configured.Username = strings.TrimSpace(serviceSettings.Username)
		mustValidate[identifier] = struct{}{}
	}

	for _, rawIdentifier := range referencedIdentifiers {
		identifier := normalizeIdentifier(rawIdentifier)
		if _, known := registry.index[identifier]; !known {
			return nil, newConfigurationError(registryUnknownReferenceTemplate, identifier)
		}
		mustValidate[identifier] = struct{}{}
	}

	for _, configured := range registry.services {
		if _, validate := mustValidate[configured.Identifier]; !validate {
			continue
		}
		if configured.RequiresCustomDomain && len(configured.CustomDomain) == 0 {
			return nil, newConfigurationError(registryMissingCustomDomainTemplate, configured.Identifier)
		}
	}

	return registry, nil
}

// Resolve returns the configured service for the identifier.
func (registry *Registry) Resolve(identifier string) (ConfiguredService, error) {
	position, known := registry.index[normalizeIdentifier(identifier)]
	if !known {
		return ConfiguredService{}, UnknownServiceError{Identifier: identifier}
	}
	return registry.services[position], nil
}

// Contains reports whether the identifier is registered.
func (registry *Registry) Contains(identifier string) bool {
	_, known := registry.index[normalizeIdentifier(identifier)]
	return known
}

// Services returns configured services in catalog order.
func (registry *Registry) Services() []ConfiguredService {
	return append([]ConfiguredService{}, registry.services...)
}

// DetectService maps a remote URL to the first service, in catalog order, whose domain occurs in it.
func (registry *Registry) DetectService(remoteURL string) string {
	normalizedURL := strings.ToLower(strings.TrimSpace(remoteURL))
	if len(normalizedURL) == 0 {
		return shared.UnknownServiceIdentifierConstant
	}
	for _, configured := range registry.services {
		if !configured.Detectable() {
			continue
		}
		if strings.Contains(normalizedURL, strings.ToLower(configured.EffectiveDomain())) {
			return configured.Identifier
		}
	}
	return shared.UnknownServiceIdentifierConstant
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func joinAuthMethods(methods []AuthMethod) string {
	names := make([]string, len(methods))
	for index, method := range methods {
		names[index] = string(method)
	}
	return strings.Join(names, authMethodsSeparatorConstant)
}
