package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	customDomainPlaceholderConstant        = "{custom_domain}"
	catalogParseFailureTemplateConstant    = "unable to parse service catalog: %v"
	catalogReadFailureTemplateConstant     = "unable to read service catalog %s: %v"
	catalogMissingServicesMessageConstant  = "service catalog must define a services mapping"
	catalogEmptyMessageConstant            = "service catalog defines no services"
	catalogDuplicateServiceTemplate        = "service %q is defined more than once"
	catalogEntryDecodeTemplateConstant     = "service %q: %v"
	catalogMissingFieldTemplateConstant    = "service %q: %s is required"
	catalogMissingTokenFieldsTemplate      = "service %q: token authentication requires auth_url_template and token_env_var"
	catalogMissingSSHTemplateTemplate      = "service %q: ssh authentication requires ssh_url_template"
	catalogCustomDomainPlaceholderTemplate = "service %q: domain placeholder requires requires_custom_domain: true"
	catalogFieldNameConstant               = "name"
	catalogFieldDomainConstant             = "domain"
	catalogFieldURLTemplateConstant        = "url_template"
	catalogFieldAuthMethodsConstant        = "auth_methods"
)

//go:embed default_services.yaml
var embeddedDefaultCatalog []byte

// AuthMethod enumerates how a service authenticates pushes.
type AuthMethod string

// Known authentication methods. Catalogs may declare others; they render the plain URL template.
const (
	AuthMethodHTTPS AuthMethod = "https"
	AuthMethodToken AuthMethod = "token"
	AuthMethodSSH   AuthMethod = "ssh"
)

// Service is an immutable catalog entry.
type Service struct {
	Identifier               string
	Name                     string
	Domain                   string
	URLTemplate              string
	AuthURLTemplate          string
	SSHURLTemplate           string
	APIBase                  string
	AuthMethods              []AuthMethod
	TokenEnvironmentVariable string
	RequiresCustomDomain     bool
}

// Supports reports whether the service declares the authentication method.
func (service Service) Supports(method AuthMethod) bool {
	for _, supported := range service.AuthMethods {
		if supported == method {
			return true
		}
	}
	return false
}

// DefaultAuthMethod prefers plain https and otherwise the first declared method.
func (service Service) DefaultAuthMethod() AuthMethod {
	if service.Supports(AuthMethodHTTPS) {
		return AuthMethodHTTPS
	}
	if len(service.AuthMethods) == 0 {
		return AuthMethodHTTPS
	}
	return service.AuthMethods[0]
}

type catalogDocument struct {
	Services yaml.Node `yaml:"services"`
}

type serviceDefinition struct {
	Name                 string   `yaml:"name"`
	Domain               string   `yaml:"domain"`
	URLTemplate          string   `yaml:"url_template"`
	AuthURLTemplate      string   `yaml:"auth_url_template"`
	SSHURLTemplate       string   `yaml:"ssh_url_template"`
	APIBase              string   `yaml:"api_base"`
	AuthMethods          []string `yaml:"auth_methods"`
	TokenEnvVar          string   `yaml:"token_env_var"`
	RequiresCustomDomain bool     `yaml:"requires_custom_domain"`
}

// Catalog is an ordered collection of services.
type Catalog struct {
	services []Service
}

// DefaultCatalog parses the catalog embedded in the binary.
func DefaultCatalog() (Catalog, error) {
	return LoadCatalog(embeddedDefaultCatalog)
}

// LoadCatalogFile reads and parses a catalog from disk.
func LoadCatalogFile(catalogPath string) (Catalog, error) {
	contents, readError := os.ReadFile(catalogPath)
	if readError != nil {
		return Catalog{}, newConfigurationError(catalogReadFailureTemplateConstant, catalogPath, readError)
	}
	return LoadCatalog(contents)
}

// LoadCatalog parses catalog YAML, keeping services in document order and enforcing required fields.
func LoadCatalog(contents []byte) (Catalog, error) {
	var document catalogDocument
	if unmarshalError := yaml.Unmarshal(contents, &document); unmarshalError != nil {
		return Catalog{}, newConfigurationError(catalogParseFailureTemplateConstant, unmarshalError)
	}

	servicesNode := document.Services
	if servicesNode.Kind != yaml.MappingNode {
		return Catalog{}, newConfigurationError(catalogMissingServicesMessageConstant)
	}

	catalog := Catalog{}
	seenIdentifiers := make(map[string]struct{})
	for contentIndex := 0; contentIndex+1 < len(servicesNode.Content); contentIndex += 2 {
		identifier := strings.ToLower(strings.TrimSpace(servicesNode.Content[contentIndex].Value))
		if _, duplicate := seenIdentifiers[identifier]; duplicate {
			return Catalog{}, newConfigurationError(catalogDuplicateServiceTemplate, identifier)
		}
		seenIdentifiers[identifier] = struct{}{}

		var definition serviceDefinition
		if decodeError := servicesNode.Content[contentIndex+1].Decode(&definition); decodeError != nil {
			return Catalog{}, newConfigurationError(catalogEntryDecodeTemplateConstant, identifier, decodeError)
		}

		service, validationError := definition.toService(identifier)
		if validationError != nil {
			return Catalog{}, validationError
		}
		catalog.services = append(catalog.services, service)
	}

	if len(catalog.services) == 0 {
		return Catalog{}, newConfigurationError(catalogEmptyMessageConstant)
	}
	return catalog, nil
}

// Services returns the catalog entries in document order.
func (catalog Catalog) Services() []Service {
	return append([]Service{}, catalog.services...)
}

func (definition serviceDefinition) toService(identifier string) (Service, error) {
	requiredFields := []struct {
		name  string
		value string
	}{
		{name: catalogFieldNameConstant, value: definition.Name},
		{name: catalogFieldDomainConstant, value: definition.Domain},
		{name: catalogFieldURLTemplateConstant, value: definition.URLTemplate},
	}
	for _, requiredField := range requiredFields {
		if len(strings.TrimSpace(requiredField.value)) == 0 {
			return Service{}, newConfigurationError(catalogMissingFieldTemplateConstant, identifier, requiredField.name)
		}
	}

	authMethods := make([]AuthMethod, 0, len(definition.AuthMethods))
	for _, rawMethod := range definition.AuthMethods {
		trimmedMethod := strings.ToLower(strings.TrimSpace(rawMethod))
		if len(trimmedMethod) > 0 {
			authMethods = append(authMethods, AuthMethod(trimmedMethod))
		}
	}
	if len(authMethods) == 0 {
		return Service{}, newConfigurationError(catalogMissingFieldTemplateConstant, identifier, catalogFieldAuthMethodsConstant)
	}

	service := Service{
		Identifier:               identifier,
		Name:                     strings.TrimSpace(definition.Name),
		Domain:                   strings.TrimSpace(definition.Domain),
		URLTemplate:              strings.TrimSpace(definition.URLTemplate),
		AuthURLTemplate:          strings.TrimSpace(definition.AuthURLTemplate),
		SSHURLTemplate:           strings.TrimSpace(definition.SSHURLTemplate),
		APIBase:                  strings.TrimSpace(definition.APIBase),
		AuthMethods:              authMethods,
		TokenEnvironmentVariable: strings.TrimSpace(definition.TokenEnvVar),
		RequiresCustomDomain:     definition.RequiresCustomDomain,
	}

	if service.Supports(AuthMethodToken) && (len(service.AuthURLTemplate) == 0 || len(service.TokenEnvironmentVariable) == 0) {
		return Service{}, newConfigurationError(catalogMissingTokenFieldsTemplate, identifier)
	}
	if service.Supports(AuthMethodSSH) && len(service.SSHURLTemplate) == 0 {
		return Service{}, newConfigurationError(catalogMissingSSHTemplateTemplate, identifier)
	}
	if strings.Contains(service.Domain, customDomainPlaceholderConstant) && !service.RequiresCustomDomain {
		return Service{}, newConfigurationError(catalogCustomDomainPlaceholderTemplate, identifier)
	}

	return service, nil
}

// String renders the service for diagnostics.
func (service Service) String() string {
	return fmt.Sprintf("%s (%s)", service.Identifier, service.Name)
}
