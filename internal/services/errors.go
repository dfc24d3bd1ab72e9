package services

import (
	"fmt"

	"github.com/temirov/multipush/internal/shared"
)

const (
	configurationErrorTemplateConstant  = "service configuration: %s"
	unknownServiceErrorTemplateConstant = "unknown service %q"
)

// ConfigurationError reports an invalid catalog or invalid service settings.
type ConfigurationError struct {
	Message string
}

// Error describes the configuration problem.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Message)
}

// Kind classifies the error.
func (ConfigurationError) Kind() shared.ErrorKind {
	return shared.ErrorKindConfiguration
}

// UnknownServiceError reports a service identifier absent from the registry.
type UnknownServiceError struct {
	Identifier string
}

// Error describes the unknown service.
func (unknownServiceError UnknownServiceError) Error() string {
	return fmt.Sprintf(unknownServiceErrorTemplateConstant, unknownServiceError.Identifier)
}

// Kind classifies the error.
func (UnknownServiceError) Kind() shared.ErrorKind {
	return shared.ErrorKindConfiguration
}

func newConfigurationError(format string, arguments ...any) ConfigurationError {
	return ConfigurationError{Message: fmt.Sprintf(format, arguments...)}
}
