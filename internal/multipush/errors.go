package multipush

import (
	"fmt"

	"github.com/temirov/multipush/internal/shared"
)

const (
	invalidConfigErrorTemplateConstant = "repository %s: invalid configuration: %s"
	configurationErrorTemplateConstant = "configuration %s: %s"
)

// InvalidConfigError reports an effective configuration that cannot be applied to a repository.
type InvalidConfigError struct {
	Repository string
	Message    string
}

// Error describes the invalid configuration.
func (invalidConfigError InvalidConfigError) Error() string {
	return fmt.Sprintf(invalidConfigErrorTemplateConstant, invalidConfigError.Repository, invalidConfigError.Message)
}

// Kind classifies the error.
func (InvalidConfigError) Kind() shared.ErrorKind {
	return shared.ErrorKindInvalidConfig
}

// ConfigurationError reports a malformed global setting.
type ConfigurationError struct {
	Key     string
	Message string
}

// Error describes the configuration problem.
func (configurationError ConfigurationError) Error() string {
	return fmt.Sprintf(configurationErrorTemplateConstant, configurationError.Key, configurationError.Message)
}

// Kind classifies the error.
func (ConfigurationError) Kind() shared.ErrorKind {
	return shared.ErrorKindConfiguration
}
