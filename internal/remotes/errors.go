package remotes

import (
	"errors"
	"fmt"

	"github.com/temirov/multipush/internal/shared"
)

const (
	missingCredentialTemplateConstant = "service %s requires a token for push: set %s"
)

// ErrServiceResolverNotConfigured indicates the composer was built without a service resolver.
var ErrServiceResolverNotConfigured = errors.New("remotes: service resolver not configured")

// ErrCredentialProviderNotConfigured indicates the composer was built without a credential provider.
var ErrCredentialProviderNotConfigured = errors.New("remotes: credential provider not configured")

// MissingCredentialError reports a token-authenticated service whose token is unavailable.
type MissingCredentialError struct {
	Service             string
	EnvironmentVariable string
}

// Error names the environment variable to set.
func (missingCredentialError MissingCredentialError) Error() string {
	return fmt.Sprintf(missingCredentialTemplateConstant, missingCredentialError.Service, missingCredentialError.EnvironmentVariable)
}

// Kind classifies the error.
func (MissingCredentialError) Kind() shared.ErrorKind {
	return shared.ErrorKindMissingCredential
}
