package cli

import (
	"errors"

	"github.com/temirov/multipush/cmd/cli/repos"
	"github.com/temirov/multipush/internal/shared"
)

// Process exit codes.
const (
	ExitCodeSuccessConstant            = 0
	ExitCodeFailureConstant            = 1
	ExitCodeRepositoryFailuresConstant = 2
)

// PresetError reports an unknown embedded preset.
type PresetError struct {
	Message string
}

func (presetError PresetError) Error() string {
	return presetError.Message
}

// Kind classifies the error.
func (PresetError) Kind() shared.ErrorKind {
	return shared.ErrorKindConfiguration
}

// ConfigurationLoadError reports configuration that could not be read or decoded.
type ConfigurationLoadError struct {
	Cause error
}

func (loadError ConfigurationLoadError) Error() string {
	return loadError.Cause.Error()
}

// Unwrap returns the underlying failure.
func (loadError ConfigurationLoadError) Unwrap() error {
	return loadError.Cause
}

// Kind classifies the error.
func (ConfigurationLoadError) Kind() shared.ErrorKind {
	return shared.ErrorKindConfiguration
}

// ExitCode maps a command error to the process exit status: repository failures exit 2, every other error exits 1.
func ExitCode(executionError error) int {
	if executionError == nil {
		return ExitCodeSuccessConstant
	}
	var failuresError repos.RepositoryFailuresError
	if errors.As(executionError, &failuresError) {
		return ExitCodeRepositoryFailuresConstant
	}
	return ExitCodeFailureConstant
}
