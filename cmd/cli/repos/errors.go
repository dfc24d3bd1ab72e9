package repos

import (
	"fmt"

	"github.com/temirov/multipush/internal/shared"
)

const (
	repositoryFailuresTemplateConstant = "%d repositories failed"
	repositoryFailuresStoppedTemplate  = "%d repositories failed; batch stopped (%s)"
	configurationExistsTemplate        = "configuration file %s already exists; use --force to overwrite"
	noRepositoriesSelectedMessage      = "no repositories selected; use --repositories, --scan-path or --all"
)

// RepositoryFailuresError reports that at least one repository could not be configured.
type RepositoryFailuresError struct {
	Failed     int
	StopReason string
}

func (failuresError RepositoryFailuresError) Error() string {
	if len(failuresError.StopReason) > 0 {
		return fmt.Sprintf(repositoryFailuresStoppedTemplate, failuresError.Failed, failuresError.StopReason)
	}
	return fmt.Sprintf(repositoryFailuresTemplateConstant, failuresError.Failed)
}

// ConfigurationExistsError reports a refusal to overwrite an existing configuration file.
type ConfigurationExistsError struct {
	Path string
}

func (existsError ConfigurationExistsError) Error() string {
	return fmt.Sprintf(configurationExistsTemplate, existsError.Path)
}

// Kind classifies the error.
func (existsError ConfigurationExistsError) Kind() shared.ErrorKind {
	return shared.ErrorKindConfiguration
}

// UsageError reports invalid command-line input.
type UsageError struct {
	Message string
}

func (usageError UsageError) Error() string {
	return usageError.Message
}

// Kind classifies the error.
func (usageError UsageError) Kind() shared.ErrorKind {
	return shared.ErrorKindConfiguration
}
