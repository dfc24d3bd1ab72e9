package repos

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/analyzer"
	flagutils "github.com/temirov/multipush/internal/utils/flags"
	pathutils "github.com/temirov/multipush/internal/utils/path"
)

const (
	repositoriesFlagNameConstant    = "repositories"
	repositoriesFlagUsageConstant   = "Comma-separated repository names (looked up under scan paths) or paths."
	scanPathFlagNameConstant        = "scan-path"
	scanPathFlagUsageConstant       = "Discover repositories below this path (repeatable)."
	allFlagNameConstant             = "all"
	allFlagUsageConstant            = "Process every repository below the configured scan paths."
	formatFlagNameConstant          = "format"
	formatFlagUsageConstant         = "Output format."
	outputFlagNameConstant          = "output"
	repositoryNotFoundLogMessage    = "repository not found under scan paths"
	repositoryNameLogFieldConstant  = "repository"
	scanPathsLogFieldConstant       = "scan_paths"
	selectedRepositoriesLogMessage  = "repositories selected"
	repositoryCountLogFieldConstant = "count"
)

var repositoryPathSanitizer = pathutils.NewRepositoryPathSanitizerWithConfiguration(nil, pathutils.RepositoryPathSanitizerConfiguration{
	CanonicalizePaths: true,
})

var discoveryRootSanitizer = pathutils.NewRepositoryPathSanitizerWithConfiguration(nil, pathutils.RepositoryPathSanitizerConfiguration{
	CanonicalizePaths: true,
	PruneNestedPaths:  true,
})

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// RepositorySelection captures how the user chose repositories.
type RepositorySelection struct {
	Repositories []string
	ScanPaths    []string
	All          bool
}

// Empty reports whether no selection flag was given.
func (selection RepositorySelection) Empty() bool {
	return len(repositoryPathSanitizer.Sanitize(selection.Repositories)) == 0 &&
		len(repositoryPathSanitizer.Sanitize(selection.ScanPaths)) == 0 &&
		!selection.All
}

func formatFlagUsage() string {
	return flagutils.FormatChoiceUsage(
		string(analyzer.FormatSummary),
		[]string{string(analyzer.FormatSummary), string(analyzer.FormatDetailed), string(analyzer.FormatJSON)},
		formatFlagUsageConstant,
	)
}

func bindSelectionFlags(command *cobra.Command, selection *RepositorySelection) {
	command.Flags().StringSliceVar(&selection.Repositories, repositoriesFlagNameConstant, nil, repositoriesFlagUsageConstant)
	command.Flags().StringArrayVar(&selection.ScanPaths, scanPathFlagNameConstant, nil, scanPathFlagUsageConstant)
	command.Flags().BoolVar(&selection.All, allFlagNameConstant, false, allFlagUsageConstant)
}

// resolveRepositoryPaths turns a selection into repository directories. Named repositories resolve to the first
// configured scan path containing them; unknown names are logged and skipped.
func resolveRepositoryPaths(logger *zap.Logger, discoverer RepositoryDiscoverer, selection RepositorySelection, configuredScanPaths []string) ([]string, error) {
	scanPaths := repositoryPathSanitizer.Sanitize(configuredScanPaths)
	var candidates []string

	for _, repository := range selection.Repositories {
		expanded := pathutils.NewHomeExpander().Expand(repository)
		if filepath.IsAbs(expanded) {
			candidates = append(candidates, expanded)
			continue
		}
		if located, found := locateRepository(expanded, scanPaths); found {
			candidates = append(candidates, located)
			continue
		}
		logger.Warn(repositoryNotFoundLogMessage, zap.String(repositoryNameLogFieldConstant, repository), zap.Strings(scanPathsLogFieldConstant, scanPaths))
	}

	rootCandidates := append([]string{}, selection.ScanPaths...)
	if selection.All {
		rootCandidates = append(rootCandidates, scanPaths...)
	}
	discoveryRoots := discoveryRootSanitizer.Sanitize(rootCandidates)
	if len(discoveryRoots) > 0 {
		discovered, discoveryError := discoverer.DiscoverRepositories(discoveryRoots)
		if discoveryError != nil {
			return nil, discoveryError
		}
		candidates = append(candidates, discovered...)
	}

	repositories := repositoryPathSanitizer.Sanitize(candidates)
	logger.Info(selectedRepositoriesLogMessage, zap.Int(repositoryCountLogFieldConstant, len(repositories)))
	return repositories, nil
}

func locateRepository(name string, scanPaths []string) (string, bool) {
	for _, scanPath := range scanPaths {
		candidate := filepath.Join(scanPath, name)
		if info, statError := os.Stat(candidate); statError == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
