package repos

import (
	"strings"

	"github.com/juju/clock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/gitrepo"
	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/services"
	"github.com/temirov/multipush/internal/utils"
	pathutils "github.com/temirov/multipush/internal/utils/path"
)

const (
	sessionOpenedMessageConstant = "session ready"
	configFileLogFieldConstant   = "config_file"
	layersLogFieldConstant       = "layers"
	catalogLogFieldConstant      = "catalog"
	servicesLogFieldConstant     = "services"
	builtInCatalogDescription    = "built-in"
	serviceIdentifierSeparator   = ","
)

// CommandDependencies carries the collaborators shared by configure and analyze.
type CommandDependencies struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() multipush.Configuration
	HumanReadableLoggingProvider func() bool
	GitExecutor                  gitrepo.GitExecutor
	Discoverer                   RepositoryDiscoverer
	Clock                        clock.Clock
}

// session is the validated configuration together with the collaborators built from it.
type session struct {
	logger        *zap.Logger
	configuration multipush.Configuration
	registry      *services.Registry
	manager       *gitrepo.RepositoryManager
	discoverer    RepositoryDiscoverer
	clock         clock.Clock
}

func (dependencies CommandDependencies) resolveConfiguration() multipush.Configuration {
	if dependencies.ConfigurationProvider == nil {
		return multipush.DefaultConfiguration()
	}
	return dependencies.ConfigurationProvider()
}

func (dependencies CommandDependencies) humanReadableLogging() bool {
	if dependencies.HumanReadableLoggingProvider == nil {
		return false
	}
	return dependencies.HumanReadableLoggingProvider()
}

func (dependencies CommandDependencies) openSession(command *cobra.Command) (*session, error) {
	logger := resolveLogger(dependencies.LoggerProvider)
	configuration := dependencies.resolveConfiguration()
	if validationError := configuration.Validate(); validationError != nil {
		return nil, validationError
	}

	catalog, catalogDescription, catalogError := loadCatalog(configuration.Catalog)
	if catalogError != nil {
		return nil, catalogError
	}

	registry, registryError := services.NewRegistry(
		catalog,
		configuration.Services,
		multipush.ReferencedServices(configuration.MultiPush, configuration.Repositories.Overrides),
	)
	if registryError != nil {
		return nil, registryError
	}

	executor, executorError := ResolveGitExecutor(dependencies.GitExecutor, logger, ExecutorSettings{
		CommandTimeout:       configuration.Advanced.GitTimeout,
		MaxRetries:           configuration.Migration.MaxRetries,
		HumanReadableLogging: dependencies.humanReadableLogging(),
	})
	if executorError != nil {
		return nil, executorError
	}

	manager, managerError := ResolveGitRepositoryManager(executor)
	if managerError != nil {
		return nil, managerError
	}

	discoverer, discovererError := ResolveRepositoryDiscoverer(dependencies.Discoverer, logger, configuration.Repositories.ExcludePatterns)
	if discovererError != nil {
		return nil, discovererError
	}

	sessionClock := dependencies.Clock
	if sessionClock == nil {
		sessionClock = clock.WallClock
	}

	loadedConfiguration, _ := utils.NewCommandContextAccessor().LoadedConfiguration(command.Context())
	serviceIdentifiers := make([]string, 0)
	for _, configured := range registry.Services() {
		serviceIdentifiers = append(serviceIdentifiers, configured.Identifier)
	}
	logger.Debug(
		sessionOpenedMessageConstant,
		zap.String(configFileLogFieldConstant, loadedConfiguration.ConfigFileUsed),
		zap.Strings(layersLogFieldConstant, loadedConfiguration.LayersApplied),
		zap.String(catalogLogFieldConstant, catalogDescription),
		zap.String(servicesLogFieldConstant, strings.Join(serviceIdentifiers, serviceIdentifierSeparator)),
	)

	return &session{
		logger:        logger,
		configuration: configuration,
		registry:      registry,
		manager:       manager,
		discoverer:    discoverer,
		clock:         sessionClock,
	}, nil
}

func loadCatalog(catalogPath string) (services.Catalog, string, error) {
	trimmedPath := strings.TrimSpace(catalogPath)
	if len(trimmedPath) == 0 {
		catalog, catalogError := services.DefaultCatalog()
		return catalog, builtInCatalogDescription, catalogError
	}
	expandedPath := pathutils.NewHomeExpander().Expand(trimmedPath)
	catalog, catalogError := services.LoadCatalogFile(expandedPath)
	return catalog, expandedPath, catalogError
}
