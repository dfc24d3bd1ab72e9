package repos

import (
	"time"

	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/discovery"
	"github.com/temirov/multipush/internal/execshell"
	"github.com/temirov/multipush/internal/gitrepo"
	"github.com/temirov/multipush/internal/ui"
)

// RepositoryDiscoverer finds git repositories below scan roots.
type RepositoryDiscoverer interface {
	DiscoverRepositories(roots []string) ([]string, error)
}

// ExecutorSettings tunes the default shell-backed git executor.
type ExecutorSettings struct {
	CommandTimeout       time.Duration
	MaxRetries           int
	HumanReadableLogging bool
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing gitrepo.GitExecutor, logger *zap.Logger, settings ExecutorSettings) (gitrepo.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	options := []execshell.ExecutorOption{
		execshell.WithCommandTimeout(settings.CommandTimeout),
		execshell.WithTransientRetries(settings.MaxRetries),
	}
	if settings.HumanReadableLogging {
		options = append(options, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), options...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager constructs a repository manager from the executor.
func ResolveGitRepositoryManager(executor gitrepo.GitExecutor) (*gitrepo.RepositoryManager, error) {
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveRepositoryDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveRepositoryDiscoverer(existing RepositoryDiscoverer, logger *zap.Logger, excludePatterns []string) (RepositoryDiscoverer, error) {
	if existing != nil {
		return existing, nil
	}
	return discovery.NewFilesystemRepositoryDiscoverer(logger, excludePatterns)
}
