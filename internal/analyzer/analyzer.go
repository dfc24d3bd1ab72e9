package analyzer

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/gitrepo"
	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/shared"
)

const (
	repositoryPathFieldNameConstant = "repository_path"
	bucketFieldNameConstant         = "bucket"
	repositoryCountFieldName        = "repositories"
	analyzingMessageConstant        = "analyzing repository"
	analyzedMessageConstant         = "repository analyzed"
	inspectionFailedMessageConstant = "unable to read repository remotes"
	statusFailedMessageConstant     = "unable to read repository status"
	analysisStartedMessageConstant  = "analysis started"
	detachedBranchNameConstant      = "detached"
)

// ErrInspectorNotConfigured indicates the analyzer was constructed without a repository inspector.
var ErrInspectorNotConfigured = errors.New("analyzer: repository inspector not configured")

// ErrRegistryNotConfigured indicates the analyzer was constructed without a service registry.
var ErrRegistryNotConfigured = errors.New("analyzer: service registry not configured")

// RepositoryInspector reads repository state without mutating it.
type RepositoryInspector interface {
	ListRemotes(executionContext context.Context, repositoryPath string) (map[string]shared.RemoteURLs, error)
	CurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	HasUncommittedChanges(executionContext context.Context, repositoryPath string) (bool, error)
	LastCommit(executionContext context.Context, repositoryPath string) (gitrepo.CommitSummary, bool, error)
	GitDirectory(executionContext context.Context, repositoryPath string) (string, error)
}

// ServiceRegistry detects services behind URLs and answers membership queries.
type ServiceRegistry interface {
	ServiceDetector
	multipush.ServiceLookup
}

// RepositoryStatus captures worktree facts reported alongside the classification.
type RepositoryStatus struct {
	CurrentBranch         string                 `json:"current_branch"`
	HasUncommittedChanges bool                   `json:"has_uncommitted_changes"`
	LastCommit            *gitrepo.CommitSummary `json:"last_commit,omitempty"`
	GitSizeBytes          int64                  `json:"git_size_bytes"`
}

// RepositoryAnalysis is the per-repository section of a report.
type RepositoryAnalysis struct {
	Name           string           `json:"name"`
	Path           string           `json:"path"`
	Remotes        []RemoteDetail   `json:"remotes"`
	Status         RepositoryStatus `json:"status"`
	Classification Classification   `json:"classification"`
	Error          string           `json:"error,omitempty"`
	AnalyzedAt     time.Time        `json:"analyzed_at"`
}

// Dependencies describes the collaborators of an Analyzer.
type Dependencies struct {
	Logger    *zap.Logger
	Inspector RepositoryInspector
	Registry  ServiceRegistry
	Global    multipush.GlobalConfiguration
	Overrides map[string]multipush.Override
	Clock     clock.Clock
}

// Analyzer inspects and classifies repositories.
type Analyzer struct {
	logger    *zap.Logger
	inspector RepositoryInspector
	registry  ServiceRegistry
	global    multipush.GlobalConfiguration
	overrides map[string]multipush.Override
	clock     clock.Clock
}

// NewAnalyzer validates dependencies and constructs an Analyzer.
func NewAnalyzer(dependencies Dependencies) (*Analyzer, error) {
	if dependencies.Inspector == nil {
		return nil, ErrInspectorNotConfigured
	}
	if dependencies.Registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	analyzerClock := dependencies.Clock
	if analyzerClock == nil {
		analyzerClock = clock.WallClock
	}
	return &Analyzer{
		logger:    logger,
		inspector: dependencies.Inspector,
		registry:  dependencies.Registry,
		global:    dependencies.Global,
		overrides: dependencies.Overrides,
		clock:     analyzerClock,
	}, nil
}

// Inspect reads the current remotes of a repository.
func (analyzer *Analyzer) Inspect(executionContext context.Context, repositoryPath string) (shared.RepositoryIdentity, error) {
	remotes, listError := analyzer.inspector.ListRemotes(executionContext, repositoryPath)
	if listError != nil {
		return shared.NewRepositoryIdentity(repositoryPath, nil), listError
	}
	return shared.NewRepositoryIdentity(repositoryPath, remotes), nil
}

// Analyze inspects and classifies every repository in order and aggregates a Report.
func (analyzer *Analyzer) Analyze(executionContext context.Context, repositoryPaths []string) Report {
	analyzer.logger.Info(analysisStartedMessageConstant, zap.Int(repositoryCountFieldName, len(repositoryPaths)))

	report := Report{
		AnalyzedAt:   analyzer.clock.Now(),
		Target:       Target{PrimaryService: analyzer.global.PrimaryService, PushServices: analyzer.global.PushServices},
		Repositories: make([]RepositoryAnalysis, 0, len(repositoryPaths)),
	}
	for _, repositoryPath := range repositoryPaths {
		if executionContext.Err() != nil {
			break
		}
		report.Repositories = append(report.Repositories, analyzer.analyzeRepository(executionContext, repositoryPath))
	}
	report.Summary = Summarize(report.Repositories)
	return report
}

func (analyzer *Analyzer) analyzeRepository(executionContext context.Context, repositoryPath string) RepositoryAnalysis {
	repositoryLogger := analyzer.logger.With(zap.String(repositoryPathFieldNameConstant, repositoryPath))
	repositoryLogger.Debug(analyzingMessageConstant)

	identity, inspectError := analyzer.Inspect(executionContext, repositoryPath)
	analysis := RepositoryAnalysis{Name: identity.Name, Path: identity.Path, AnalyzedAt: analyzer.clock.Now()}
	if inspectError != nil {
		repositoryLogger.Warn(inspectionFailedMessageConstant, zap.Error(inspectError))
		analysis.Error = shared.RedactURL(inspectError.Error())
		analysis.Remotes = []RemoteDetail{}
		analysis.Classification = Classification{
			Bucket:              BucketUnreadable,
			MigrationComplexity: ComplexitySimple,
			CurrentServices:     []string{},
			DesiredServices:     []string{},
			Recommendations:     []string{},
		}
		return analysis
	}

	analysis.Remotes = DescribeRemotes(identity, analyzer.registry)
	analysis.Status = analyzer.status(executionContext, repositoryLogger, repositoryPath)

	effective, resolutionError := multipush.ResolveEffectiveConfig(identity.Name, analyzer.global, analyzer.overrides, analyzer.registry)
	analysis.Classification = Classify(identity, analyzer.registry, effective, resolutionError)
	repositoryLogger.Info(analyzedMessageConstant, zap.String(bucketFieldNameConstant, string(analysis.Classification.Bucket)))
	return analysis
}

func (analyzer *Analyzer) status(executionContext context.Context, repositoryLogger *zap.Logger, repositoryPath string) RepositoryStatus {
	status := RepositoryStatus{CurrentBranch: detachedBranchNameConstant}

	if branch, branchError := analyzer.inspector.CurrentBranch(executionContext, repositoryPath); branchError != nil {
		repositoryLogger.Debug(statusFailedMessageConstant, zap.Error(branchError))
	} else if len(branch) > 0 {
		status.CurrentBranch = branch
	}

	if dirty, statusError := analyzer.inspector.HasUncommittedChanges(executionContext, repositoryPath); statusError != nil {
		repositoryLogger.Debug(statusFailedMessageConstant, zap.Error(statusError))
	} else {
		status.HasUncommittedChanges = dirty
	}

	if commit, found, commitError := analyzer.inspector.LastCommit(executionContext, repositoryPath); commitError != nil {
		repositoryLogger.Debug(statusFailedMessageConstant, zap.Error(commitError))
	} else if found {
		status.LastCommit = &commit
	}

	if gitDirectory, directoryError := analyzer.inspector.GitDirectory(executionContext, repositoryPath); directoryError != nil {
		repositoryLogger.Debug(statusFailedMessageConstant, zap.Error(directoryError))
	} else {
		status.GitSizeBytes = DirectorySize(gitDirectory)
	}
	return status
}

// DirectorySize sums regular file sizes below root; unreadable entries are ignored.
func DirectorySize(root string) int64 {
	var totalSize int64
	_ = filepath.WalkDir(root, func(_ string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, infoError := entry.Info()
		if infoError == nil {
			totalSize += info.Size()
		}
		return nil
	})
	return totalSize
}
