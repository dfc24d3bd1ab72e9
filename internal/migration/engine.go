package migration

import (
	"context"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/remotes"
	"github.com/temirov/multipush/internal/shared"
)

const (
	repositoryPathFieldNameConstant    = "repository_path"
	remoteNameFieldNameConstant        = "remote_name"
	backupPathFieldNameConstant        = "backup_path"
	pushURLFieldNameConstant           = "push_url"
	addedPushURLsFieldNameConstant     = "added_push_urls"
	removedPushURLsFieldNameConstant   = "removed_push_urls"
	fetchURLFieldNameConstant          = "fetch_url"
	outcomeFieldNameConstant           = "outcome"
	errorKindFieldNameConstant         = "error_kind"
	errorFieldNameConstant             = "error"
	remoteUpToDateMessageConstant      = "remote already matches plan"
	dryRunMessageConstant              = "dry run: remote would change"
	backupCreatedMessageConstant       = "git configuration backed up"
	remoteAppliedMessageConstant       = "remote configuration applied"
	repositoryFailedMessageConstant    = "repository migration failed"
	connectivityWarningMessageConstant = "push URL is not reachable"
	defaultProbeTimeoutConstant        = 10 * time.Second
)

// Outcome is the terminal state of a repository migration.
type Outcome string

// Supported outcomes.
const (
	OutcomeApplied       Outcome = "applied"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeSkippedDryRun Outcome = "skipped-dry-run"
	OutcomeFailed        Outcome = "failed"
	OutcomeNotProcessed  Outcome = "not-processed"
)

// RemoteManager reads and writes remote configuration of a repository.
type RemoteManager interface {
	ReadRemote(executionContext context.Context, repositoryPath string, remoteName string) (shared.RemoteURLs, bool, error)
	RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, fetchURL string) error
	AddPushURL(executionContext context.Context, repositoryPath string, remoteName string, pushURL string) error
	GitDirectory(executionContext context.Context, repositoryPath string) (string, error)
	ProbeRemote(executionContext context.Context, repositoryPath string, remoteURL string, timeout time.Duration) error
}

// Backupper snapshots the git configuration of a repository and returns the snapshot path.
type Backupper interface {
	Backup(gitDirectory string) (string, error)
}

// ApplyOptions controls a single repository migration.
type ApplyOptions struct {
	DryRun           bool
	CreateBackup     bool
	StopOnFirstError bool
	TestConnectivity bool
}

// MigrationResult captures the observable outcome for one repository.
type MigrationResult struct {
	RepositoryPath       string             `json:"path"`
	RepositoryName       string             `json:"name"`
	Outcome              Outcome            `json:"outcome"`
	BackupPath           string             `json:"backup_path,omitempty"`
	Delta                RemoteDelta        `json:"delta"`
	Plan                 remotes.RemotePlan `json:"plan"`
	ErrorKind            shared.ErrorKind   `json:"error_kind,omitempty"`
	ErrorMessage         string             `json:"error_message,omitempty"`
	ConnectivityWarnings []string           `json:"connectivity_warnings,omitempty"`
	err                  error
}

// Err returns the failure that produced a failed outcome.
func (result MigrationResult) Err() error {
	return result.err
}

// BackedUp reports whether a configuration snapshot was taken.
func (result MigrationResult) BackedUp() bool {
	return len(result.BackupPath) > 0
}

// EngineDependencies describes the collaborators of an Engine.
type EngineDependencies struct {
	Logger        *zap.Logger
	RemoteManager RemoteManager
	Backupper     Backupper
	Clock         clock.Clock
	ProbeTimeout  time.Duration
}

// Engine applies remote plans to repositories.
type Engine struct {
	logger        *zap.Logger
	remoteManager RemoteManager
	backupper     Backupper
	clock         clock.Clock
	probeTimeout  time.Duration
}

// NewEngine validates dependencies and constructs an Engine.
func NewEngine(dependencies EngineDependencies) (*Engine, error) {
	if dependencies.RemoteManager == nil {
		return nil, ErrGitManagerNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engineClock := dependencies.Clock
	if engineClock == nil {
		engineClock = clock.WallClock
	}
	backupper := dependencies.Backupper
	if backupper == nil {
		backupper = NewConfigurationBackupper(engineClock)
	}
	probeTimeout := dependencies.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeoutConstant
	}

	return &Engine{
		logger:        logger,
		remoteManager: dependencies.RemoteManager,
		backupper:     backupper,
		clock:         engineClock,
		probeTimeout:  probeTimeout,
	}, nil
}

// Apply brings the repository's remote in line with the plan.
func (engine *Engine) Apply(executionContext context.Context, identity shared.RepositoryIdentity, plan remotes.RemotePlan, options ApplyOptions) MigrationResult {
	result := MigrationResult{
		RepositoryPath: identity.Path,
		RepositoryName: identity.Name,
		Plan:           plan.Redacted(),
	}
	repositoryLogger := engine.logger.With(
		zap.String(repositoryPathFieldNameConstant, identity.Path),
		zap.String(remoteNameFieldNameConstant, plan.RemoteName),
	)

	current, exists, readError := engine.remoteManager.ReadRemote(executionContext, identity.Path, plan.RemoteName)
	if readError != nil {
		return engine.fail(repositoryLogger, result, readError)
	}

	delta := ComputeDelta(current, exists, plan)
	result.Delta = delta.Redacted()
	if delta.Empty() {
		result.Outcome = OutcomeSkipped
		repositoryLogger.Info(remoteUpToDateMessageConstant)
		return result
	}

	if options.DryRun {
		result.Outcome = OutcomeSkippedDryRun
		repositoryLogger.Info(
			dryRunMessageConstant,
			zap.String(fetchURLFieldNameConstant, result.Delta.FetchTo),
			zap.Strings(addedPushURLsFieldNameConstant, result.Delta.AddedPushURLs),
			zap.Strings(removedPushURLsFieldNameConstant, result.Delta.RemovedPushURLs),
		)
		return result
	}

	if options.CreateBackup {
		backupPath, backupError := engine.backup(executionContext, identity.Path)
		if backupError != nil {
			return engine.fail(repositoryLogger, result, BackupError{Repository: identity.Path, Cause: backupError})
		}
		result.BackupPath = backupPath
		repositoryLogger.Info(backupCreatedMessageConstant, zap.String(backupPathFieldNameConstant, backupPath))
	}

	if mutationError := engine.recreateRemote(executionContext, identity.Path, exists, plan); mutationError != nil {
		return engine.fail(repositoryLogger, result, mutationError)
	}

	if verificationError := engine.verify(executionContext, identity.Path, plan); verificationError != nil {
		return engine.fail(repositoryLogger, result, verificationError)
	}

	if options.TestConnectivity {
		result.ConnectivityWarnings = engine.probe(executionContext, repositoryLogger, identity.Path, plan.PushURLs)
	}

	result.Outcome = OutcomeApplied
	repositoryLogger.Info(remoteAppliedMessageConstant, zap.String(outcomeFieldNameConstant, string(result.Outcome)))
	return result
}

func (engine *Engine) backup(executionContext context.Context, repositoryPath string) (string, error) {
	gitDirectory, directoryError := engine.remoteManager.GitDirectory(executionContext, repositoryPath)
	if directoryError != nil {
		return "", directoryError
	}
	return engine.backupper.Backup(gitDirectory)
}

func (engine *Engine) recreateRemote(executionContext context.Context, repositoryPath string, exists bool, plan remotes.RemotePlan) error {
	if exists {
		if removeError := engine.remoteManager.RemoveRemote(executionContext, repositoryPath, plan.RemoteName); removeError != nil {
			return removeError
		}
	}
	if addError := engine.remoteManager.AddRemote(executionContext, repositoryPath, plan.RemoteName, plan.FetchURL); addError != nil {
		return addError
	}
	for _, pushURL := range plan.PushURLs {
		if pushError := engine.remoteManager.AddPushURL(executionContext, repositoryPath, plan.RemoteName, pushURL); pushError != nil {
			return pushError
		}
	}
	return nil
}

func (engine *Engine) verify(executionContext context.Context, repositoryPath string, plan remotes.RemotePlan) error {
	actual, exists, readError := engine.remoteManager.ReadRemote(executionContext, repositoryPath, plan.RemoteName)
	if readError != nil {
		return readError
	}
	if exists && matchesPlan(actual, plan) {
		return nil
	}
	return VerificationFailureError{
		Repository:       repositoryPath,
		RemoteName:       plan.RemoteName,
		ExpectedFetchURL: plan.FetchURL,
		ExpectedPushURLs: plan.PushURLs,
		Actual:           actual,
	}
}

func (engine *Engine) probe(executionContext context.Context, repositoryLogger *zap.Logger, repositoryPath string, pushURLs []string) []string {
	var warnings []string
	for _, pushURL := range pushURLs {
		probeError := engine.remoteManager.ProbeRemote(executionContext, repositoryPath, pushURL, engine.probeTimeout)
		if probeError == nil {
			continue
		}
		redactedURL := shared.RedactURL(pushURL)
		repositoryLogger.Warn(connectivityWarningMessageConstant, zap.String(pushURLFieldNameConstant, redactedURL), zap.Error(probeError))
		warnings = append(warnings, redactedURL)
	}
	return warnings
}

func (engine *Engine) fail(repositoryLogger *zap.Logger, result MigrationResult, failure error) MigrationResult {
	result.Outcome = OutcomeFailed
	result.err = failure
	result.ErrorKind = shared.KindOf(failure)
	result.ErrorMessage = shared.RedactURL(failure.Error())
	repositoryLogger.Error(repositoryFailedMessageConstant, zap.String(errorKindFieldNameConstant, string(result.ErrorKind)), zap.String(errorFieldNameConstant, result.ErrorMessage))
	return result
}
