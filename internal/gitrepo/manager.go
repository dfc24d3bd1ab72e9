package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/temirov/multipush/internal/execshell"
	"github.com/temirov/multipush/internal/shared"
)

const (
	gitConfigSubcommandConstant      = "config"
	gitGetAllFlagConstant            = "--get-all"
	gitRemoteSubcommandConstant      = "remote"
	gitRemoveSubcommandConstant      = "remove"
	gitAddSubcommandConstant         = "add"
	gitSetURLSubcommandConstant      = "set-url"
	gitAddFlagConstant               = "--add"
	gitPushFlagConstant              = "--push"
	gitRevParseSubcommandConstant    = "rev-parse"
	gitDirFlagConstant               = "--git-dir"
	gitBranchSubcommandConstant      = "branch"
	gitShowCurrentFlagConstant       = "--show-current"
	gitStatusSubcommandConstant      = "status"
	gitPorcelainFlagConstant         = "--porcelain"
	gitLogSubcommandConstant         = "log"
	gitLogLimitFlagConstant          = "-1"
	gitLogFormatFlagConstant         = "--format=%H%x1f%an%x1f%ae%x1f%aI%x1f%s"
	gitLsRemoteSubcommandConstant    = "ls-remote"
	gitExitCodeFlagConstant          = "--exit-code"
	gitHeadsFlagConstant             = "--heads"
	remoteURLKeyTemplateConstant     = "remote.%s.url"
	remotePushURLKeyTemplateConstant = "remote.%s.pushurl"
	commitFieldSeparatorConstant     = "\x1f"
	commitFieldCountConstant         = 5
	missingConfigKeyExitCodeConstant = 1
	repositoryPathRequiredMessage    = "repository path required"
	remoteNameRequiredMessage        = "remote name required"
	remoteURLRequiredMessage         = "remote url required"
	unexpectedCommitFormatTemplate   = "unexpected commit format: %q"
	wrappedOperationErrorTemplate    = "%s: %w"
	readRemoteOperationTemplate      = "read remote %s"
	listRemotesOperationConstant     = "list remotes"
	removeRemoteOperationTemplate    = "remove remote %s"
	addRemoteOperationTemplate       = "add remote %s"
	addPushURLOperationTemplate      = "add push url to %s"
	gitDirectoryOperationConstant    = "resolve git directory"
	currentBranchOperationConstant   = "read current branch"
	worktreeStatusOperationConstant  = "read worktree status"
	lastCommitOperationConstant      = "read last commit"
	probeRemoteOperationTemplate     = "probe %s"
)

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New("gitrepo: git executor not configured")

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// InvalidArgumentError reports a missing required argument.
type InvalidArgumentError struct {
	Message string
}

// Error describes the invalid argument.
func (argumentError InvalidArgumentError) Error() string {
	return argumentError.Message
}

// CommitSummary describes the most recent commit on the current branch.
type CommitSummary struct {
	Hash        string    `json:"hash"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Date        time.Time `json:"date"`
	Subject     string    `json:"subject"`
}

// RepositoryManager performs git operations against local repositories.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// ReadRemote returns the fetch and explicit push URLs of a remote; the boolean reports whether the remote exists.
func (manager *RepositoryManager) ReadRemote(executionContext context.Context, repositoryPath string, remoteName string) (shared.RemoteURLs, bool, error) {
	if argumentError := requireArguments(repositoryPath, remoteName); argumentError != nil {
		return shared.RemoteURLs{}, false, argumentError
	}

	fetchURLs, fetchError := manager.readConfigValues(executionContext, repositoryPath, fmt.Sprintf(remoteURLKeyTemplateConstant, remoteName))
	if fetchError != nil {
		return shared.RemoteURLs{}, false, wrapOperation(fmt.Sprintf(readRemoteOperationTemplate, remoteName), fetchError)
	}
	pushURLs, pushError := manager.readConfigValues(executionContext, repositoryPath, fmt.Sprintf(remotePushURLKeyTemplateConstant, remoteName))
	if pushError != nil {
		return shared.RemoteURLs{}, false, wrapOperation(fmt.Sprintf(readRemoteOperationTemplate, remoteName), pushError)
	}

	exists := len(fetchURLs) > 0 || len(pushURLs) > 0
	return shared.RemoteURLs{FetchURLs: fetchURLs, PushURLs: pushURLs}, exists, nil
}

// ListRemotes reads every configured remote.
func (manager *RepositoryManager) ListRemotes(executionContext context.Context, repositoryPath string) (map[string]shared.RemoteURLs, error) {
	if argumentError := requireArguments(repositoryPath, shared.OriginRemoteNameConstant); argumentError != nil {
		return nil, argumentError
	}

	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, wrapOperation(listRemotesOperationConstant, executionError)
	}

	remoteNames := splitLines(result.StandardOutput)
	sort.Strings(remoteNames)

	remotes := make(map[string]shared.RemoteURLs, len(remoteNames))
	for _, remoteName := range remoteNames {
		remote, _, readError := manager.ReadRemote(executionContext, repositoryPath, remoteName)
		if readError != nil {
			return nil, readError
		}
		remotes[remoteName] = remote
	}
	return remotes, nil
}

// RemoveRemote deletes a remote and its configuration section.
func (manager *RepositoryManager) RemoveRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	if argumentError := requireArguments(repositoryPath, remoteName); argumentError != nil {
		return argumentError
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoveSubcommandConstant, remoteName},
		WorkingDirectory: repositoryPath,
	})
	return wrapOperation(fmt.Sprintf(removeRemoteOperationTemplate, remoteName), executionError)
}

// AddRemote creates a remote with a single fetch URL.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, fetchURL string) error {
	if argumentError := requireArguments(repositoryPath, remoteName); argumentError != nil {
		return argumentError
	}
	if len(strings.TrimSpace(fetchURL)) == 0 {
		return InvalidArgumentError{Message: remoteURLRequiredMessage}
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitAddSubcommandConstant, remoteName, fetchURL},
		WorkingDirectory: repositoryPath,
	})
	return wrapOperation(fmt.Sprintf(addRemoteOperationTemplate, remoteName), executionError)
}

// AddPushURL appends a push URL to an existing remote.
func (manager *RepositoryManager) AddPushURL(executionContext context.Context, repositoryPath string, remoteName string, pushURL string) error {
	if argumentError := requireArguments(repositoryPath, remoteName); argumentError != nil {
		return argumentError
	}
	if len(strings.TrimSpace(pushURL)) == 0 {
		return InvalidArgumentError{Message: remoteURLRequiredMessage}
	}
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitSetURLSubcommandConstant, gitAddFlagConstant, gitPushFlagConstant, remoteName, pushURL},
		WorkingDirectory: repositoryPath,
	})
	return wrapOperation(fmt.Sprintf(addPushURLOperationTemplate, remoteName), executionError)
}

// GitDirectory returns the absolute path of the repository's git directory.
func (manager *RepositoryManager) GitDirectory(executionContext context.Context, repositoryPath string) (string, error) {
	if argumentError := requireArguments(repositoryPath, shared.OriginRemoteNameConstant); argumentError != nil {
		return "", argumentError
	}
	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitDirFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", wrapOperation(gitDirectoryOperationConstant, executionError)
	}
	gitDirectory := strings.TrimSpace(result.StandardOutput)
	if !filepath.IsAbs(gitDirectory) {
		gitDirectory = filepath.Join(repositoryPath, gitDirectory)
	}
	return filepath.Clean(gitDirectory), nil
}

// CurrentBranch returns the checked-out branch, or an empty string on a detached HEAD.
func (manager *RepositoryManager) CurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitBranchSubcommandConstant, gitShowCurrentFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", wrapOperation(currentBranchOperationConstant, executionError)
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// HasUncommittedChanges reports whether the worktree or index differs from HEAD.
func (manager *RepositoryManager) HasUncommittedChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitPorcelainFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, wrapOperation(worktreeStatusOperationConstant, executionError)
	}
	return len(strings.TrimSpace(result.StandardOutput)) > 0, nil
}

// LastCommit summarizes HEAD; the boolean is false for repositories without commits.
func (manager *RepositoryManager) LastCommit(executionContext context.Context, repositoryPath string) (CommitSummary, bool, error) {
	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitLogSubcommandConstant, gitLogLimitFlagConstant, gitLogFormatFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		var failedCommand execshell.CommandFailedError
		if errors.As(executionError, &failedCommand) {
			return CommitSummary{}, false, nil
		}
		return CommitSummary{}, false, wrapOperation(lastCommitOperationConstant, executionError)
	}

	output := strings.TrimSpace(result.StandardOutput)
	if len(output) == 0 {
		return CommitSummary{}, false, nil
	}
	fields := strings.SplitN(output, commitFieldSeparatorConstant, commitFieldCountConstant)
	if len(fields) != commitFieldCountConstant {
		return CommitSummary{}, false, fmt.Errorf(unexpectedCommitFormatTemplate, output)
	}
	commitDate, parseError := time.Parse(time.RFC3339, fields[3])
	if parseError != nil {
		return CommitSummary{}, false, wrapOperation(lastCommitOperationConstant, parseError)
	}
	return CommitSummary{Hash: fields[0], AuthorName: fields[1], AuthorEmail: fields[2], Date: commitDate, Subject: fields[4]}, true, nil
}

// ProbeRemote checks that a remote URL answers within the timeout.
func (manager *RepositoryManager) ProbeRemote(executionContext context.Context, repositoryPath string, remoteURL string, timeout time.Duration) error {
	probeContext := executionContext
	if timeout > 0 {
		var cancel context.CancelFunc
		probeContext, cancel = context.WithTimeout(executionContext, timeout)
		defer cancel()
	}
	_, executionError := manager.executor.ExecuteGit(probeContext, execshell.CommandDetails{
		Arguments:        []string{gitLsRemoteSubcommandConstant, gitExitCodeFlagConstant, gitHeadsFlagConstant, remoteURL},
		WorkingDirectory: repositoryPath,
	})
	return wrapOperation(fmt.Sprintf(probeRemoteOperationTemplate, shared.RedactURL(remoteURL)), executionError)
}

func (manager *RepositoryManager) readConfigValues(executionContext context.Context, repositoryPath string, key string) ([]string, error) {
	result, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitConfigSubcommandConstant, gitGetAllFlagConstant, key},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		var failedCommand execshell.CommandFailedError
		if errors.As(executionError, &failedCommand) && failedCommand.Result.ExitCode == missingConfigKeyExitCodeConstant {
			return nil, nil
		}
		return nil, executionError
	}
	return splitLines(result.StandardOutput), nil
}

func requireArguments(repositoryPath string, remoteName string) error {
	if len(strings.TrimSpace(repositoryPath)) == 0 {
		return InvalidArgumentError{Message: repositoryPathRequiredMessage}
	}
	if len(strings.TrimSpace(remoteName)) == 0 {
		return InvalidArgumentError{Message: remoteNameRequiredMessage}
	}
	return nil
}

func wrapOperation(operation string, operationError error) error {
	if operationError == nil {
		return nil
	}
	return fmt.Errorf(wrappedOperationErrorTemplate, operation, operationError)
}

func splitLines(output string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 0 {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
