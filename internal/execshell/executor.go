package execshell

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/shared"
)

const (
	commandStartedLogMessageConstant   = "command started"
	commandCompletedLogMessageConstant = "command completed"
	commandFailedLogMessageConstant    = "command failed"
	commandErroredLogMessageConstant   = "command could not be executed"
	commandRetryLogMessageConstant     = "retrying command after transient failure"
	logFieldCommandConstant            = "command"
	logFieldExitCodeConstant           = "exit_code"
	logFieldStandardErrorConstant      = "stderr"
	logFieldAttemptConstant            = "attempt"
	logFieldMaxRetriesConstant         = "max_retries"
)

// transientFailureMarkers lists lower-cased stderr fragments that indicate a retryable failure.
var transientFailureMarkers = []string{
	"could not lock config file",
	".lock': file exists",
	"could not resolve host",
	"connection timed out",
	"connection reset",
	"operation timed out",
	"early eof",
	"rpc failed",
	"the remote end hung up unexpectedly",
	"temporary failure in name resolution",
}

// CommandRunner executes a shell command and returns its result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(*ShellExecutor)

// WithCommandTimeout bounds every command by the provided duration. Non-positive values disable the bound.
func WithCommandTimeout(timeout time.Duration) ExecutorOption {
	return func(executor *ShellExecutor) {
		executor.commandTimeout = timeout
	}
}

// WithTransientRetries re-runs commands that fail with a transient error up to maxRetries additional times.
func WithTransientRetries(maxRetries int) ExecutorOption {
	return func(executor *ShellExecutor) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		executor.maxRetries = maxRetries
	}
}

// WithCommandEventObserver registers an observer for command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observer = observer
		}
	}
}

// ShellExecutor runs commands with logging, timeouts, and bounded retries.
type ShellExecutor struct {
	logger         *zap.Logger
	runner         CommandRunner
	observer       CommandEventObserver
	commandTimeout time.Duration
	maxRetries     int
}

// NewShellExecutor validates collaborators and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:   logger,
		runner:   runner,
		observer: noopCommandEventObserver{},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs the command, retrying transient failures a fixed number of times.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	var lastError error
	for attempt := 0; attempt <= executor.maxRetries; attempt++ {
		if attempt > 0 {
			if contextError := executionContext.Err(); contextError != nil {
				return ExecutionResult{}, CommandExecutionError{Command: command, Cause: contextError}
			}
			executor.logger.Info(
				commandRetryLogMessageConstant,
				zap.String(logFieldCommandConstant, command.Label()),
				zap.Int(logFieldAttemptConstant, attempt+1),
				zap.Int(logFieldMaxRetriesConstant, executor.maxRetries),
			)
			executor.observer.CommandRetrying(command, attempt+1, executor.maxRetries+1)
		}

		result, executionError := executor.executeOnce(executionContext, command)
		if executionError == nil {
			return result, nil
		}
		lastError = executionError

		failedCommand, isCommandFailure := executionError.(CommandFailedError)
		if !isCommandFailure || !IsTransientFailure(failedCommand.Result) {
			return ExecutionResult{}, executionError
		}
	}
	return ExecutionResult{}, lastError
}

func (executor *ShellExecutor) executeOnce(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	runContext := executionContext
	if executor.commandTimeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(executionContext, executor.commandTimeout)
		defer cancel()
	}

	commandLabel := command.Label()
	executor.logger.Debug(commandStartedLogMessageConstant, zap.String(logFieldCommandConstant, commandLabel))
	executor.observer.CommandStarted(command)

	result, runError := executor.runner.Run(runContext, command)
	if runError != nil {
		executor.logger.Warn(commandErroredLogMessageConstant, zap.String(logFieldCommandConstant, commandLabel), zap.Error(runError))
		executor.observer.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.CommandCompleted(command, result)
	if result.ExitCode != 0 {
		executor.logger.Debug(
			commandFailedLogMessageConstant,
			zap.String(logFieldCommandConstant, commandLabel),
			zap.Int(logFieldExitCodeConstant, result.ExitCode),
			zap.String(logFieldStandardErrorConstant, shared.RedactURL(strings.TrimSpace(result.StandardError))),
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: result}
	}

	executor.logger.Debug(commandCompletedLogMessageConstant, zap.String(logFieldCommandConstant, commandLabel))
	return result, nil
}

// IsTransientFailure reports whether a failed result looks retryable.
func IsTransientFailure(result ExecutionResult) bool {
	normalizedStandardError := strings.ToLower(result.StandardError)
	for _, marker := range transientFailureMarkers {
		if strings.Contains(normalizedStandardError, marker) {
			return true
		}
	}
	return false
}
