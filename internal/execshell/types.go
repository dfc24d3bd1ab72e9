package execshell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/multipush/internal/shared"
)

const (
	commandGitNameConstant                = "git"
	loggerNotConfiguredMessageConstant    = "logger not configured"
	runnerNotConfiguredMessageConstant    = "command runner not configured"
	commandFailedErrorTemplateConstant    = "%s exited with code %d"
	commandFailedStandardErrorTemplate    = "%s: %s"
	commandExecutionErrorTemplateConstant = "%s could not be executed: %v"
	commandLabelArgumentSeparatorConstant = " "
	commandLabelWorkingDirectoryTemplate  = "%s (in %s)"
)

// CommandName identifies an executable.
type CommandName string

// Supported executables.
const (
	CommandGit CommandName = CommandName(commandGitNameConstant)
)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines an executable with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// Label renders the command for logs with credentials redacted.
func (command ShellCommand) Label() string {
	labelParts := append([]string{string(command.Name)}, shared.RedactArguments(command.Details.Arguments)...)
	label := strings.Join(labelParts, commandLabelArgumentSeparatorConstant)
	if len(strings.TrimSpace(command.Details.WorkingDirectory)) == 0 {
		return label
	}
	return fmt.Sprintf(commandLabelWorkingDirectoryTemplate, label, command.Details.WorkingDirectory)
}

// ExecutionResult captures the observable output of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// Sentinel errors returned when the executor is constructed without collaborators.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(runnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a process that ran and exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failure CommandFailedError) Error() string {
	message := fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Label(), failure.Result.ExitCode)
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return message
	}
	return fmt.Sprintf(commandFailedStandardErrorTemplate, message, shared.RedactURL(trimmedStandardError))
}

// CommandExecutionError reports a process that could not be started or was interrupted.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Label(), failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}
