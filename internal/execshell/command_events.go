package execshell

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	// CommandCompleted receives every result, including non-zero exits.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports failures that happened before a result was available.
	CommandExecutionFailed(command ShellCommand, failure error)
	// CommandRetrying announces that a transient failure is about to be retried; attempt counts from 2.
	CommandRetrying(command ShellCommand, attempt int, maxAttempts int)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

func (noopCommandEventObserver) CommandRetrying(ShellCommand, int, int) {}
