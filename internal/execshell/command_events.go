package execshell

// CommandEventObserver is notified as ShellExecutor runs each command.
type CommandEventObserver interface {
	// CommandStarted is called before the runner is invoked.
	CommandStarted(command ShellCommand)
	// CommandCompleted is called once the process exited, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called when the process could not be run or was interrupted.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
