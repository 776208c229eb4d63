package execshell

import (
	"fmt"
	"strings"
)

const (
	commandNameGitConstant                  = "git"
	commandFailedErrorTemplateConstant      = "%s exited with code %d"
	commandFailedWithStderrTemplateConstant = "%s exited with code %d: %s"
	commandExecutionErrorTemplateConstant   = "%s could not be executed: %v"
	commandDescriptionArgumentSeparator     = " "
	commandDescriptionDirectoryTemplate     = "%s (in %s)"
	commandExecutionUnknownCauseMessage     = "unknown cause"
)

// CommandName identifies an executable invoked by the executor.
type CommandName string

// CommandGit identifies the git executable.
const CommandGit CommandName = CommandName(commandNameGitConstant)

// ProgressLineHandler receives standard error one line at a time while a command runs. Git reports clone
// progress there and redraws it with carriage returns, so each redraw arrives as its own line.
type ProgressLineHandler func(line string)

// CommandDetails captures the arguments and environment for a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	ProgressLineHandler  ProgressLineHandler
}

// ShellCommand combines an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error includes the trimmed standard error output when present.
func (failedError CommandFailedError) Error() string {
	description := describeCommand(failedError.Command)
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, description, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithStderrTemplateConstant, description, failedError.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a command that could not be started or was interrupted.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the command and the underlying cause.
func (executionError CommandExecutionError) Error() string {
	cause := commandExecutionUnknownCauseMessage
	if executionError.Cause != nil {
		cause = executionError.Cause.Error()
	}
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(executionError.Command), cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

func describeCommand(command ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	description := strings.Join(commandParts, commandDescriptionArgumentSeparator)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return description
	}
	return fmt.Sprintf(commandDescriptionDirectoryTemplate, description, trimmedWorkingDirectory)
}
