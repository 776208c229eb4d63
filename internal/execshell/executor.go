package execshell

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandStartedLogMessageConstant          = "Executing command"
	commandSucceededLogMessageConstant        = "Command completed"
	commandFailedLogMessageConstant           = "Command exited with non-zero status"
	commandExecutionFailedLogMessageConstant  = "Command execution failed"
	logFieldCommandNameConstant               = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "stderr"
	logFieldDurationConstant                  = "duration"
	logFieldSummaryConstant                   = "summary"
)

// ErrLoggerNotConfigured indicates that a zap logger was not supplied.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates that a command runner was not supplied.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandRunner executes a fully described shell command.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutorOption customizes a ShellExecutor during construction.
type ShellExecutorOption func(*ShellExecutor)

// WithCommandEventObserver registers an observer notified about every command lifecycle event.
func WithCommandEventObserver(observer CommandEventObserver) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.eventObserver = observer
		}
	}
}

// WithCommandTimeout bounds the duration of every command. Non-positive values disable the bound.
func WithCommandTimeout(commandTimeout time.Duration) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		executor.commandTimeout = commandTimeout
	}
}

// ShellExecutor runs commands through a CommandRunner, logging each invocation.
type ShellExecutor struct {
	logger           *zap.Logger
	commandRunner    CommandRunner
	eventObserver    CommandEventObserver
	commandTimeout   time.Duration
	messageFormatter CommandMessageFormatter
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, options ...ShellExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:           logger,
		commandRunner:    commandRunner,
		eventObserver:    noopCommandEventObserver{},
		messageFormatter: CommandMessageFormatter{},
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// Execute runs the command and converts non-zero exit codes into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	boundedContext := executionContext
	if executor.commandTimeout > 0 {
		var cancel context.CancelFunc
		boundedContext, cancel = context.WithTimeout(executionContext, executor.commandTimeout)
		defer cancel()
	}

	commandFields := []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
	executor.logger.Debug(commandStartedLogMessageConstant, commandFields...)
	executor.eventObserver.CommandStarted(command)

	startTime := time.Now()
	executionResult, runError := executor.commandRunner.Run(boundedContext, command)
	elapsed := time.Since(startTime)

	if runError != nil {
		executor.logger.Debug(commandExecutionFailedLogMessageConstant, append(commandFields,
			zap.Duration(logFieldDurationConstant, elapsed),
			zap.String(logFieldSummaryConstant, executor.messageFormatter.BuildExecutionFailureMessage(command, runError)),
			zap.Error(runError),
		)...)
		executor.eventObserver.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(commandFailedLogMessageConstant, append(commandFields,
			zap.Duration(logFieldDurationConstant, elapsed),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
			zap.String(logFieldStandardErrorConstant, executionResult.StandardError),
			zap.String(logFieldSummaryConstant, executor.messageFormatter.BuildFailureMessage(command, executionResult)),
		)...)
		executor.eventObserver.CommandCompleted(command, executionResult)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(commandSucceededLogMessageConstant, append(commandFields,
		zap.Duration(logFieldDurationConstant, elapsed),
		zap.String(logFieldSummaryConstant, executor.messageFormatter.BuildSuccessMessage(command, executionResult)),
	)...)
	executor.eventObserver.CommandCompleted(command, executionResult)
	return executionResult, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}
