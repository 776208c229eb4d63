package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	lineBreakCharactersConstant            = "\r\n"
	interruptedCommandTemplateConstant     = "command interrupted: %w"
)

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command using os/exec. A non-zero exit code is reported through the result;
// a cancelled or expired context is reported as an error and the process is killed.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	var lineWriter *lineEmittingWriter
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer
	if command.Details.ProgressLineHandler != nil {
		lineWriter = &lineEmittingWriter{handler: command.Details.ProgressLineHandler}
		executable.Stderr = io.MultiWriter(&standardErrorBuffer, lineWriter)
	}

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if lineWriter != nil {
		lineWriter.Flush()
	}
	if contextError := executionContext.Err(); contextError != nil && runError != nil {
		return ExecutionResult{}, fmt.Errorf(interruptedCommandTemplateConstant, contextError)
	}
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

// lineEmittingWriter forwards complete lines to a handler as output arrives. Both newlines and carriage
// returns end a line; blank lines are dropped.
type lineEmittingWriter struct {
	handler ProgressLineHandler
	pending strings.Builder
}

func (writer *lineEmittingWriter) Write(payload []byte) (int, error) {
	writer.pending.Write(payload)
	buffered := writer.pending.String()
	lastBreakIndex := strings.LastIndexAny(buffered, lineBreakCharactersConstant)
	if lastBreakIndex < 0 {
		return len(payload), nil
	}
	writer.emit(buffered[:lastBreakIndex])
	writer.pending.Reset()
	writer.pending.WriteString(buffered[lastBreakIndex+1:])
	return len(payload), nil
}

// Flush emits any trailing output that was not terminated by a line break.
func (writer *lineEmittingWriter) Flush() {
	remaining := writer.pending.String()
	writer.pending.Reset()
	writer.emit(remaining)
}

func (writer *lineEmittingWriter) emit(text string) {
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		writer.handler(line)
	}
}

func isLineBreak(character rune) bool {
	return strings.ContainsRune(lineBreakCharactersConstant, character)
}
