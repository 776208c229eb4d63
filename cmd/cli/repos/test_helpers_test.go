package repos_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	testRepositoryPathConstant    = "/fleet/alpha"
	testMetadataPathConstant      = "/fleet/alpha/.git"
	testRemoteURLConstant         = "git@github.com:example/alpha.git"
	testMainUpstreamConstant      = "refs/remotes/origin/main"
	testArgumentSeparatorConstant = " "
	testUnknownCommandExitCode    = 128
	testCommitTimestampOutput     = "1700000000\n"
)

type fakeRepositoryDiscoverer struct {
	records       []shared.RepositoryRecord
	receivedRoots []string
}

func (discoverer *fakeRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]shared.RepositoryRecord, error) {
	discoverer.receivedRoots = append([]string{}, roots...)
	return append([]shared.RepositoryRecord{}, discoverer.records...), nil
}

type fakeResponse struct {
	output   string
	exitCode int
}

type fakeGitExecutor struct {
	mutex     sync.Mutex
	responses map[string]fakeResponse
	recorded  []execshell.CommandDetails
}

func newFakeGitExecutor(responses map[string]fakeResponse) *fakeGitExecutor {
	return &fakeGitExecutor{responses: responses}
}

func (executor *fakeGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.recorded = append(executor.recorded, details)

	response, known := executor.responses[strings.Join(details.Arguments, testArgumentSeparatorConstant)]
	if !known {
		response = fakeResponse{exitCode: testUnknownCommandExitCode}
	}
	if response.exitCode != 0 {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  execshell.ExecutionResult{StandardError: response.output, ExitCode: response.exitCode},
		}
	}
	return execshell.ExecutionResult{StandardOutput: response.output}, nil
}

func (executor *fakeGitExecutor) recordedArguments() []string {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	joined := make([]string, 0, len(executor.recorded))
	for _, details := range executor.recorded {
		joined = append(joined, strings.Join(details.Arguments, testArgumentSeparatorConstant))
	}
	return joined
}

func alphaRecord() shared.RepositoryRecord {
	return shared.RepositoryRecord{Path: testRepositoryPathConstant, MetadataPath: testMetadataPathConstant}
}

// behindMainResponses describes a clean repository whose current branch main is two commits behind origin/main
// and which carries a local branch feature already merged into main.
func behindMainResponses() map[string]fakeResponse {
	return map[string]fakeResponse{
		"status --porcelain":                                                       {},
		"remote get-url origin":                                                    {output: testRemoteURLConstant + "\n"},
		"for-each-ref --format=%(refname:lstrip=2) refs/heads":                     {output: "main\nfeature\n"},
		"symbolic-ref --quiet HEAD":                                                {output: "refs/heads/main\n"},
		"for-each-ref --format=%(upstream) refs/heads/main":                        {output: testMainUpstreamConstant + "\n"},
		"rev-parse --verify --quiet refs/remotes/origin/main":                      {output: "abc123\n"},
		"rev-list --left-right --count refs/heads/main...refs/remotes/origin/main": {output: "0\t2\n"},
		"log -1 --format=%ct refs/heads/main":                                      {output: testCommitTimestampOutput},
		"for-each-ref --format=%(upstream) refs/heads/feature":                     {output: "\n"},
		"merge-base --is-ancestor refs/heads/feature refs/heads/main":              {},
		"log -1 --format=%ct refs/heads/feature":                                   {output: testCommitTimestampOutput},
	}
}

func executeCommand(testInstance *testing.T, command *cobra.Command, arguments ...string) (string, error) {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(errorBuffer)
	command.SetContext(context.Background())
	command.SetArgs(arguments)
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func buildCommand(testInstance *testing.T, build func() (*cobra.Command, error)) *cobra.Command {
	testInstance.Helper()
	command, buildError := build()
	require.NoError(testInstance, buildError)
	command.SilenceUsage = true
	command.SilenceErrors = true
	return command
}

func silentPresenterFactory(*cobra.Command) shared.Presenter {
	return shared.SilentPresenter{}
}
