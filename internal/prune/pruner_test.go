package prune

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/status"
)

type recordingGitExecutor struct {
	failingArguments map[string]string
	recordedCommands []execshell.CommandDetails
}

func (executor *recordingGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if standardError, failing := executor.failingArguments[strings.Join(details.Arguments, " ")]; failing {
		return execshell.ExecutionResult{}, execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: details},
			Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: standardError},
		}
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *recordingGitExecutor) recordedArguments() []string {
	arguments := []string{}
	for _, details := range executor.recordedCommands {
		arguments = append(arguments, strings.Join(details.Arguments, " "))
	}
	return arguments
}

func pruneCandidates() []Candidate {
	record := shared.RepositoryRecord{Path: "/repos/alpha", MetadataPath: "/repos/alpha/.git"}
	return []Candidate{
		{Record: record, Branch: status.BranchStatus{Name: "merged", IsFullyMerged: true}, Reasons: []string{ReasonMerged}},
		{Record: record, Branch: status.BranchStatus{Name: "gone", IsGone: true}, Reasons: []string{ReasonGone}},
		{Record: record, Branch: status.BranchStatus{Name: "locked", IsFullyMerged: true}, Reasons: []string{ReasonMerged}},
	}
}

func TestNewPrunerRequiresExecutor(testInstance *testing.T) {
	pruner, creationError := NewPruner(nil, nil)
	require.ErrorIs(testInstance, creationError, ErrGitExecutorNotConfigured)
	require.Nil(testInstance, pruner)
}

func TestDeleteSkipsUnmergedWithoutForce(testInstance *testing.T) {
	executor := &recordingGitExecutor{failingArguments: map[string]string{
		"branch --delete locked": "error: Cannot delete branch 'locked' checked out at '/repos/alpha-worktree'",
	}}
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	pruner, creationError := NewPruner(executor, zap.New(observedCore))
	require.NoError(testInstance, creationError)

	report := pruner.Delete(context.Background(), pruneCandidates(), DeleteOptions{})

	require.Equal(testInstance, []string{"branch --delete merged", "branch --delete locked"}, executor.recordedArguments())
	require.Equal(testInstance, 1, report.DeletedCount())
	require.Equal(testInstance, 1, report.SkippedCount())
	require.Equal(testInstance, 1, report.FailedCount())

	require.Equal(testInstance, ErrForceRequired.Error(), report.Results[1].ErrorMessage)
	require.Contains(testInstance, report.Results[2].ErrorMessage, "failed to delete branch locked")
	require.Contains(testInstance, report.Results[2].ErrorMessage, "checked out at")

	require.Equal(testInstance, 1, observedLogs.FilterMessage(deletedLogMessageConstant).Len())
	require.Equal(testInstance, 1, observedLogs.FilterMessage(deleteFailedLogMessageConstant).Len())
	for _, details := range executor.recordedCommands {
		require.Equal(testInstance, "/repos/alpha/.git", details.EnvironmentVariables[shared.GitDirectoryEnvironmentVariableConstant])
	}
}

func TestDeleteForcesUnmergedBranches(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	pruner, creationError := NewPruner(executor, zap.NewNop())
	require.NoError(testInstance, creationError)

	report := pruner.Delete(context.Background(), pruneCandidates(), DeleteOptions{Force: true})

	require.Equal(testInstance, []string{"branch --delete merged", "branch --delete --force gone", "branch --delete locked"}, executor.recordedArguments())
	require.Equal(testInstance, 3, report.DeletedCount())
	require.False(testInstance, report.Results[0].Forced)
	require.True(testInstance, report.Results[1].Forced)
}

func TestDeleteDryRunExecutesNothing(testInstance *testing.T) {
	executor := &recordingGitExecutor{}
	pruner, creationError := NewPruner(executor, zap.NewNop())
	require.NoError(testInstance, creationError)

	report := pruner.Delete(context.Background(), pruneCandidates(), DeleteOptions{Force: true, DryRun: true})

	require.Empty(testInstance, executor.recordedCommands)
	require.Equal(testInstance, 3, report.DeletedCount())
}

type stubPresenter struct {
	selectedIndices []int
	progress        []string
}

func (presenter *stubPresenter) NotifyProgress(message string) {
	presenter.progress = append(presenter.progress, message)
}

func (presenter *stubPresenter) SelectSubset(string, []string) ([]int, error) {
	return presenter.selectedIndices, nil
}

func TestSelectCandidatesUsesPresenter(testInstance *testing.T) {
	presenter := &stubPresenter{selectedIndices: []int{2, 0, 2}}
	selected, selectionError := SelectCandidates(pruneCandidates(), shared.SelectionPrompt, presenter)
	require.NoError(testInstance, selectionError)
	require.Len(testInstance, selected, 2)
	require.Equal(testInstance, "locked", selected[0].Branch.Name)
	require.Equal(testInstance, "merged", selected[1].Branch.Name)

	executor := &recordingGitExecutor{}
	pruner, creationError := NewPruner(executor, zap.NewNop())
	require.NoError(testInstance, creationError)
	pruner.Delete(context.Background(), selected, DeleteOptions{Presenter: presenter})
	require.Equal(testInstance, []string{"Deleting locked in /repos/alpha", "Deleting merged in /repos/alpha"}, presenter.progress)
}
