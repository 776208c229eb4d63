package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRepositoryDirectoryConstant = "/workspace/repo"

func TestCommandMessageFormatterDescribesGitCommands(testInstance *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		result          ExecutionResult
		stage           messageStage
		expectedMessage string
	}{
		{
			name:            "fetch_with_remote",
			arguments:       []string{"fetch", "--prune", "origin"},
			stage:           messageStageStart,
			expectedMessage: "Fetching from origin in /workspace/repo",
		},
		{
			name:            "fetch_without_remote",
			arguments:       []string{"fetch", "--prune"},
			stage:           messageStageStart,
			expectedMessage: "Fetching from all remotes in /workspace/repo",
		},
		{
			name:            "fetch_into_local_branch",
			arguments:       []string{"fetch", ".", "origin/feature:refs/heads/feature"},
			stage:           messageStageSuccess,
			expectedMessage: "Fast-forwarded feature to origin/feature in /workspace/repo",
		},
		{
			name:            "upstream_lookup_success",
			arguments:       []string{"for-each-ref", "--format=%(upstream)", "refs/heads/feature"},
			result:          ExecutionResult{StandardOutput: "refs/remotes/origin/feature\n"},
			stage:           messageStageSuccess,
			expectedMessage: "Upstream of feature in /workspace/repo is refs/remotes/origin/feature",
		},
		{
			name:            "upstream_lookup_missing",
			arguments:       []string{"for-each-ref", "--format=%(upstream)", "refs/heads/feature"},
			stage:           messageStageSuccess,
			expectedMessage: "No upstream configured for feature in /workspace/repo",
		},
		{
			name:            "branch_listing",
			arguments:       []string{"for-each-ref", "--format=%(refname:lstrip=2)", "refs/heads"},
			stage:           messageStageStart,
			expectedMessage: "Listing local branches in /workspace/repo",
		},
		{
			name:            "ahead_behind_count",
			arguments:       []string{"rev-list", "--left-right", "--count", "refs/heads/main...origin/main"},
			stage:           messageStageStart,
			expectedMessage: "Counting commits between main and origin/main in /workspace/repo",
		},
		{
			name:            "merge_base_failure",
			arguments:       []string{"merge-base", "--is-ancestor", "refs/heads/feature", "refs/heads/main"},
			result:          ExecutionResult{ExitCode: 1},
			stage:           messageStageFailure,
			expectedMessage: "Failed to confirm feature is merged into main in /workspace/repo (exit code 1)",
		},
		{
			name:            "current_branch_success",
			arguments:       []string{"symbolic-ref", "--quiet", "HEAD"},
			result:          ExecutionResult{StandardOutput: "refs/heads/main\n"},
			stage:           messageStageSuccess,
			expectedMessage: "Current branch in /workspace/repo is main",
		},
		{
			name:            "merge_abort_success",
			arguments:       []string{"merge", "--abort"},
			stage:           messageStageSuccess,
			expectedMessage: "Aborted unfinished merge in /workspace/repo",
		},
		{
			name:            "clone_with_progress_started",
			arguments:       []string{"clone", "--progress", "https://example.com/alpha.git", "/workspace/alpha"},
			stage:           messageStageStart,
			expectedMessage: "Cloning https://example.com/alpha.git into /workspace/alpha",
		},
		{
			name:            "fast_forward_merge_failure",
			arguments:       []string{"merge", "--ff-only", "origin/main"},
			result:          ExecutionResult{ExitCode: 128, StandardError: "fatal: Not possible to fast-forward\n"},
			stage:           messageStageFailure,
			expectedMessage: "Failed to fast-forward current branch to origin/main in /workspace/repo (exit code 128: fatal: Not possible to fast-forward)",
		},
		{
			name:            "publish_branch",
			arguments:       []string{"push", "--set-upstream", "origin", "feature"},
			stage:           messageStageStart,
			expectedMessage: "Publishing feature to origin from /workspace/repo",
		},
		{
			name:            "stash_pop",
			arguments:       []string{"stash", "pop"},
			stage:           messageStageSuccess,
			expectedMessage: "Restored stashed changes in /workspace/repo",
		},
		{
			name:            "forced_branch_deletion",
			arguments:       []string{"branch", "--delete", "--force", "stale"},
			stage:           messageStageStart,
			expectedMessage: "Force removing local branch stale in /workspace/repo",
		},
		{
			name:            "unknown_subcommand",
			arguments:       []string{"gc"},
			stage:           messageStageStart,
			expectedMessage: "Running git gc (in /workspace/repo)",
		},
	}

	formatter := CommandMessageFormatter{}
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			command := ShellCommand{
				Name:    CommandGit,
				Details: CommandDetails{Arguments: testCase.arguments, WorkingDirectory: testRepositoryDirectoryConstant},
			}
			require.Equal(testInstance, testCase.expectedMessage, formatter.buildMessage(command, testCase.result, nil, testCase.stage))
		})
	}
}

func TestBuildExecutionFailureMessageIncludesCause(testInstance *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name:    CommandGit,
		Details: CommandDetails{Arguments: []string{"status", "--porcelain"}, WorkingDirectory: testRepositoryDirectoryConstant},
	}

	message := formatter.BuildExecutionFailureMessage(command, errors.New("signal: killed"))

	require.Equal(testInstance, "Unable to review working tree status in /workspace/repo: signal: killed", message)
}
