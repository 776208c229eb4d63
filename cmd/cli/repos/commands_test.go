package repos_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/cmd/cli/repos"
	"github.com/temirov/gitfleet/internal/inventory"
	"github.com/temirov/gitfleet/internal/prune"
	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/status"
	"github.com/temirov/gitfleet/internal/synchronization"
)

func fleetDependencies(discoverer shared.RepositoryDiscoverer, executor shared.GitExecutor) repos.CommandDependencies {
	return repos.CommandDependencies{
		PresenterFactory: silentPresenterFactory,
		Discoverer:       discoverer,
		GitExecutor:      executor,
	}
}

func TestStatusCommandWritesJSONReport(testInstance *testing.T) {
	discoverer := &fakeRepositoryDiscoverer{records: []shared.RepositoryRecord{alphaRecord()}}
	executor := newFakeGitExecutor(behindMainResponses())
	builder := repos.StatusCommandBuilder{CommandDependencies: fleetDependencies(discoverer, executor)}

	output, executionError := executeCommand(testInstance, buildCommand(testInstance, builder.Build), "--output", "json", "/fleet")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []string{"/fleet"}, discoverer.receivedRoots)

	var statuses []status.RepositoryStatus
	require.NoError(testInstance, json.Unmarshal([]byte(output), &statuses))
	require.Len(testInstance, statuses, 1)
	require.Empty(testInstance, statuses[0].ErrorMessage)
	require.Equal(testInstance, testRemoteURLConstant, statuses[0].Record.RemoteURL)
	require.Len(testInstance, statuses[0].LocalBranches, 2)
	require.Equal(testInstance, 2, statuses[0].LocalBranches[0].BehindCount)
	require.True(testInstance, statuses[0].LocalBranches[1].IsMerged)
	require.NotContains(testInstance, executor.recordedArguments(), "fetch --prune origin")
}

func TestStatusCommandRejectsUnknownFormat(testInstance *testing.T) {
	builder := repos.StatusCommandBuilder{CommandDependencies: fleetDependencies(&fakeRepositoryDiscoverer{}, newFakeGitExecutor(nil))}

	_, executionError := executeCommand(testInstance, buildCommand(testInstance, builder.Build), "--output", "xml", "/fleet")
	require.EqualError(testInstance, executionError, `invalid value "xml" for --output: expected one of table|json|yaml`)
}

func TestSyncCommand(testInstance *testing.T) {
	testCases := []struct {
		name              string
		arguments         []string
		adjustResponses   func(map[string]fakeResponse)
		expectedError     string
		expectedCommand   string
		unexpectedCommand string
		expectSucceeded   bool
	}{
		{
			name:            "FastForwardsCurrentBranch",
			arguments:       []string{"--fetch=false", "--yes", "--output", "json", "/fleet"},
			expectedCommand: "merge --ff-only refs/remotes/origin/main",
			expectSucceeded: true,
		},
		{
			name:      "FetchesFirstByDefault",
			arguments: []string{"--yes", "--output", "json", "/fleet"},
			adjustResponses: func(responses map[string]fakeResponse) {
				responses["fetch --prune origin"] = fakeResponse{}
			},
			expectedCommand: "fetch --prune origin",
			expectSucceeded: true,
		},
		{
			name:              "DryRunPlansWithoutMerging",
			arguments:         []string{"--fetch=false", "--yes", "--dry-run", "--output", "json", "/fleet"},
			unexpectedCommand: "merge --ff-only refs/remotes/origin/main",
			expectSucceeded:   true,
		},
		{
			name:      "ReportsFailures",
			arguments: []string{"--fetch=false", "--yes", "--output", "json", "/fleet"},
			adjustResponses: func(responses map[string]fakeResponse) {
				responses["merge --ff-only refs/remotes/origin/main"] = fakeResponse{output: "fatal: Not possible to fast-forward", exitCode: 1}
			},
			expectedError:   "1 of 1 repositories failed to synchronize",
			expectedCommand: "merge --ff-only refs/remotes/origin/main",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			responses := behindMainResponses()
			responses["merge --ff-only refs/remotes/origin/main"] = fakeResponse{}
			if testCase.adjustResponses != nil {
				testCase.adjustResponses(responses)
			}
			executor := newFakeGitExecutor(responses)
			discoverer := &fakeRepositoryDiscoverer{records: []shared.RepositoryRecord{alphaRecord()}}
			builder := repos.SyncCommandBuilder{CommandDependencies: fleetDependencies(discoverer, executor)}

			output, executionError := executeCommand(subTest, buildCommand(subTest, builder.Build), testCase.arguments...)
			if len(testCase.expectedError) > 0 {
				require.EqualError(subTest, executionError, testCase.expectedError)
			} else {
				require.NoError(subTest, executionError)
			}

			var report synchronization.Report
			require.NotContains(subTest, output, "Usage:")
			require.NoError(subTest, json.Unmarshal([]byte(output), &report))
			require.Len(subTest, report.Outcomes, 1)
			require.Equal(subTest, testCase.expectSucceeded, report.Outcomes[0].Succeeded)

			if len(testCase.expectedCommand) > 0 {
				require.Contains(subTest, executor.recordedArguments(), testCase.expectedCommand)
			}
			if len(testCase.unexpectedCommand) > 0 {
				require.NotContains(subTest, executor.recordedArguments(), testCase.unexpectedCommand)
				require.Contains(subTest, report.Outcomes[0].PlannedActions, "git "+testCase.unexpectedCommand)
			}
		})
	}
}

func TestSyncCommandReportsNothingToDo(testInstance *testing.T) {
	responses := behindMainResponses()
	responses["rev-list --left-right --count refs/heads/main...refs/remotes/origin/main"] = fakeResponse{output: "0\t0\n"}
	builder := repos.SyncCommandBuilder{
		CommandDependencies: fleetDependencies(&fakeRepositoryDiscoverer{records: []shared.RepositoryRecord{alphaRecord()}}, newFakeGitExecutor(responses)),
	}

	output, executionError := executeCommand(testInstance, buildCommand(testInstance, builder.Build), "--fetch=false", "/fleet")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "All repositories are synchronized.\n", output)
}

func TestSyncCommandSkipsRepositoriesWithoutSelection(testInstance *testing.T) {
	executor := newFakeGitExecutor(behindMainResponses())
	builder := repos.SyncCommandBuilder{
		CommandDependencies: fleetDependencies(&fakeRepositoryDiscoverer{records: []shared.RepositoryRecord{alphaRecord()}}, executor),
	}

	output, executionError := executeCommand(testInstance, buildCommand(testInstance, builder.Build), "--fetch=false", "--output", "json", "/fleet")
	require.NoError(testInstance, executionError)

	var report synchronization.Report
	require.NoError(testInstance, json.Unmarshal([]byte(output), &report))
	require.Empty(testInstance, report.Outcomes)
	require.NotContains(testInstance, executor.recordedArguments(), "merge --ff-only refs/remotes/origin/main")
}

func TestPruneCommand(testInstance *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		expectDeletion  bool
		expectedDeleted bool
	}{
		{
			name:            "DeletesMergedBranch",
			arguments:       []string{"--yes", "--output", "json", "/fleet"},
			expectDeletion:  true,
			expectedDeleted: true,
		},
		{
			name:            "DryRunLeavesBranch",
			arguments:       []string{"--yes", "--dry-run", "--output", "json", "/fleet"},
			expectedDeleted: true,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			responses := behindMainResponses()
			responses["branch --delete feature"] = fakeResponse{}
			executor := newFakeGitExecutor(responses)
			builder := repos.PruneCommandBuilder{
				CommandDependencies: fleetDependencies(&fakeRepositoryDiscoverer{records: []shared.RepositoryRecord{alphaRecord()}}, executor),
			}

			output, executionError := executeCommand(subTest, buildCommand(subTest, builder.Build), testCase.arguments...)
			require.NoError(subTest, executionError)

			var report prune.DeletionReport
			require.NoError(subTest, json.Unmarshal([]byte(output), &report))
			require.Len(subTest, report.Results, 1)
			require.Equal(subTest, "feature", report.Results[0].BranchName)
			require.Equal(subTest, testCase.expectedDeleted, report.Results[0].Deleted)

			if testCase.expectDeletion {
				require.Contains(subTest, executor.recordedArguments(), "branch --delete feature")
			} else {
				require.NotContains(subTest, executor.recordedArguments(), "branch --delete feature")
			}
		})
	}
}

func TestPruneCommandHonorsProtectedBranches(testInstance *testing.T) {
	builder := repos.PruneCommandBuilder{
		CommandDependencies: fleetDependencies(&fakeRepositoryDiscoverer{records: []shared.RepositoryRecord{alphaRecord()}}, newFakeGitExecutor(behindMainResponses())),
	}

	output, executionError := executeCommand(testInstance, buildCommand(testInstance, builder.Build), "--yes", "--protect", "feature", "/fleet")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "No branches match the prune criteria.\n", output)
}

func TestBackupAndRestoreCommands(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	inventoryPath := filepath.Join(workingDirectory, "inventory.json")
	targetDirectory := filepath.Join(workingDirectory, "restored")

	backupExecutor := newFakeGitExecutor(map[string]fakeResponse{
		"remote get-url origin": {output: testRemoteURLConstant + "\n"},
	})
	backupBuilder := repos.BackupCommandBuilder{
		CommandDependencies: fleetDependencies(&fakeRepositoryDiscoverer{records: []shared.RepositoryRecord{alphaRecord()}}, backupExecutor),
	}

	backupOutput, backupError := executeCommand(testInstance, buildCommand(testInstance, backupBuilder.Build), "--output", inventoryPath, "/fleet")
	require.NoError(testInstance, backupError)
	require.Equal(testInstance, "Saved 1 repositories to "+inventoryPath+"\n", backupOutput)

	content, readError := os.ReadFile(inventoryPath)
	require.NoError(testInstance, readError)
	var entries []inventory.Entry
	require.NoError(testInstance, json.Unmarshal(content, &entries))
	require.Equal(testInstance, []inventory.Entry{{Name: "alpha", Path: testRepositoryPathConstant, RemoteURL: testRemoteURLConstant}}, entries)

	destination := filepath.Join(targetDirectory, "alpha")
	restoreExecutor := newFakeGitExecutor(map[string]fakeResponse{
		"clone --progress " + testRemoteURLConstant + " " + destination: {},
	})
	restoreBuilder := repos.RestoreCommandBuilder{CommandDependencies: fleetDependencies(nil, restoreExecutor)}

	restoreOutput, restoreError := executeCommand(testInstance, buildCommand(testInstance, restoreBuilder.Build), "--input", inventoryPath, "--target", targetDirectory, "--format", "json")
	require.NoError(testInstance, restoreError)
	require.Equal(testInstance, []string{"clone --progress " + testRemoteURLConstant + " " + destination}, restoreExecutor.recordedArguments())

	var report inventory.RestoreReport
	require.NoError(testInstance, json.Unmarshal([]byte(restoreOutput), &report))
	require.Len(testInstance, report.Results, 1)
	require.True(testInstance, report.Results[0].Cloned)
}

func TestRestoreCommandReportsFailures(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	inventoryPath := filepath.Join(workingDirectory, "inventory.json")
	require.NoError(testInstance, os.WriteFile(inventoryPath, []byte(`[{"name":"alpha","path":"/fleet/alpha","remote_url":"`+testRemoteURLConstant+`"}]`), 0o600))

	restoreBuilder := repos.RestoreCommandBuilder{CommandDependencies: fleetDependencies(nil, newFakeGitExecutor(nil))}
	_, restoreError := executeCommand(testInstance, buildCommand(testInstance, restoreBuilder.Build), "--input", inventoryPath, "--target", filepath.Join(workingDirectory, "restored"))
	require.EqualError(testInstance, restoreError, "1 of 1 repositories could not be restored")
}

func TestCommandsExposeSharedFlags(testInstance *testing.T) {
	dependencies := fleetDependencies(&fakeRepositoryDiscoverer{}, newFakeGitExecutor(nil))
	builders := map[string]func() (*cobra.Command, error){
		"status": (&repos.StatusCommandBuilder{CommandDependencies: dependencies}).Build,
		"sync":   (&repos.SyncCommandBuilder{CommandDependencies: dependencies}).Build,
		"prune":  (&repos.PruneCommandBuilder{CommandDependencies: dependencies}).Build,
		"backup": (&repos.BackupCommandBuilder{CommandDependencies: dependencies}).Build,
	}

	for name, build := range builders {
		command := buildCommand(testInstance, build)
		require.NotNil(testInstance, command.Flags().Lookup("root"), name)
	}
}
