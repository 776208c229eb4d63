package ui_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/inventory"
	"github.com/temirov/gitfleet/internal/prune"
	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/status"
	"github.com/temirov/gitfleet/internal/synchronization"
	"github.com/temirov/gitfleet/internal/ui"
)

func TestRenderStatusTable(testInstance *testing.T) {
	statuses := []status.RepositoryStatus{
		{
			Record:                shared.RepositoryRecord{Path: "/repos/alpha"},
			HasUncommittedChanges: true,
			LocalBranches: []status.BranchStatus{
				{Name: "main", Upstream: "refs/remotes/origin/main", IsCurrent: true, BehindCount: 3, LastCommitDate: time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)},
				{Name: "old", Upstream: "refs/remotes/origin/old", IsGone: true, IsFullyMerged: true},
			},
		},
		{Record: shared.RepositoryRecord{Path: "/repos/broken"}, ErrorMessage: "failed to list local branches"},
	}

	rendered := ui.RenderStatusTable(statuses)
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	require.Len(testInstance, lines, 4)
	require.Contains(testInstance, lines[0], "REPOSITORY")
	require.Contains(testInstance, lines[0], "LAST COMMIT")
	require.Contains(testInstance, lines[1], "origin/main")
	require.Contains(testInstance, lines[1], "current,dirty")
	require.Contains(testInstance, lines[1], "2025-01-02")
	require.Contains(testInstance, lines[2], "gone,merged")
	require.Contains(testInstance, lines[3], "failed to list local branches")

	require.Empty(testInstance, ui.RenderStatusTable(nil))
}

func TestRenderReports(testInstance *testing.T) {
	synchronizationRendered := ui.RenderSynchronizationReport(synchronization.Report{Outcomes: []synchronization.Outcome{
		{RepositoryPath: "/repos/alpha", Succeeded: true, UpdatedBranches: []string{"main", "dev"}},
		{RepositoryPath: "/repos/beta", ErrorMessage: "failed to push main: rejected"},
	}})
	require.Contains(testInstance, synchronizationRendered, "main, dev")
	require.Contains(testInstance, synchronizationRendered, "failed to push main: rejected")

	deletionRendered := ui.RenderDeletionReport(prune.DeletionReport{Results: []prune.DeletionResult{
		{RepositoryPath: "/repos/alpha", BranchName: "wip", Skipped: true, ErrorMessage: prune.ErrForceRequired.Error()},
		{RepositoryPath: "/repos/alpha", BranchName: "done", Deleted: true},
	}})
	require.Contains(testInstance, deletionRendered, "skipped")
	require.Contains(testInstance, deletionRendered, "deleted")

	restoreRendered := ui.RenderRestoreReport(inventory.RestoreReport{Results: []inventory.RestoreResult{
		{Name: "alpha", Destination: "/restore/alpha", Cloned: true},
	}})
	require.Contains(testInstance, restoreRendered, "cloned")
	require.Contains(testInstance, restoreRendered, "/restore/alpha")
}
