package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/temirov/gitfleet/internal/inventory"
	"github.com/temirov/gitfleet/internal/prune"
	"github.com/temirov/gitfleet/internal/status"
	"github.com/temirov/gitfleet/internal/synchronization"
)

const (
	columnPaddingConstant       = 2
	lastCommitLayoutConstant    = "2006-01-02"
	emptyCellConstant           = "-"
	stateSeparatorConstant      = ","
	listSeparatorConstant       = ", "
	currentStateConstant        = "current"
	goneStateConstant           = "gone"
	mergedStateConstant         = "merged"
	dirtyStateConstant          = "dirty"
	errorStateConstant          = "error"
	okStateConstant             = "ok"
	failedStateConstant         = "failed"
	skippedStateConstant        = "skipped"
	deletedStateConstant        = "deleted"
	forcedStateConstant         = "deleted (forced)"
	clonedStateConstant         = "cloned"
	tableLineTerminatorConstant = "\n"
)

var (
	statusHeaders          = []string{"REPOSITORY", "BRANCH", "UPSTREAM", "AHEAD", "BEHIND", "STATE", "LAST COMMIT"}
	synchronizationHeaders = []string{"REPOSITORY", "RESULT", "UPDATED", "DETAILS"}
	deletionHeaders        = []string{"REPOSITORY", "BRANCH", "RESULT", "DETAILS"}
	restoreHeaders         = []string{"NAME", "DESTINATION", "RESULT", "DETAILS"}
)

// RenderTable lays out rows under bold headers without borders. Empty input renders nothing.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	renderedTable := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, column int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).PaddingRight(columnPaddingConstant)
			}
			return lipgloss.NewStyle().PaddingRight(columnPaddingConstant)
		})

	return renderedTable.String() + tableLineTerminatorConstant
}

// RenderStatusTable renders one row per branch. Repositories that failed collection get a single error row.
func RenderStatusTable(statuses []status.RepositoryStatus) string {
	rows := [][]string{}
	for _, repositoryStatus := range statuses {
		repositoryPath := repositoryStatus.Record.Path
		if repositoryStatus.HasError() {
			rows = append(rows, []string{repositoryPath, emptyCellConstant, emptyCellConstant, emptyCellConstant, emptyCellConstant, errorStateConstant, repositoryStatus.ErrorMessage})
			continue
		}
		if len(repositoryStatus.LocalBranches) == 0 {
			rows = append(rows, []string{repositoryPath, emptyCellConstant, emptyCellConstant, emptyCellConstant, emptyCellConstant, repositoryState(repositoryStatus, nil), emptyCellConstant})
			continue
		}
		for _, branch := range repositoryStatus.LocalBranches {
			rows = append(rows, []string{
				repositoryPath,
				branch.Name,
				cellValue(branch.UpstreamShortName()),
				strconv.Itoa(branch.AheadCount),
				strconv.Itoa(branch.BehindCount),
				repositoryState(repositoryStatus, &branch),
				formatCommitDate(branch.LastCommitDate),
			})
		}
	}
	return RenderTable(statusHeaders, rows)
}

// RenderSynchronizationReport renders one row per repository outcome.
func RenderSynchronizationReport(report synchronization.Report) string {
	rows := make([][]string, 0, len(report.Outcomes))
	for _, outcome := range report.Outcomes {
		result := okStateConstant
		details := strings.Join(outcome.PlannedActions, listSeparatorConstant)
		if !outcome.Succeeded {
			result = failedStateConstant
			details = outcome.ErrorMessage
		}
		rows = append(rows, []string{outcome.RepositoryPath, result, cellValue(strings.Join(outcome.UpdatedBranches, listSeparatorConstant)), cellValue(details)})
	}
	return RenderTable(synchronizationHeaders, rows)
}

// RenderDeletionReport renders one row per deletion candidate.
func RenderDeletionReport(report prune.DeletionReport) string {
	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		outcome := failedStateConstant
		switch {
		case result.Skipped:
			outcome = skippedStateConstant
		case result.Deleted && result.Forced:
			outcome = forcedStateConstant
		case result.Deleted:
			outcome = deletedStateConstant
		}
		rows = append(rows, []string{result.RepositoryPath, result.BranchName, outcome, cellValue(result.ErrorMessage)})
	}
	return RenderTable(deletionHeaders, rows)
}

// RenderRestoreReport renders one row per inventory entry.
func RenderRestoreReport(report inventory.RestoreReport) string {
	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		outcome := failedStateConstant
		switch {
		case result.Skipped:
			outcome = skippedStateConstant
		case result.Cloned:
			outcome = clonedStateConstant
		}
		rows = append(rows, []string{result.Name, cellValue(result.Destination), outcome, cellValue(result.ErrorMessage)})
	}
	return RenderTable(restoreHeaders, rows)
}

func repositoryState(repositoryStatus status.RepositoryStatus, branch *status.BranchStatus) string {
	states := []string{}
	if branch != nil {
		if branch.IsCurrent {
			states = append(states, currentStateConstant)
		}
		if branch.IsGone {
			states = append(states, goneStateConstant)
		}
		if branch.IsFullyMerged {
			states = append(states, mergedStateConstant)
		}
	}
	if repositoryStatus.HasUncommittedChanges && (branch == nil || branch.IsCurrent) {
		states = append(states, dirtyStateConstant)
	}
	return cellValue(strings.Join(states, stateSeparatorConstant))
}

func formatCommitDate(commitDate time.Time) string {
	if commitDate.IsZero() {
		return emptyCellConstant
	}
	return commitDate.Format(lastCommitLayoutConstant)
}

func cellValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return emptyCellConstant
	}
	return value
}
