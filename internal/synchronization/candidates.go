package synchronization

import (
	"fmt"

	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/status"
)

const (
	selectionTitleConstant                  = "Select repositories to synchronize"
	candidateDescriptionTemplateConstant    = "%s (%d of %d branches out of sync)"
	candidateDirtyDescriptionSuffixConstant = ", uncommitted changes"
)

// Candidates returns the repositories that need synchronization: collected without error, not synced, and
// clean unless includeUncommitted is set. Input order is preserved.
func Candidates(statuses []status.RepositoryStatus, includeUncommitted bool) []status.RepositoryStatus {
	candidates := []status.RepositoryStatus{}
	for _, repositoryStatus := range statuses {
		if repositoryStatus.HasError() || repositoryStatus.AreBranchesSynced() {
			continue
		}
		if repositoryStatus.HasUncommittedChanges && !includeUncommitted {
			continue
		}
		candidates = append(candidates, repositoryStatus)
	}
	return candidates
}

// SelectCandidates narrows candidates to the subset chosen under the policy.
func SelectCandidates(candidates []status.RepositoryStatus, policy shared.SelectionPolicy, presenter shared.Presenter) ([]status.RepositoryStatus, error) {
	descriptions := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		descriptions = append(descriptions, DescribeCandidate(candidate))
	}

	selectedIndices, selectionError := shared.SelectIndices(policy, presenter, selectionTitleConstant, descriptions)
	if selectionError != nil {
		return nil, selectionError
	}

	selected := make([]status.RepositoryStatus, 0, len(selectedIndices))
	for _, selectedIndex := range selectedIndices {
		selected = append(selected, candidates[selectedIndex])
	}
	return selected, nil
}

// DescribeCandidate renders the one-line label used when offering a repository for selection.
func DescribeCandidate(candidate status.RepositoryStatus) string {
	outOfSyncCount := 0
	for _, branch := range candidate.LocalBranches {
		if !branch.IsSynced() {
			outOfSyncCount++
		}
	}
	description := fmt.Sprintf(candidateDescriptionTemplateConstant, candidate.Record.Path, outOfSyncCount, len(candidate.LocalBranches))
	if candidate.HasUncommittedChanges {
		description += candidateDirtyDescriptionSuffixConstant
	}
	return description
}
