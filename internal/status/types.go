package status

import (
	"strings"
	"time"

	"github.com/temirov/gitfleet/internal/repos/shared"
)

const remoteTrackingReferencePrefixConstant = "refs/remotes/"

// BranchStatus describes how one local branch relates to its upstream.
//
// AheadCount counts commits present on the local branch but not on its upstream; BehindCount counts commits
// present on the upstream but not on the local branch.
type BranchStatus struct {
	RepositoryPath string    `json:"repository_path" yaml:"repository_path"`
	Name           string    `json:"name" yaml:"name"`
	Upstream       string    `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	IsCurrent      bool      `json:"is_current" yaml:"is_current"`
	AheadCount     int       `json:"ahead" yaml:"ahead"`
	BehindCount    int       `json:"behind" yaml:"behind"`
	IsMerged       bool      `json:"is_merged" yaml:"is_merged"`
	IsGone         bool      `json:"is_gone" yaml:"is_gone"`
	LastCommitDate time.Time `json:"last_commit_date" yaml:"last_commit_date"`
	IsFullyMerged  bool      `json:"is_fully_merged" yaml:"is_fully_merged"`
}

// HasUpstream reports whether an upstream is configured, regardless of whether it still resolves.
func (branch BranchStatus) HasUpstream() bool {
	return len(branch.Upstream) > 0
}

// IsSynced reports whether the branch and its upstream point at the same history.
func (branch BranchStatus) IsSynced() bool {
	return branch.AheadCount == 0 && branch.BehindCount == 0
}

// UpstreamShortName strips the remote-tracking prefix from the upstream reference.
func (branch BranchStatus) UpstreamShortName() string {
	return strings.TrimPrefix(branch.Upstream, remoteTrackingReferencePrefixConstant)
}

// RepositoryStatus aggregates the state of one repository. It is built once per scan and never mutated.
type RepositoryStatus struct {
	Record                shared.RepositoryRecord `json:"repository" yaml:"repository"`
	HasUncommittedChanges bool                    `json:"has_uncommitted_changes" yaml:"has_uncommitted_changes"`
	LocalBranches         []BranchStatus          `json:"local_branches" yaml:"local_branches"`
	ErrorMessage          string                  `json:"error,omitempty" yaml:"error,omitempty"`
}

// AreBranchesSynced reports whether every local branch is level with its upstream.
// A repository without local branches is synced.
func (repositoryStatus RepositoryStatus) AreBranchesSynced() bool {
	for _, branch := range repositoryStatus.LocalBranches {
		if !branch.IsSynced() {
			return false
		}
	}
	return true
}

// HasError reports whether collection failed for the repository.
func (repositoryStatus RepositoryStatus) HasError() bool {
	return len(repositoryStatus.ErrorMessage) > 0
}

// CurrentBranch returns the checked-out branch, if any.
func (repositoryStatus RepositoryStatus) CurrentBranch() (BranchStatus, bool) {
	for _, branch := range repositoryStatus.LocalBranches {
		if branch.IsCurrent {
			return branch, true
		}
	}
	return BranchStatus{}, false
}
