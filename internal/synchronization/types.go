package synchronization

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	noLocalBranchesMessageConstant    = "repository has no local branches"
	divergedBranchMessageConstant     = "branch has diverged from its upstream and is not checked out"
	branchUpdateErrorTemplateConstant = "failed to %s %s: %v"
	branchUpdateUnknownCauseConstant  = "unknown cause"
	defaultStashMessageConstant       = "gitfleet synchronization"
)

// ErrNoLocalBranches indicates a repository selected for synchronization has nothing to update.
var ErrNoLocalBranches = errors.New(noLocalBranchesMessageConstant)

// ErrDivergedBranch indicates a branch that would require a merge outside the checked-out working tree.
var ErrDivergedBranch = errors.New(divergedBranchMessageConstant)

// Options configures a synchronization pass.
type Options struct {
	RemoteName   string
	Stash        bool
	Push         bool
	DryRun       bool
	StashMessage string
	Presenter    shared.Presenter
}

func (options Options) remoteName() string {
	trimmedRemoteName := strings.TrimSpace(options.RemoteName)
	if len(trimmedRemoteName) == 0 {
		return shared.OriginRemoteNameConstant
	}
	return trimmedRemoteName
}

func (options Options) stashMessage() string {
	trimmedMessage := strings.TrimSpace(options.StashMessage)
	if len(trimmedMessage) == 0 {
		return defaultStashMessageConstant
	}
	return trimmedMessage
}

// BranchUpdateError describes the branch operation that stopped a repository.
type BranchUpdateError struct {
	Branch string
	Action string
	Cause  error
}

// Error describes the action, the branch and the cause.
func (updateError BranchUpdateError) Error() string {
	cause := branchUpdateUnknownCauseConstant
	if updateError.Cause != nil {
		cause = updateError.Cause.Error()
	}
	return fmt.Sprintf(branchUpdateErrorTemplateConstant, updateError.Action, updateError.Branch, cause)
}

// Unwrap exposes the underlying cause.
func (updateError BranchUpdateError) Unwrap() error {
	return updateError.Cause
}

// Outcome records how one repository finished.
type Outcome struct {
	RepositoryPath  string   `json:"repository_path" yaml:"repository_path"`
	Succeeded       bool     `json:"succeeded" yaml:"succeeded"`
	FailedBranch    string   `json:"failed_branch,omitempty" yaml:"failed_branch,omitempty"`
	ErrorMessage    string   `json:"error,omitempty" yaml:"error,omitempty"`
	StashCreated    bool     `json:"stash_created" yaml:"stash_created"`
	UpdatedBranches []string `json:"updated_branches" yaml:"updated_branches"`
	PlannedActions  []string `json:"planned_actions,omitempty" yaml:"planned_actions,omitempty"`
}

// Report aggregates the outcomes of a pass in processing order.
type Report struct {
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// SucceededCount returns the number of repositories that finished successfully.
func (report Report) SucceededCount() int {
	succeededCount := 0
	for _, outcome := range report.Outcomes {
		if outcome.Succeeded {
			succeededCount++
		}
	}
	return succeededCount
}

// FailedCount returns the number of repositories that failed.
func (report Report) FailedCount() int {
	return len(report.Outcomes) - report.SucceededCount()
}

// Failures returns the failed outcomes.
func (report Report) Failures() []Outcome {
	failures := []Outcome{}
	for _, outcome := range report.Outcomes {
		if !outcome.Succeeded {
			failures = append(failures, outcome)
		}
	}
	return failures
}
