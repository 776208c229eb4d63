package prune

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	gitBranchSubcommandConstant = "branch"
	gitDeleteFlagConstant       = "--delete"
	gitForceFlagConstant        = "--force"

	selectionTitleConstant            = "Select branches to delete"
	deletingProgressTemplateConstant  = "Deleting %s in %s"
	forceRequiredMessageConstant      = "branch is not fully merged; deletion requires force"
	deleteFailedTemplateConstant      = "failed to delete branch %s: %w"
	deletedLogMessageConstant         = "Deleted branch"
	deleteFailedLogMessageConstant    = "Failed to delete branch"
	repositoryLogFieldConstant        = "repository"
	branchLogFieldConstant            = "branch"
	forcedLogFieldConstant            = "forced"
	gitExecutorMissingMessageConstant = "git executor not configured"
)

// ErrGitExecutorNotConfigured indicates a pruner was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrForceRequired indicates an unmerged branch was left in place because forcing was disabled.
var ErrForceRequired = errors.New(forceRequiredMessageConstant)

// DeleteOptions configures a deletion pass.
type DeleteOptions struct {
	Force     bool
	DryRun    bool
	Presenter shared.Presenter
}

// DeletionResult records what happened to one candidate.
type DeletionResult struct {
	RepositoryPath string `json:"repository_path" yaml:"repository_path"`
	BranchName     string `json:"branch" yaml:"branch"`
	Deleted        bool   `json:"deleted" yaml:"deleted"`
	Forced         bool   `json:"forced" yaml:"forced"`
	Skipped        bool   `json:"skipped" yaml:"skipped"`
	ErrorMessage   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DeletionReport aggregates a deletion pass.
type DeletionReport struct {
	Results []DeletionResult `json:"results" yaml:"results"`
}

// DeletedCount returns the number of deleted branches, planned ones included on dry runs.
func (report DeletionReport) DeletedCount() int {
	return report.count(func(result DeletionResult) bool { return result.Deleted })
}

// SkippedCount returns the number of candidates left in place because they required force.
func (report DeletionReport) SkippedCount() int {
	return report.count(func(result DeletionResult) bool { return result.Skipped })
}

// FailedCount returns the number of deletions git rejected.
func (report DeletionReport) FailedCount() int {
	return report.count(func(result DeletionResult) bool { return !result.Deleted && !result.Skipped })
}

func (report DeletionReport) count(matches func(DeletionResult) bool) int {
	matchingCount := 0
	for _, result := range report.Results {
		if matches(result) {
			matchingCount++
		}
	}
	return matchingCount
}

// SelectCandidates narrows candidates to the subset chosen under the policy.
func SelectCandidates(candidates []Candidate, policy shared.SelectionPolicy, presenter shared.Presenter) ([]Candidate, error) {
	descriptions := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		descriptions = append(descriptions, candidate.Describe())
	}
	selectedIndices, selectionError := shared.SelectIndices(policy, presenter, selectionTitleConstant, descriptions)
	if selectionError != nil {
		return nil, selectionError
	}
	selected := make([]Candidate, 0, len(selectedIndices))
	for _, selectedIndex := range selectedIndices {
		selected = append(selected, candidates[selectedIndex])
	}
	return selected, nil
}

// Pruner deletes local branches.
type Pruner struct {
	gitExecutor shared.GitExecutor
	logger      *zap.Logger
}

// NewPruner constructs a Pruner.
func NewPruner(gitExecutor shared.GitExecutor, logger *zap.Logger) (*Pruner, error) {
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pruner{gitExecutor: gitExecutor, logger: logger}, nil
}

// Delete removes each candidate. Candidates that require force are skipped unless options.Force is set.
// A failed deletion does not stop the remaining candidates.
func (pruner *Pruner) Delete(executionContext context.Context, candidates []Candidate, options DeleteOptions) DeletionReport {
	report := DeletionReport{Results: make([]DeletionResult, 0, len(candidates))}
	for _, candidate := range candidates {
		result := DeletionResult{RepositoryPath: candidate.Record.Path, BranchName: candidate.Branch.Name}

		if candidate.RequiresForce() && !options.Force {
			result.Skipped = true
			result.ErrorMessage = ErrForceRequired.Error()
			report.Results = append(report.Results, result)
			continue
		}

		if options.Presenter != nil {
			options.Presenter.NotifyProgress(fmt.Sprintf(deletingProgressTemplateConstant, candidate.Branch.Name, candidate.Record.Path))
		}

		arguments := []string{gitBranchSubcommandConstant, gitDeleteFlagConstant}
		if candidate.RequiresForce() {
			arguments = append(arguments, gitForceFlagConstant)
			result.Forced = true
		}
		arguments = append(arguments, candidate.Branch.Name)

		if !options.DryRun {
			if _, deleteError := pruner.gitExecutor.ExecuteGit(executionContext, candidate.Record.GitCommandDetails(arguments...)); deleteError != nil {
				result.ErrorMessage = fmt.Errorf(deleteFailedTemplateConstant, candidate.Branch.Name, deleteError).Error()
				pruner.logger.Warn(deleteFailedLogMessageConstant,
					zap.String(repositoryLogFieldConstant, candidate.Record.Path),
					zap.String(branchLogFieldConstant, candidate.Branch.Name),
					zap.Error(deleteError),
				)
				report.Results = append(report.Results, result)
				continue
			}
			pruner.logger.Info(deletedLogMessageConstant,
				zap.String(repositoryLogFieldConstant, candidate.Record.Path),
				zap.String(branchLogFieldConstant, candidate.Branch.Name),
				zap.Bool(forcedLogFieldConstant, result.Forced),
			)
		}
		result.Deleted = true
		report.Results = append(report.Results, result)
	}
	return report
}
