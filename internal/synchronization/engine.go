package synchronization

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/status"
)

const (
	gitCommandNameConstant                 = "git"
	gitStashSubcommandConstant             = "stash"
	gitStashPushSubcommandConstant         = "push"
	gitStashPopSubcommandConstant          = "pop"
	gitIncludeUntrackedFlagConstant        = "--include-untracked"
	gitMessageFlagConstant                 = "--message"
	gitMergeSubcommandConstant             = "merge"
	gitFastForwardOnlyFlagConstant         = "--ff-only"
	gitNoEditFlagConstant                  = "--no-edit"
	gitAbortFlagConstant                   = "--abort"
	gitFetchSubcommandConstant             = "fetch"
	gitCurrentRepositoryConstant           = "."
	gitLocalRefspecTemplateConstant        = "%s:refs/heads/%s"
	gitPushSubcommandConstant              = "push"
	gitSetUpstreamFlagConstant             = "--set-upstream"
	noLocalChangesToSaveMarkerConstant     = "No local changes to save"
	plannedActionArgumentSeparatorConstant = " "

	fastForwardActionConstant        = "fast-forward"
	mergeActionConstant              = "merge upstream into"
	pushActionConstant               = "push"
	publishActionConstant            = "publish"
	stashFailedTemplateConstant      = "failed to stash local changes: %w"
	stashPopFailedTemplateConstant   = "failed to restore stashed changes: %w"
	mergeAbortFailedTemplateConstant = "%w; failed to abort merge: %v"
	combinedFailureTemplateConstant  = "%s; %s"
	interruptedTemplateConstant      = "synchronization interrupted: %w"
	progressTemplateConstant         = "Synchronizing %s"

	repositoryLogFieldConstant        = "repository"
	branchLogFieldConstant            = "branch"
	errorLogFieldConstant             = "error"
	updatedBranchesLogFieldConstant   = "updated_branches"
	synchronizedLogMessageConstant    = "Synchronized repository"
	failedLogMessageConstant          = "Failed to synchronize repository"
	gitExecutorMissingMessageConstant = "git executor not configured"
)

// ErrGitExecutorNotConfigured indicates an engine was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// Engine updates repositories selected for synchronization.
type Engine struct {
	gitExecutor shared.GitExecutor
	logger      *zap.Logger
}

// NewEngine constructs an Engine.
func NewEngine(gitExecutor shared.GitExecutor, logger *zap.Logger) (*Engine, error) {
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{gitExecutor: gitExecutor, logger: logger}, nil
}

// Synchronize processes the selected repositories in order and reports one Outcome per repository.
func (engine *Engine) Synchronize(executionContext context.Context, selected []status.RepositoryStatus, options Options) Report {
	report := Report{Outcomes: make([]Outcome, 0, len(selected))}
	for _, repositoryStatus := range selected {
		if options.Presenter != nil {
			options.Presenter.NotifyProgress(fmt.Sprintf(progressTemplateConstant, repositoryStatus.Record.Path))
		}
		outcome := engine.synchronizeRepository(executionContext, repositoryStatus, options)
		engine.logOutcome(outcome)
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report
}

func (engine *Engine) synchronizeRepository(executionContext context.Context, repositoryStatus status.RepositoryStatus, options Options) Outcome {
	outcome := Outcome{
		RepositoryPath:  repositoryStatus.Record.Path,
		UpdatedBranches: []string{},
	}

	if contextError := executionContext.Err(); contextError != nil {
		outcome.ErrorMessage = fmt.Errorf(interruptedTemplateConstant, contextError).Error()
		return outcome
	}
	if len(repositoryStatus.LocalBranches) == 0 {
		outcome.ErrorMessage = ErrNoLocalBranches.Error()
		return outcome
	}

	runner := &repositoryRunner{
		engine:  engine,
		record:  repositoryStatus.Record,
		dryRun:  options.DryRun,
		outcome: &outcome,
	}

	if options.Stash && repositoryStatus.HasUncommittedChanges {
		stashOutput, stashError := runner.run(executionContext, gitStashSubcommandConstant, gitStashPushSubcommandConstant, gitIncludeUntrackedFlagConstant, gitMessageFlagConstant, options.stashMessage())
		if stashError != nil {
			outcome.ErrorMessage = fmt.Errorf(stashFailedTemplateConstant, stashError).Error()
			return outcome
		}
		outcome.StashCreated = options.DryRun || !strings.Contains(stashOutput, noLocalChangesToSaveMarkerConstant)
	}

	var updateError error
	for _, branch := range repositoryStatus.LocalBranches {
		branchUpdated, branchError := runner.updateBranch(executionContext, branch, options)
		if branchError != nil {
			updateError = branchError
			outcome.FailedBranch = branch.Name
			break
		}
		if branchUpdated {
			outcome.UpdatedBranches = append(outcome.UpdatedBranches, branch.Name)
		}
	}

	if outcome.StashCreated {
		if _, popError := runner.run(executionContext, gitStashSubcommandConstant, gitStashPopSubcommandConstant); popError != nil {
			restoreError := fmt.Errorf(stashPopFailedTemplateConstant, popError)
			if updateError == nil {
				updateError = restoreError
			} else {
				updateError = fmt.Errorf(combinedFailureTemplateConstant, updateError.Error(), restoreError.Error())
			}
		}
	}

	if updateError != nil {
		outcome.ErrorMessage = updateError.Error()
		return outcome
	}
	outcome.Succeeded = true
	return outcome
}

func (engine *Engine) logOutcome(outcome Outcome) {
	if outcome.Succeeded {
		engine.logger.Info(synchronizedLogMessageConstant,
			zap.String(repositoryLogFieldConstant, outcome.RepositoryPath),
			zap.Strings(updatedBranchesLogFieldConstant, outcome.UpdatedBranches),
		)
		return
	}
	engine.logger.Warn(failedLogMessageConstant,
		zap.String(repositoryLogFieldConstant, outcome.RepositoryPath),
		zap.String(branchLogFieldConstant, outcome.FailedBranch),
		zap.String(errorLogFieldConstant, outcome.ErrorMessage),
	)
}

type repositoryRunner struct {
	engine  *Engine
	record  shared.RepositoryRecord
	dryRun  bool
	outcome *Outcome
}

func (runner *repositoryRunner) run(executionContext context.Context, arguments ...string) (string, error) {
	if runner.dryRun {
		plannedAction := gitCommandNameConstant + plannedActionArgumentSeparatorConstant + strings.Join(arguments, plannedActionArgumentSeparatorConstant)
		runner.outcome.PlannedActions = append(runner.outcome.PlannedActions, plannedAction)
		return "", nil
	}
	executionResult, executionError := runner.engine.gitExecutor.ExecuteGit(executionContext, runner.record.GitCommandDetails(arguments...))
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

// updateBranch never resets: local commits are preserved by fast-forwarding or merging.
func (runner *repositoryRunner) updateBranch(executionContext context.Context, branch status.BranchStatus, options Options) (bool, error) {
	if branch.HasUpstream() && branch.IsGone {
		return false, nil
	}

	branchUpdated := false
	if branch.HasUpstream() && branch.BehindCount > 0 {
		if pullError := runner.pullBranch(executionContext, branch); pullError != nil {
			return false, pullError
		}
		branchUpdated = true
	}

	if !options.Push {
		return branchUpdated, nil
	}

	remoteName := options.remoteName()
	if !branch.HasUpstream() {
		if _, publishError := runner.run(executionContext, gitPushSubcommandConstant, gitSetUpstreamFlagConstant, remoteName, branch.Name); publishError != nil {
			return false, BranchUpdateError{Branch: branch.Name, Action: publishActionConstant, Cause: publishError}
		}
		return true, nil
	}
	if branch.AheadCount > 0 {
		if _, pushError := runner.run(executionContext, gitPushSubcommandConstant, remoteName, branch.Name); pushError != nil {
			return false, BranchUpdateError{Branch: branch.Name, Action: pushActionConstant, Cause: pushError}
		}
		branchUpdated = true
	}
	return branchUpdated, nil
}

func (runner *repositoryRunner) pullBranch(executionContext context.Context, branch status.BranchStatus) error {
	if branch.IsCurrent {
		if branch.AheadCount > 0 {
			if _, mergeError := runner.run(executionContext, gitMergeSubcommandConstant, gitNoEditFlagConstant, branch.Upstream); mergeError != nil {
				return runner.abortMerge(executionContext, BranchUpdateError{Branch: branch.Name, Action: mergeActionConstant, Cause: mergeError})
			}
			return nil
		}
		if _, mergeError := runner.run(executionContext, gitMergeSubcommandConstant, gitFastForwardOnlyFlagConstant, branch.Upstream); mergeError != nil {
			return BranchUpdateError{Branch: branch.Name, Action: fastForwardActionConstant, Cause: mergeError}
		}
		return nil
	}

	if branch.AheadCount > 0 {
		return BranchUpdateError{Branch: branch.Name, Action: fastForwardActionConstant, Cause: ErrDivergedBranch}
	}
	refspec := fmt.Sprintf(gitLocalRefspecTemplateConstant, branch.Upstream, branch.Name)
	if _, fetchError := runner.run(executionContext, gitFetchSubcommandConstant, gitCurrentRepositoryConstant, refspec); fetchError != nil {
		return BranchUpdateError{Branch: branch.Name, Action: fastForwardActionConstant, Cause: fetchError}
	}
	return nil
}

// abortMerge rolls a conflicted merge back so the working tree is left as it was before the update.
func (runner *repositoryRunner) abortMerge(executionContext context.Context, mergeFailure BranchUpdateError) error {
	if _, abortError := runner.run(context.WithoutCancel(executionContext), gitMergeSubcommandConstant, gitAbortFlagConstant); abortError != nil {
		mergeFailure.Cause = fmt.Errorf(mergeAbortFailedTemplateConstant, mergeFailure.Cause, abortError)
	}
	return mergeFailure
}
