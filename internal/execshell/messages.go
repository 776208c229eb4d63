package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant              = "Running %s"
	genericSuccessTemplateConstant            = "Completed %s"
	genericFailureTemplateConstant            = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant   = "%s failed: %s"
	describedFailureTemplateConstant          = "Failed to %s (exit code %d%s)"
	describedExecutionFailureTemplateConstant = "Unable to %s: %s"
	commandLabelTemplateConstant              = "%s%s"
	workingDirectorySuffixTemplateConstant    = " (in %s)"
	commandArgumentsJoinSeparatorConstant     = " "
	standardErrorSuffixTemplateConstant       = ": %s"
	unknownFailureMessageConstant             = "unknown error"
	emptyStringConstant                       = ""
	defaultWorkingDirectoryLabelConstant      = "current directory"
	fallbackUnknownValueLabelConstant         = "unknown"
	flagPrefixConstant                        = "-"
	localRepositoryFetchSourceConstant        = "."
	refspecSeparatorConstant                  = ":"
	localHeadsReferencePrefixConstant         = "refs/heads/"
)

const (
	gitFetchSubcommandNameConstant        = "fetch"
	gitStatusSubcommandNameConstant       = "status"
	gitForEachRefSubcommandNameConstant   = "for-each-ref"
	gitRevParseSubcommandNameConstant     = "rev-parse"
	gitRevListSubcommandNameConstant      = "rev-list"
	gitMergeBaseSubcommandNameConstant    = "merge-base"
	gitLogSubcommandNameConstant          = "log"
	gitSymbolicRefSubcommandNameConstant  = "symbolic-ref"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	gitMergeSubcommandNameConstant        = "merge"
	gitPushSubcommandNameConstant         = "push"
	gitStashSubcommandNameConstant        = "stash"
	gitStashPushSubcommandNameConstant    = "push"
	gitStashPopSubcommandNameConstant     = "pop"
	gitBranchSubcommandNameConstant       = "branch"
	gitCloneSubcommandNameConstant        = "clone"
	gitUpstreamFormatMarkerConstant       = "%(upstream)"
	gitFastForwardOnlyFlagConstant        = "--ff-only"
	gitSetUpstreamFlagConstant            = "--set-upstream"
	gitForceFlagConstant                  = "--force"
	gitAbortFlagConstant                  = "--abort"
	gitLeftRightSeparatorConstant         = "..."
)

const (
	gitFetchInProgressTemplateConstant               = "Fetching from %s in %s"
	gitFetchCompletedTemplateConstant                = "Fetched from %s in %s"
	gitFetchActionTemplateConstant                   = "fetch from %s in %s"
	gitFetchAllRemotesLabelConstant                  = "all remotes"
	gitFastForwardInProgressTemplateConstant         = "Fast-forwarding %s to %s in %s"
	gitFastForwardCompletedTemplateConstant          = "Fast-forwarded %s to %s in %s"
	gitFastForwardActionTemplateConstant             = "fast-forward %s to %s in %s"
	gitStatusInProgressTemplateConstant              = "Reviewing working tree status in %s"
	gitStatusCompletedTemplateConstant               = "Collected working tree status for %s"
	gitStatusActionTemplateConstant                  = "review working tree status in %s"
	gitBranchListInProgressTemplateConstant          = "Listing local branches in %s"
	gitBranchListCompletedTemplateConstant           = "Listed local branches in %s"
	gitBranchListActionTemplateConstant              = "list local branches in %s"
	gitUpstreamInProgressTemplateConstant            = "Reading upstream of %s in %s"
	gitUpstreamCompletedTemplateConstant             = "Upstream of %s in %s is %s"
	gitUpstreamMissingCompletedTemplateConstant      = "No upstream configured for %s in %s"
	gitUpstreamActionTemplateConstant                = "read upstream of %s in %s"
	gitRevisionInProgressTemplateConstant            = "Resolving %s in %s"
	gitRevisionCompletedTemplateConstant             = "Resolved %s in %s"
	gitRevisionActionTemplateConstant                = "resolve %s in %s"
	gitCountInProgressTemplateConstant               = "Counting commits between %s and %s in %s"
	gitCountCompletedTemplateConstant                = "Counted commits between %s and %s in %s"
	gitCountActionTemplateConstant                   = "count commits between %s and %s in %s"
	gitAncestryInProgressTemplateConstant            = "Checking whether %s is merged into %s in %s"
	gitAncestryCompletedTemplateConstant             = "%s is merged into %s in %s"
	gitAncestryActionTemplateConstant                = "confirm %s is merged into %s in %s"
	gitLastCommitInProgressTemplateConstant          = "Reading last commit date of %s in %s"
	gitLastCommitCompletedTemplateConstant           = "Read last commit date of %s in %s"
	gitLastCommitActionTemplateConstant              = "read last commit date of %s in %s"
	gitCurrentBranchInProgressTemplateConstant       = "Identifying current branch in %s"
	gitCurrentBranchCompletedTemplateConstant        = "Current branch in %s is %s"
	gitCurrentBranchActionTemplateConstant           = "identify current branch in %s"
	gitRemoteLookupInProgressTemplateConstant        = "Checking %s remote for %s"
	gitRemoteLookupCompletedTemplateConstant         = "%s remote for %s points to %s"
	gitRemoteLookupActionTemplateConstant            = "read %s remote for %s"
	gitMergeFastForwardInProgressTemplateConstant    = "Fast-forwarding current branch to %s in %s"
	gitMergeFastForwardCompletedTemplateConstant     = "Fast-forwarded current branch to %s in %s"
	gitMergeFastForwardActionTemplateConstant        = "fast-forward current branch to %s in %s"
	gitMergeInProgressTemplateConstant               = "Merging %s into current branch in %s"
	gitMergeCompletedTemplateConstant                = "Merged %s into current branch in %s"
	gitMergeActionTemplateConstant                   = "merge %s into current branch in %s"
	gitMergeAbortInProgressTemplateConstant          = "Aborting unfinished merge in %s"
	gitMergeAbortCompletedTemplateConstant           = "Aborted unfinished merge in %s"
	gitMergeAbortActionTemplateConstant              = "abort unfinished merge in %s"
	gitPushInProgressTemplateConstant                = "Pushing %s to %s from %s"
	gitPushCompletedTemplateConstant                 = "Pushed %s to %s from %s"
	gitPushActionTemplateConstant                    = "push %s to %s from %s"
	gitPublishInProgressTemplateConstant             = "Publishing %s to %s from %s"
	gitPublishCompletedTemplateConstant              = "Published %s to %s from %s"
	gitPublishActionTemplateConstant                 = "publish %s to %s from %s"
	gitStashPushInProgressTemplateConstant           = "Stashing local changes in %s"
	gitStashPushCompletedTemplateConstant            = "Stashed local changes in %s"
	gitStashPushActionTemplateConstant               = "stash local changes in %s"
	gitStashPopInProgressTemplateConstant            = "Restoring stashed changes in %s"
	gitStashPopCompletedTemplateConstant             = "Restored stashed changes in %s"
	gitStashPopActionTemplateConstant                = "restore stashed changes in %s"
	gitBranchDeletionInProgressTemplateConstant      = "Removing local branch %s in %s"
	gitBranchForceDeletionInProgressTemplateConstant = "Force removing local branch %s in %s"
	gitBranchDeletionCompletedTemplateConstant       = "Removed local branch %s in %s"
	gitBranchDeletionActionTemplateConstant          = "remove local branch %s in %s"
	gitCloneInProgressTemplateConstant               = "Cloning %s into %s"
	gitCloneCompletedTemplateConstant                = "Cloned %s into %s"
	gitCloneActionTemplateConstant                   = "clone %s into %s"
)

// gitActionDescription holds the three phrasings used for one git invocation.
type gitActionDescription struct {
	inProgress string
	completed  string
	action     string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	description, described := formatter.describeGitCommand(command, result)
	if !described {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch stage {
	case messageStageStart:
		return description.inProgress
	case messageStageSuccess:
		return description.completed
	case messageStageFailure:
		return fmt.Sprintf(describedFailureTemplateConstant, description.action, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(describedExecutionFailureTemplateConstant, description.action, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeGitCommand(command ShellCommand, result ExecutionResult) (gitActionDescription, bool) {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return gitActionDescription{}, false
	}
	workingDirectory := formatter.describeWorkingDirectory(command)
	positionalArguments := positionalArgumentsAfterSubcommand(arguments)

	switch strings.TrimSpace(arguments[0]) {
	case gitFetchSubcommandNameConstant:
		return formatter.describeGitFetch(positionalArguments, workingDirectory), true
	case gitStatusSubcommandNameConstant:
		return describeAction(gitStatusInProgressTemplateConstant, gitStatusCompletedTemplateConstant, gitStatusActionTemplateConstant, workingDirectory), true
	case gitForEachRefSubcommandNameConstant:
		return formatter.describeGitForEachRef(arguments, positionalArguments, workingDirectory, result), true
	case gitRevParseSubcommandNameConstant:
		reference := formatter.ensureValue(lastArgument(positionalArguments))
		return describeAction(gitRevisionInProgressTemplateConstant, gitRevisionCompletedTemplateConstant, gitRevisionActionTemplateConstant, reference, workingDirectory), true
	case gitRevListSubcommandNameConstant:
		localReference, upstreamReference := splitSymmetricRange(lastArgument(positionalArguments))
		return describeAction(gitCountInProgressTemplateConstant, gitCountCompletedTemplateConstant, gitCountActionTemplateConstant, formatter.ensureValue(shortBranchName(localReference)), formatter.ensureValue(upstreamReference), workingDirectory), true
	case gitMergeBaseSubcommandNameConstant:
		branchName := formatter.ensureValue(shortBranchName(argumentAtIndex(positionalArguments, 0)))
		reference := formatter.ensureValue(shortBranchName(argumentAtIndex(positionalArguments, 1)))
		return describeAction(gitAncestryInProgressTemplateConstant, gitAncestryCompletedTemplateConstant, gitAncestryActionTemplateConstant, branchName, reference, workingDirectory), true
	case gitLogSubcommandNameConstant:
		branchName := formatter.ensureValue(shortBranchName(lastArgument(positionalArguments)))
		return describeAction(gitLastCommitInProgressTemplateConstant, gitLastCommitCompletedTemplateConstant, gitLastCommitActionTemplateConstant, branchName, workingDirectory), true
	case gitSymbolicRefSubcommandNameConstant:
		return gitActionDescription{
			inProgress: fmt.Sprintf(gitCurrentBranchInProgressTemplateConstant, workingDirectory),
			completed:  fmt.Sprintf(gitCurrentBranchCompletedTemplateConstant, workingDirectory, formatter.ensureValue(shortBranchName(result.StandardOutput))),
			action:     fmt.Sprintf(gitCurrentBranchActionTemplateConstant, workingDirectory),
		}, true
	case gitRemoteSubcommandNameConstant:
		if argumentAtIndex(positionalArguments, 0) != gitRemoteGetURLSubcommandNameConstant {
			return gitActionDescription{}, false
		}
		remoteName := formatter.ensureValue(argumentAtIndex(positionalArguments, 1))
		return gitActionDescription{
			inProgress: fmt.Sprintf(gitRemoteLookupInProgressTemplateConstant, remoteName, workingDirectory),
			completed:  fmt.Sprintf(gitRemoteLookupCompletedTemplateConstant, remoteName, workingDirectory, formatter.ensureValue(result.StandardOutput)),
			action:     fmt.Sprintf(gitRemoteLookupActionTemplateConstant, remoteName, workingDirectory),
		}, true
	case gitMergeSubcommandNameConstant:
		if containsArgument(arguments, gitAbortFlagConstant) {
			return describeAction(gitMergeAbortInProgressTemplateConstant, gitMergeAbortCompletedTemplateConstant, gitMergeAbortActionTemplateConstant, workingDirectory), true
		}
		upstreamReference := formatter.ensureValue(lastArgument(positionalArguments))
		if containsArgument(arguments, gitFastForwardOnlyFlagConstant) {
			return describeAction(gitMergeFastForwardInProgressTemplateConstant, gitMergeFastForwardCompletedTemplateConstant, gitMergeFastForwardActionTemplateConstant, upstreamReference, workingDirectory), true
		}
		return describeAction(gitMergeInProgressTemplateConstant, gitMergeCompletedTemplateConstant, gitMergeActionTemplateConstant, upstreamReference, workingDirectory), true
	case gitPushSubcommandNameConstant:
		remoteName := formatter.ensureValue(argumentAtIndex(positionalArguments, 0))
		branchName := formatter.ensureValue(argumentAtIndex(positionalArguments, 1))
		if containsArgument(arguments, gitSetUpstreamFlagConstant) {
			return describeAction(gitPublishInProgressTemplateConstant, gitPublishCompletedTemplateConstant, gitPublishActionTemplateConstant, branchName, remoteName, workingDirectory), true
		}
		return describeAction(gitPushInProgressTemplateConstant, gitPushCompletedTemplateConstant, gitPushActionTemplateConstant, branchName, remoteName, workingDirectory), true
	case gitStashSubcommandNameConstant:
		switch argumentAtIndex(positionalArguments, 0) {
		case gitStashPushSubcommandNameConstant:
			return describeAction(gitStashPushInProgressTemplateConstant, gitStashPushCompletedTemplateConstant, gitStashPushActionTemplateConstant, workingDirectory), true
		case gitStashPopSubcommandNameConstant:
			return describeAction(gitStashPopInProgressTemplateConstant, gitStashPopCompletedTemplateConstant, gitStashPopActionTemplateConstant, workingDirectory), true
		}
		return gitActionDescription{}, false
	case gitBranchSubcommandNameConstant:
		branchName := formatter.ensureValue(lastArgument(positionalArguments))
		description := describeAction(gitBranchDeletionInProgressTemplateConstant, gitBranchDeletionCompletedTemplateConstant, gitBranchDeletionActionTemplateConstant, branchName, workingDirectory)
		if containsArgument(arguments, gitForceFlagConstant) {
			description.inProgress = fmt.Sprintf(gitBranchForceDeletionInProgressTemplateConstant, branchName, workingDirectory)
		}
		return description, true
	case gitCloneSubcommandNameConstant:
		source := formatter.ensureValue(argumentAtIndex(positionalArguments, 0))
		destination := formatter.ensureValue(argumentAtIndex(positionalArguments, 1))
		return describeAction(gitCloneInProgressTemplateConstant, gitCloneCompletedTemplateConstant, gitCloneActionTemplateConstant, source, destination), true
	default:
		return gitActionDescription{}, false
	}
}

func (formatter CommandMessageFormatter) describeGitFetch(positionalArguments []string, workingDirectory string) gitActionDescription {
	remoteName := argumentAtIndex(positionalArguments, 0)
	if remoteName == localRepositoryFetchSourceConstant {
		sourceReference, destinationReference := splitRefspec(argumentAtIndex(positionalArguments, 1))
		branchName := formatter.ensureValue(strings.TrimPrefix(destinationReference, localHeadsReferencePrefixConstant))
		return describeAction(gitFastForwardInProgressTemplateConstant, gitFastForwardCompletedTemplateConstant, gitFastForwardActionTemplateConstant, branchName, formatter.ensureValue(sourceReference), workingDirectory)
	}
	if len(remoteName) == 0 {
		remoteName = gitFetchAllRemotesLabelConstant
	}
	return describeAction(gitFetchInProgressTemplateConstant, gitFetchCompletedTemplateConstant, gitFetchActionTemplateConstant, remoteName, workingDirectory)
}

func (formatter CommandMessageFormatter) describeGitForEachRef(arguments []string, positionalArguments []string, workingDirectory string, result ExecutionResult) gitActionDescription {
	if !argumentContains(arguments, gitUpstreamFormatMarkerConstant) {
		return describeAction(gitBranchListInProgressTemplateConstant, gitBranchListCompletedTemplateConstant, gitBranchListActionTemplateConstant, workingDirectory)
	}
	branchName := formatter.ensureValue(strings.TrimPrefix(lastArgument(positionalArguments), localHeadsReferencePrefixConstant))
	description := gitActionDescription{
		inProgress: fmt.Sprintf(gitUpstreamInProgressTemplateConstant, branchName, workingDirectory),
		completed:  fmt.Sprintf(gitUpstreamMissingCompletedTemplateConstant, branchName, workingDirectory),
		action:     fmt.Sprintf(gitUpstreamActionTemplateConstant, branchName, workingDirectory),
	}
	upstreamReference := strings.TrimSpace(result.StandardOutput)
	if len(upstreamReference) > 0 {
		description.completed = fmt.Sprintf(gitUpstreamCompletedTemplateConstant, branchName, workingDirectory, upstreamReference)
	}
	return description
}

func describeAction(inProgressTemplate string, completedTemplate string, actionTemplate string, values ...any) gitActionDescription {
	return gitActionDescription{
		inProgress: fmt.Sprintf(inProgressTemplate, values...),
		completed:  fmt.Sprintf(completedTemplate, values...),
		action:     fmt.Sprintf(actionTemplate, values...),
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

// positionalArgumentsAfterSubcommand drops the subcommand and every flag.
func positionalArgumentsAfterSubcommand(arguments []string) []string {
	positionalArguments := []string{}
	for index := 1; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positionalArguments = append(positionalArguments, trimmed)
	}
	return positionalArguments
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func argumentContains(arguments []string, fragment string) bool {
	for _, argument := range arguments {
		if strings.Contains(argument, fragment) {
			return true
		}
	}
	return false
}

func argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func lastArgument(arguments []string) string {
	return argumentAtIndex(arguments, len(arguments)-1)
}

func splitSymmetricRange(rangeExpression string) (string, string) {
	left, right, found := strings.Cut(rangeExpression, gitLeftRightSeparatorConstant)
	if !found {
		return rangeExpression, emptyStringConstant
	}
	return left, right
}

func splitRefspec(refspec string) (string, string) {
	source, destination, found := strings.Cut(refspec, refspecSeparatorConstant)
	if !found {
		return refspec, emptyStringConstant
	}
	return source, destination
}

// shortBranchName drops the refs/heads/ qualifier from fully spelled local branch references.
func shortBranchName(reference string) string {
	return strings.TrimPrefix(strings.TrimSpace(reference), localHeadsReferencePrefixConstant)
}
