package status

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	gitFetchSubcommandConstant         = "fetch"
	gitPruneFlagConstant               = "--prune"
	gitStatusSubcommandConstant        = "status"
	gitPorcelainFlagConstant           = "--porcelain"
	gitRemoteSubcommandConstant        = "remote"
	gitGetURLSubcommandConstant        = "get-url"
	gitForEachRefSubcommandConstant    = "for-each-ref"
	gitBranchNameFormatConstant        = "--format=%(refname:lstrip=2)"
	gitUpstreamFormatConstant          = "--format=%(upstream)"
	gitLocalBranchNamespaceConstant    = "refs/heads"
	gitSymbolicRefSubcommandConstant   = "symbolic-ref"
	gitQuietFlagConstant               = "--quiet"
	gitHeadReferenceConstant           = "HEAD"
	gitRevParseSubcommandConstant      = "rev-parse"
	gitVerifyFlagConstant              = "--verify"
	gitRevListSubcommandConstant       = "rev-list"
	gitLeftRightFlagConstant           = "--left-right"
	gitCountFlagConstant               = "--count"
	gitMergeBaseSubcommandConstant     = "merge-base"
	gitIsAncestorFlagConstant          = "--is-ancestor"
	gitLogSubcommandConstant           = "log"
	gitSingleCommitFlagConstant        = "-1"
	gitCommitTimestampFormatConstant   = "--format=%ct"
	gitSymmetricRangeTemplateConstant  = "%s...%s"
	gitBranchReferenceTemplateConstant = "refs/heads/%s"
	gitBranchReferencePrefixConstant   = "refs/heads/"

	notAncestorExitCodeConstant = 1
	defaultConcurrencyConstant  = 4

	fetchFailedTemplateConstant             = "failed to fetch updates: %w"
	statusFailedTemplateConstant            = "failed to read working tree status: %w"
	remoteLookupFailedTemplateConstant      = "failed to resolve remote url: %w"
	branchListFailedTemplateConstant        = "failed to list local branches: %w"
	currentBranchFailedTemplateConstant     = "failed to resolve current branch: %w"
	upstreamLookupFailedTemplateConstant    = "failed to resolve upstream of %s: %w"
	upstreamVerifyFailedTemplateConstant    = "failed to verify upstream %s: %w"
	aheadBehindFailedTemplateConstant       = "failed to count commits between %s and %s: %w"
	mergeCheckFailedTemplateConstant        = "failed to check whether %s is merged into %s: %w"
	lastCommitFailedTemplateConstant        = "failed to read last commit date of %s: %w"
	collectionFailedLogMessageConstant      = "Failed to collect repository status"
	collectingProgressTemplateConstant      = "Collecting status of %s"
	repositoryLogFieldConstant              = "repository"
	gitExecutorNotConfiguredMessageConstant = "git executor not configured"
)

// ErrGitExecutorNotConfigured indicates a collector was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// CollectorOption customizes a Collector.
type CollectorOption func(*Collector)

// WithRemoteName selects the remote used for fetch and remote URL lookup.
func WithRemoteName(remoteName string) CollectorOption {
	return func(collector *Collector) {
		trimmedRemoteName := strings.TrimSpace(remoteName)
		if len(trimmedRemoteName) > 0 {
			collector.remoteName = trimmedRemoteName
		}
	}
}

// WithConcurrency bounds the number of repositories collected in parallel by CollectAll.
func WithConcurrency(concurrency int) CollectorOption {
	return func(collector *Collector) {
		if concurrency > 0 {
			collector.concurrency = concurrency
		}
	}
}

// Collector queries git for the branch status of repositories.
type Collector struct {
	gitExecutor shared.GitExecutor
	logger      *zap.Logger
	remoteName  string
	concurrency int
}

// CollectOptions configures a bulk collection.
type CollectOptions struct {
	ReferenceBranch string
	FetchFirst      bool
	Presenter       shared.Presenter
}

// NewCollector constructs a Collector.
func NewCollector(gitExecutor shared.GitExecutor, logger *zap.Logger, options ...CollectorOption) (*Collector, error) {
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	collector := &Collector{
		gitExecutor: gitExecutor,
		logger:      logger,
		remoteName:  shared.OriginRemoteNameConstant,
		concurrency: defaultConcurrencyConstant,
	}
	for _, option := range options {
		if option != nil {
			option(collector)
		}
	}
	return collector, nil
}

// RemoteName returns the remote the collector fetches from.
func (collector *Collector) RemoteName() string {
	return collector.remoteName
}

// Collect builds the status of one repository. Failures never escape: they are recorded on the returned
// status, which then carries no branch information.
func (collector *Collector) Collect(executionContext context.Context, record shared.RepositoryRecord, referenceBranch string, fetchFirst bool) RepositoryStatus {
	repositoryStatus, collectionError := collector.collect(executionContext, record, strings.TrimSpace(referenceBranch), fetchFirst)
	if collectionError != nil {
		collector.logger.Warn(collectionFailedLogMessageConstant,
			zap.String(repositoryLogFieldConstant, record.Path),
			zap.Error(collectionError),
		)
		return RepositoryStatus{Record: record, LocalBranches: []BranchStatus{}, ErrorMessage: collectionError.Error()}
	}
	return repositoryStatus
}

// CollectAll collects every record with bounded parallelism. Results follow the input order.
func (collector *Collector) CollectAll(executionContext context.Context, records []shared.RepositoryRecord, options CollectOptions) []RepositoryStatus {
	statuses := make([]RepositoryStatus, len(records))
	if len(records) == 0 {
		return statuses
	}

	var progressMutex sync.Mutex
	notifyProgress := func(record shared.RepositoryRecord) {
		if options.Presenter == nil {
			return
		}
		progressMutex.Lock()
		defer progressMutex.Unlock()
		options.Presenter.NotifyProgress(fmt.Sprintf(collectingProgressTemplateConstant, record.Path))
	}

	var group errgroup.Group
	group.SetLimit(collector.concurrency)
	for recordIndex := range records {
		record := records[recordIndex]
		group.Go(func() error {
			notifyProgress(record)
			statuses[recordIndex] = collector.Collect(executionContext, record, options.ReferenceBranch, options.FetchFirst)
			return nil
		})
	}
	_ = group.Wait()
	return statuses
}

func (collector *Collector) collect(executionContext context.Context, record shared.RepositoryRecord, referenceBranch string, fetchFirst bool) (RepositoryStatus, error) {
	if fetchFirst {
		if _, fetchError := collector.run(executionContext, record, gitFetchSubcommandConstant, gitPruneFlagConstant, collector.remoteName); fetchError != nil {
			return RepositoryStatus{}, fmt.Errorf(fetchFailedTemplateConstant, fetchError)
		}
	}

	porcelainOutput, statusError := collector.run(executionContext, record, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if statusError != nil {
		return RepositoryStatus{}, fmt.Errorf(statusFailedTemplateConstant, statusError)
	}

	remoteURL, remoteError := collector.optionalQuery(executionContext, record, gitRemoteSubcommandConstant, gitGetURLSubcommandConstant, collector.remoteName)
	if remoteError != nil {
		return RepositoryStatus{}, fmt.Errorf(remoteLookupFailedTemplateConstant, remoteError)
	}
	record.RemoteURL = remoteURL

	branchOutput, branchListError := collector.run(executionContext, record, gitForEachRefSubcommandConstant, gitBranchNameFormatConstant, gitLocalBranchNamespaceConstant)
	if branchListError != nil {
		return RepositoryStatus{}, fmt.Errorf(branchListFailedTemplateConstant, branchListError)
	}
	branchNames := ParseBranchList(branchOutput)

	headReference, currentBranchError := collector.optionalQuery(executionContext, record, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitHeadReferenceConstant)
	if currentBranchError != nil {
		return RepositoryStatus{}, fmt.Errorf(currentBranchFailedTemplateConstant, currentBranchError)
	}
	currentBranch := ""
	if strings.HasPrefix(headReference, gitBranchReferencePrefixConstant) {
		currentBranch = strings.TrimPrefix(headReference, gitBranchReferencePrefixConstant)
	}

	if len(referenceBranch) == 0 {
		referenceBranch = currentBranch
	}
	if len(referenceBranch) == 0 {
		referenceBranch = gitHeadReferenceConstant
	}
	reference := branchReference{
		name:     referenceBranch,
		revision: referenceBranch,
		isHead:   referenceBranch == gitHeadReferenceConstant || referenceBranch == currentBranch,
	}
	for _, branchName := range branchNames {
		if branchName == referenceBranch {
			reference.revision = qualifiedBranchReference(branchName)
			break
		}
	}

	branchStatuses := make([]BranchStatus, 0, len(branchNames))
	for _, branchName := range branchNames {
		branchStatus, branchError := collector.collectBranch(executionContext, record, branchName, currentBranch, reference)
		if branchError != nil {
			return RepositoryStatus{}, branchError
		}
		branchStatuses = append(branchStatuses, branchStatus)
	}

	return RepositoryStatus{
		Record:                record,
		HasUncommittedChanges: ParsePorcelainStatus(porcelainOutput),
		LocalBranches:         branchStatuses,
	}, nil
}

// branchReference is the branch merge state is measured against. revision is what git is given.
type branchReference struct {
	name     string
	revision string
	isHead   bool
}

func qualifiedBranchReference(branchName string) string {
	return fmt.Sprintf(gitBranchReferenceTemplateConstant, branchName)
}

func (collector *Collector) collectBranch(executionContext context.Context, record shared.RepositoryRecord, branchName string, currentBranch string, reference branchReference) (BranchStatus, error) {
	branchStatus := BranchStatus{
		RepositoryPath: record.Path,
		Name:           branchName,
		IsCurrent:      branchName == currentBranch,
	}
	branchRevision := qualifiedBranchReference(branchName)

	upstreamOutput, upstreamError := collector.run(executionContext, record, gitForEachRefSubcommandConstant, gitUpstreamFormatConstant, branchRevision)
	if upstreamError != nil {
		return BranchStatus{}, fmt.Errorf(upstreamLookupFailedTemplateConstant, branchName, upstreamError)
	}
	branchStatus.Upstream = strings.TrimSpace(upstreamOutput)

	if branchStatus.HasUpstream() {
		upstreamExists, verifyError := collector.referenceExists(executionContext, record, branchStatus.Upstream)
		if verifyError != nil {
			return BranchStatus{}, fmt.Errorf(upstreamVerifyFailedTemplateConstant, branchStatus.Upstream, verifyError)
		}
		branchStatus.IsGone = !upstreamExists

		if upstreamExists {
			countOutput, countError := collector.run(executionContext, record, gitRevListSubcommandConstant, gitLeftRightFlagConstant, gitCountFlagConstant, fmt.Sprintf(gitSymmetricRangeTemplateConstant, branchRevision, branchStatus.Upstream))
			if countError != nil {
				return BranchStatus{}, fmt.Errorf(aheadBehindFailedTemplateConstant, branchName, branchStatus.Upstream, countError)
			}
			aheadCount, behindCount, parseError := ParseAheadBehind(countOutput)
			if parseError != nil {
				return BranchStatus{}, fmt.Errorf(aheadBehindFailedTemplateConstant, branchName, branchStatus.Upstream, parseError)
			}
			branchStatus.AheadCount = aheadCount
			branchStatus.BehindCount = behindCount
		}
	}

	isMerged := branchName == reference.name
	if !isMerged {
		mergedIntoReference, mergeError := collector.isAncestor(executionContext, record, branchRevision, reference.revision)
		if mergeError != nil {
			return BranchStatus{}, fmt.Errorf(mergeCheckFailedTemplateConstant, branchName, reference.name, mergeError)
		}
		isMerged = mergedIntoReference
	}
	branchStatus.IsMerged = isMerged

	// git branch --delete accepts a branch contained in its live upstream, or in HEAD when there is none.
	if !branchStatus.IsCurrent && isMerged {
		switch {
		case branchStatus.HasUpstream() && !branchStatus.IsGone:
			branchStatus.IsFullyMerged = branchStatus.AheadCount == 0
		case reference.isHead:
			branchStatus.IsFullyMerged = true
		default:
			mergedIntoHead, headMergeError := collector.isAncestor(executionContext, record, branchRevision, gitHeadReferenceConstant)
			if headMergeError != nil {
				return BranchStatus{}, fmt.Errorf(mergeCheckFailedTemplateConstant, branchName, gitHeadReferenceConstant, headMergeError)
			}
			branchStatus.IsFullyMerged = mergedIntoHead
		}
	}

	timestampOutput, logError := collector.run(executionContext, record, gitLogSubcommandConstant, gitSingleCommitFlagConstant, gitCommitTimestampFormatConstant, branchRevision)
	if logError != nil {
		return BranchStatus{}, fmt.Errorf(lastCommitFailedTemplateConstant, branchName, logError)
	}
	lastCommitDate, timestampError := ParseUnixTimestamp(timestampOutput)
	if timestampError != nil {
		return BranchStatus{}, fmt.Errorf(lastCommitFailedTemplateConstant, branchName, timestampError)
	}
	branchStatus.LastCommitDate = lastCommitDate

	return branchStatus, nil
}

func (collector *Collector) run(executionContext context.Context, record shared.RepositoryRecord, arguments ...string) (string, error) {
	executionResult, executionError := collector.gitExecutor.ExecuteGit(executionContext, record.GitCommandDetails(arguments...))
	if executionError != nil {
		return "", executionError
	}
	return executionResult.StandardOutput, nil
}

// optionalQuery treats a non-zero exit as an absent value.
func (collector *Collector) optionalQuery(executionContext context.Context, record shared.RepositoryRecord, arguments ...string) (string, error) {
	output, executionError := collector.run(executionContext, record, arguments...)
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if errors.As(executionError, &failedError) {
			return "", nil
		}
		return "", executionError
	}
	return strings.TrimSpace(output), nil
}

func (collector *Collector) referenceExists(executionContext context.Context, record shared.RepositoryRecord, reference string) (bool, error) {
	_, executionError := collector.run(executionContext, record, gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, reference)
	if executionError == nil {
		return true, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) {
		return false, nil
	}
	return false, executionError
}

func (collector *Collector) isAncestor(executionContext context.Context, record shared.RepositoryRecord, candidate string, target string) (bool, error) {
	_, executionError := collector.run(executionContext, record, gitMergeBaseSubcommandConstant, gitIsAncestorFlagConstant, candidate, target)
	if executionError == nil {
		return true, nil
	}
	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) && failedError.Result.ExitCode == notAncestorExitCodeConstant {
		return false, nil
	}
	return false, executionError
}
