package repos

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/status"
	"github.com/temirov/gitfleet/internal/synchronization"
	"github.com/temirov/gitfleet/internal/ui"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	syncUseConstant                     = "sync [root ...]"
	syncShortDescription                = "Bring local branches level with their upstreams"
	syncLongDescription                 = "sync fast-forwards branches that are behind their upstream, optionally pushes unpublished work, and reports every repository it could not level."
	syncFetchFlagUsageConstant          = "Fetch and prune the remote before deciding what to synchronize"
	stashFlagNameConstant               = "stash"
	stashFlagUsageConstant              = "Stash uncommitted changes around the update and restore them afterwards"
	pushFlagNameConstant                = "push"
	pushFlagUsageConstant               = "Push branches that are ahead of their upstream and publish branches without one"
	includeUncommittedFlagNameConstant  = "include-uncommitted"
	includeUncommittedFlagUsageConstant = "Also consider repositories with uncommitted changes"
	syncNothingToDoMessageConstant      = "All repositories are synchronized.\n"
	syncFailuresErrorTemplateConstant   = "%d of %d repositories failed to synchronize"
)

// SyncCommandBuilder assembles the sync command.
type SyncCommandBuilder struct {
	CommandDependencies
	ConfigurationProvider func() SyncConfiguration
}

// Build constructs the sync command.
func (builder *SyncCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   syncUseConstant,
		Short: syncShortDescription,
		Long:  syncLongDescription,
		RunE:  builder.run,
	}

	flagutils.BindRootFlags(command, flagutils.RootFlagValues{})
	flagutils.EnsureRemoteFlag(command, "")
	flagutils.BindExecutionFlags(command, flagutils.ExecutionDefaults{})
	command.Flags().Bool(fetchFlagNameConstant, false, syncFetchFlagUsageConstant)
	command.Flags().Bool(stashFlagNameConstant, false, stashFlagUsageConstant)
	command.Flags().Bool(pushFlagNameConstant, false, pushFlagUsageConstant)
	command.Flags().Bool(includeUncommittedFlagNameConstant, false, includeUncommittedFlagUsageConstant)
	command.Flags().StringP(flagutils.OutputFlagName, flagutils.OutputFlagShorthand, "", reportFormatUsage(defaultReportFormatConstant))

	return command, nil
}

func (builder *SyncCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	reportFormat, formatError := parseReportFormat(resolveString(command, flagutils.OutputFlagName, ""))
	if formatError != nil {
		return formatError
	}

	roots, rootsError := resolveRepositoryRoots(command, arguments, configuration.RepositoryRoots)
	if rootsError != nil {
		return rootsError
	}

	remoteName := resolveString(command, flagutils.RemoteFlagName, configuration.RemoteName)
	presenter := builder.presenter(command)
	executionContext := commandContext(command)

	statuses, collectionError := builder.collectStatuses(executionContext, roots, remoteName, status.CollectOptions{
		FetchFirst: flagutils.ResolveBool(command, fetchFlagNameConstant, configuration.Fetch),
		Presenter:  presenter,
	})
	if collectionError != nil {
		return collectionError
	}

	candidates := synchronization.Candidates(statuses, flagutils.ResolveBool(command, includeUncommittedFlagNameConstant, configuration.IncludeUncommitted))
	if len(candidates) == 0 {
		_, writeError := io.WriteString(command.OutOrStdout(), syncNothingToDoMessageConstant)
		return writeError
	}

	selected, selectionError := synchronization.SelectCandidates(candidates, resolveSelectionPolicy(command, configuration.Automatic), presenter)
	if selectionError != nil {
		return selectionError
	}

	gitExecutor, executorError := builder.gitExecutor()
	if executorError != nil {
		return executorError
	}
	engine, engineError := synchronization.NewEngine(gitExecutor, builder.logger())
	if engineError != nil {
		return engineError
	}

	report := engine.Synchronize(executionContext, selected, synchronization.Options{
		RemoteName: remoteName,
		Stash:      flagutils.ResolveBool(command, stashFlagNameConstant, configuration.Stash),
		Push:       flagutils.ResolveBool(command, pushFlagNameConstant, configuration.Push),
		DryRun:     resolveDryRun(command, configuration.DryRun),
		Presenter:  presenter,
	})

	if writeError := writeReport(command.OutOrStdout(), reportFormat, report, func() string {
		return ui.RenderSynchronizationReport(report)
	}); writeError != nil {
		return writeError
	}

	if failedCount := report.FailedCount(); failedCount > 0 {
		return fmt.Errorf(syncFailuresErrorTemplateConstant, failedCount, len(report.Outcomes))
	}
	return nil
}

func (builder *SyncCommandBuilder) resolveConfiguration() SyncConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultToolsConfiguration().Sync.sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}
