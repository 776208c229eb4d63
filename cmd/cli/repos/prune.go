package repos

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/prune"
	"github.com/temirov/gitfleet/internal/status"
	"github.com/temirov/gitfleet/internal/ui"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	pruneUseConstant                   = "prune [root ...]"
	pruneShortDescription              = "Delete merged, gone or stale local branches"
	pruneLongDescription               = "prune lists local branches that are merged into the current branch, whose upstream is gone, or whose last commit is older than a threshold, and deletes the selected ones. Current and protected branches are never touched."
	mergedFlagNameConstant             = "merged"
	mergedFlagUsageConstant            = "Select branches merged into the current branch (default when no criterion is given)"
	goneFlagNameConstant               = "gone"
	goneFlagUsageConstant              = "Select branches whose upstream no longer exists"
	olderThanFlagNameConstant          = "older-than"
	olderThanFlagUsageConstant         = "Select branches whose last commit is older than this many days"
	forceFlagNameConstant              = "force"
	forceFlagUsageConstant             = "Delete branches that are not fully merged"
	protectedFlagNameConstant          = "protect"
	protectedFlagUsageConstant         = "Branch names never deleted (repeatable)"
	pruneNothingToDoMessageConstant    = "No branches match the prune criteria.\n"
	pruneFailuresErrorTemplateConstant = "%d of %d branches could not be deleted"
)

// PruneCommandBuilder assembles the prune command.
type PruneCommandBuilder struct {
	CommandDependencies
	ConfigurationProvider func() PruneConfiguration
	Advisor               *prune.Advisor
}

// Build constructs the prune command.
func (builder *PruneCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   pruneUseConstant,
		Short: pruneShortDescription,
		Long:  pruneLongDescription,
		RunE:  builder.run,
	}

	flagutils.BindRootFlags(command, flagutils.RootFlagValues{})
	flagutils.BindExecutionFlags(command, flagutils.ExecutionDefaults{})
	command.Flags().Bool(mergedFlagNameConstant, false, mergedFlagUsageConstant)
	command.Flags().Bool(goneFlagNameConstant, false, goneFlagUsageConstant)
	command.Flags().Int(olderThanFlagNameConstant, 0, olderThanFlagUsageConstant)
	command.Flags().Bool(forceFlagNameConstant, false, forceFlagUsageConstant)
	command.Flags().StringSlice(protectedFlagNameConstant, nil, protectedFlagUsageConstant)
	command.Flags().StringP(flagutils.OutputFlagName, flagutils.OutputFlagShorthand, "", reportFormatUsage(defaultReportFormatConstant))

	return command, nil
}

func (builder *PruneCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	reportFormat, formatError := parseReportFormat(resolveString(command, flagutils.OutputFlagName, ""))
	if formatError != nil {
		return formatError
	}

	roots, rootsError := resolveRepositoryRoots(command, arguments, configuration.RepositoryRoots)
	if rootsError != nil {
		return rootsError
	}

	presenter := builder.presenter(command)
	executionContext := commandContext(command)

	statuses, collectionError := builder.collectStatuses(executionContext, roots, "", status.CollectOptions{Presenter: presenter})
	if collectionError != nil {
		return collectionError
	}

	criteria := prune.Criteria{
		Merged:        flagutils.ResolveBool(command, mergedFlagNameConstant, configuration.Merged),
		Gone:          flagutils.ResolveBool(command, goneFlagNameConstant, configuration.Gone),
		OlderThanDays: resolveInt(command, olderThanFlagNameConstant, configuration.OlderThanDays),
	}
	candidates := builder.resolveAdvisor(command, configuration).Advise(statuses, criteria)
	if len(candidates) == 0 {
		_, writeError := io.WriteString(command.OutOrStdout(), pruneNothingToDoMessageConstant)
		return writeError
	}

	selected, selectionError := prune.SelectCandidates(candidates, resolveSelectionPolicy(command, configuration.Automatic), presenter)
	if selectionError != nil {
		return selectionError
	}

	gitExecutor, executorError := builder.gitExecutor()
	if executorError != nil {
		return executorError
	}
	pruner, prunerError := prune.NewPruner(gitExecutor, builder.logger())
	if prunerError != nil {
		return prunerError
	}

	report := pruner.Delete(executionContext, selected, prune.DeleteOptions{
		Force:     flagutils.ResolveBool(command, forceFlagNameConstant, configuration.Force),
		DryRun:    resolveDryRun(command, configuration.DryRun),
		Presenter: presenter,
	})

	if writeError := writeReport(command.OutOrStdout(), reportFormat, report, func() string {
		return ui.RenderDeletionReport(report)
	}); writeError != nil {
		return writeError
	}

	if failedCount := report.FailedCount(); failedCount > 0 {
		return fmt.Errorf(pruneFailuresErrorTemplateConstant, failedCount, len(report.Results))
	}
	return nil
}

func (builder *PruneCommandBuilder) resolveAdvisor(command *cobra.Command, configuration PruneConfiguration) *prune.Advisor {
	if builder.Advisor != nil {
		return builder.Advisor
	}
	protectedBranches := configuration.ProtectedBranches
	if command.Flags().Changed(protectedFlagNameConstant) {
		if flagBranches, flagError := command.Flags().GetStringSlice(protectedFlagNameConstant); flagError == nil {
			protectedBranches = append(append([]string{}, protectedBranches...), flagBranches...)
		}
	}
	return prune.NewAdvisor(prune.WithProtectedBranches(protectedBranches))
}

func (builder *PruneCommandBuilder) resolveConfiguration() PruneConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultToolsConfiguration().Prune.sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}
