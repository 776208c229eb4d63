package repos

import (
	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/status"
	"github.com/temirov/gitfleet/internal/ui"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	statusUseConstant            = "status [root ...]"
	statusShortDescription       = "Report how every local branch relates to its upstream"
	statusLongDescription        = "status discovers repositories under the roots and prints, per branch, the upstream, ahead and behind counts, merge state and last commit date."
	referenceFlagNameConstant    = "reference"
	referenceFlagUsageConstant   = "Branch used to decide whether other branches are merged (defaults to the current branch)"
	fetchFlagNameConstant        = "fetch"
	statusFetchFlagUsageConstant = "Fetch and prune the remote before collecting status"
)

// StatusCommandBuilder assembles the status command.
type StatusCommandBuilder struct {
	CommandDependencies
	ConfigurationProvider func() StatusConfiguration
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   statusUseConstant,
		Short: statusShortDescription,
		Long:  statusLongDescription,
		RunE:  builder.run,
	}

	flagutils.BindRootFlags(command, flagutils.RootFlagValues{})
	flagutils.EnsureRemoteFlag(command, "")
	command.Flags().String(referenceFlagNameConstant, "", referenceFlagUsageConstant)
	command.Flags().Bool(fetchFlagNameConstant, false, statusFetchFlagUsageConstant)
	command.Flags().StringP(flagutils.OutputFlagName, flagutils.OutputFlagShorthand, "", reportFormatUsage(defaultReportFormatConstant))

	return command, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	reportFormat, formatError := parseReportFormat(resolveString(command, flagutils.OutputFlagName, configuration.Output))
	if formatError != nil {
		return formatError
	}

	roots, rootsError := resolveRepositoryRoots(command, arguments, configuration.RepositoryRoots)
	if rootsError != nil {
		return rootsError
	}

	statuses, collectionError := builder.collectStatuses(
		commandContext(command),
		roots,
		resolveString(command, flagutils.RemoteFlagName, configuration.RemoteName),
		status.CollectOptions{
			ReferenceBranch: resolveString(command, referenceFlagNameConstant, configuration.ReferenceBranch),
			FetchFirst:      flagutils.ResolveBool(command, fetchFlagNameConstant, configuration.Fetch),
			Presenter:       builder.presenter(command),
		},
	)
	if collectionError != nil {
		return collectionError
	}

	return writeReport(command.OutOrStdout(), reportFormat, statuses, func() string {
		return ui.RenderStatusTable(statuses)
	})
}

func (builder *StatusCommandBuilder) resolveConfiguration() StatusConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultToolsConfiguration().Status.sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}
