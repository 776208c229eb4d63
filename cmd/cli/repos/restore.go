package repos

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/inventory"
	"github.com/temirov/gitfleet/internal/repos/dependencies"
	"github.com/temirov/gitfleet/internal/ui"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const (
	restoreUseConstant                   = "restore"
	restoreShortDescription              = "Clone the repositories listed in an inventory file"
	restoreLongDescription               = "restore clones every inventory entry into <target>/<name>, skipping destinations that already exist."
	inputFlagNameConstant                = "input"
	inputFlagShorthandConstant           = "i"
	inputFlagUsageConstant               = "Inventory file written by backup"
	targetFlagNameConstant               = "target"
	targetFlagUsageConstant              = "Directory receiving the clones"
	reportFormatFlagNameConstant         = "format"
	restoreFailuresErrorTemplateConstant = "%d of %d repositories could not be restored"
)

// RestoreCommandBuilder assembles the restore command.
type RestoreCommandBuilder struct {
	CommandDependencies
	ConfigurationProvider func() RestoreConfiguration
}

// Build constructs the restore command.
func (builder *RestoreCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   restoreUseConstant,
		Short: restoreShortDescription,
		Long:  restoreLongDescription,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	flagutils.BindExecutionFlags(command, flagutils.ExecutionDefaults{})
	command.Flags().StringP(inputFlagNameConstant, inputFlagShorthandConstant, "", inputFlagUsageConstant)
	command.Flags().String(targetFlagNameConstant, "", targetFlagUsageConstant)
	command.Flags().String(reportFormatFlagNameConstant, "", reportFormatUsage(defaultReportFormatConstant))

	return command, nil
}

func (builder *RestoreCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	reportFormat, formatError := parseReportFormat(resolveString(command, reportFormatFlagNameConstant, ""))
	if formatError != nil {
		return formatError
	}

	homeExpander := pathutils.NewHomeExpander()
	inputPath := homeExpander.Expand(resolveString(command, inputFlagNameConstant, configuration.Input))
	targetDirectory := homeExpander.Expand(resolveString(command, targetFlagNameConstant, configuration.Target))

	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	entries, loadError := inventory.NewStore(fileSystem).Load(inputPath)
	if loadError != nil {
		return loadError
	}

	gitExecutor, executorError := builder.gitExecutor()
	if executorError != nil {
		return executorError
	}
	restorer, restorerError := inventory.NewRestorer(gitExecutor, fileSystem, builder.logger())
	if restorerError != nil {
		return restorerError
	}

	report, restoreError := restorer.Restore(commandContext(command), entries, inventory.RestoreOptions{
		TargetDirectory: targetDirectory,
		DryRun:          resolveDryRun(command, configuration.DryRun),
		Presenter:       builder.presenter(command),
	})
	if restoreError != nil {
		return restoreError
	}

	if writeError := writeReport(command.OutOrStdout(), reportFormat, report, func() string {
		return ui.RenderRestoreReport(report)
	}); writeError != nil {
		return writeError
	}

	if failedCount := report.FailedCount(); failedCount > 0 {
		return fmt.Errorf(restoreFailuresErrorTemplateConstant, failedCount, len(report.Results))
	}
	return nil
}

func (builder *RestoreCommandBuilder) resolveConfiguration() RestoreConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultToolsConfiguration().Restore.sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}
