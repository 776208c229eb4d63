package repos

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/inventory"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	backupUseConstant                  = "backup [root ...]"
	backupShortDescription             = "Write an inventory of discovered repositories and their remotes"
	backupLongDescription              = "backup discovers repositories under the roots and writes their names, paths and remote URLs to a JSON (or YAML) file that restore can replay."
	inventoryFileFlagUsageConstant     = "Inventory file to write (.json, .yaml or .yml)"
	backupSavedMessageTemplateConstant = "Saved %d repositories to %s\n"
)

// BackupCommandBuilder assembles the backup command.
type BackupCommandBuilder struct {
	CommandDependencies
	ConfigurationProvider func() BackupConfiguration
}

// Build constructs the backup command.
func (builder *BackupCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   backupUseConstant,
		Short: backupShortDescription,
		Long:  backupLongDescription,
		RunE:  builder.run,
	}

	flagutils.BindRootFlags(command, flagutils.RootFlagValues{})
	flagutils.EnsureRemoteFlag(command, "")
	command.Flags().StringP(flagutils.OutputFlagName, flagutils.OutputFlagShorthand, "", inventoryFileFlagUsageConstant)

	return command, nil
}

func (builder *BackupCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	roots, rootsError := resolveRepositoryRoots(command, arguments, configuration.RepositoryRoots)
	if rootsError != nil {
		return rootsError
	}

	records, discoveryError := builder.discoverRecords(roots)
	if discoveryError != nil {
		return discoveryError
	}

	gitExecutor, executorError := builder.gitExecutor()
	if executorError != nil {
		return executorError
	}
	resolver, resolverError := inventory.NewRemoteResolver(gitExecutor, builder.logger(), resolveString(command, flagutils.RemoteFlagName, configuration.RemoteName))
	if resolverError != nil {
		return resolverError
	}

	entries := inventory.BuildEntries(resolver.Resolve(commandContext(command), records))
	outputPath := resolveString(command, flagutils.OutputFlagName, configuration.Output)
	if saveError := inventory.NewStore(builder.FileSystem).Save(outputPath, entries); saveError != nil {
		return saveError
	}

	_, writeError := fmt.Fprintf(command.OutOrStdout(), backupSavedMessageTemplateConstant, len(entries), outputPath)
	return writeError
}

func (builder *BackupCommandBuilder) resolveConfiguration() BackupConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultToolsConfiguration().Backup.sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}
