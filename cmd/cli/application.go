package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/cmd/cli/repos"
	"github.com/temirov/gitfleet/internal/utils"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	applicationNameConstant                 = "gitfleet"
	applicationShortDescriptionConstant     = "Inspect and level fleets of local git repositories"
	applicationLongDescriptionConstant      = "gitfleet discovers git repositories (including submodules and gitdir-linked worktrees), reports how every local branch relates to its upstream, and drives bulk synchronization, pruning, backup and restore."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagDescriptionConstant         = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagDescriptionConstant        = "Override the configured log format."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Also write structured logs to this rotating file."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogFileConfigKeyConstant          = commonConfigurationKeyConstant + ".log_file"
	commonCommandTimeoutConfigKeyConstant   = commonConfigurationKeyConstant + ".command_timeout"
	commonConcurrencyConfigKeyConstant      = commonConfigurationKeyConstant + ".concurrency"
	defaultCommandTimeoutConstant           = 2 * time.Minute
	defaultConcurrencyConstant              = 4
	environmentPrefixConstant               = "GITFLEET"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationDirectoryNameConstant  = "gitfleet"
	toolsConfigurationKeyConstant           = "tools"
	configurationTimeoutFieldConstant       = "command_timeout"
	configurationConcurrencyFieldConstant   = "concurrency"
)

var ignorableSyncErrors = []error{syscall.ENOTSUP, syscall.EINVAL, syscall.ENOTTY}

// applicationVersion is replaced at build time through -ldflags "-X".
var applicationVersion = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  repos.ToolsConfiguration       `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores settings shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	LogFile        string        `mapstructure:"log_file"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	Concurrency    int           `mapstructure:"concurrency"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	logFileFlagValue       string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       applicationVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	logLevels := []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	logFormats := []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flagutils.FormatChoiceUsage(string(utils.LogLevelInfo), logLevels, logLevelFlagDescriptionConstant))
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flagutils.FormatChoiceUsage(string(utils.LogFormatStructured), logFormats, logFormatFlagDescriptionConstant))
	cobraCommand.PersistentFlags().StringVar(&application.logFileFlagValue, logFileFlagNameConstant, "", logFileFlagUsageConstant)

	commandDependencies := repos.CommandDependencies{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		RuntimeSettingsProvider: application.runtimeSettings,
	}

	statusBuilder := repos.StatusCommandBuilder{
		CommandDependencies: commandDependencies,
		ConfigurationProvider: func() repos.StatusConfiguration {
			return application.configuration.Tools.Status
		},
	}
	syncBuilder := repos.SyncCommandBuilder{
		CommandDependencies: commandDependencies,
		ConfigurationProvider: func() repos.SyncConfiguration {
			return application.configuration.Tools.Sync
		},
	}
	pruneBuilder := repos.PruneCommandBuilder{
		CommandDependencies: commandDependencies,
		ConfigurationProvider: func() repos.PruneConfiguration {
			return application.configuration.Tools.Prune
		},
	}
	backupBuilder := repos.BackupCommandBuilder{
		CommandDependencies: commandDependencies,
		ConfigurationProvider: func() repos.BackupConfiguration {
			return application.configuration.Tools.Backup
		},
	}
	restoreBuilder := repos.RestoreCommandBuilder{
		CommandDependencies: commandDependencies,
		ConfigurationProvider: func() repos.RestoreConfiguration {
			return application.configuration.Tools.Restore
		},
	}

	for _, build := range []func() (*cobra.Command, error){
		statusBuilder.Build,
		syncBuilder.Build,
		pruneBuilder.Build,
		backupBuilder.Build,
		restoreBuilder.Build,
	} {
		subcommand, buildError := build()
		if buildError == nil {
			cobraCommand.AddCommand(subcommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, userConfigurationError := os.UserConfigDir(); userConfigurationError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, userConfigurationDirectoryNameConstant))
	}
	return searchPaths
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	if loadError := application.loadConfiguration(); loadError != nil {
		return loadError
	}
	application.applyLoggingFlagOverrides(command)
	if loggerError := application.configureLoggers(); loggerError != nil {
		return loggerError
	}
	application.propagateConfigurationPath(command)
	return nil
}

func (application *Application) loadConfiguration() error {
	defaultValues := repos.DefaultConfigurationValues(toolsConfigurationKeyConstant)
	defaultValues[commonLogLevelConfigKeyConstant] = string(utils.LogLevelInfo)
	defaultValues[commonLogFormatConfigKeyConstant] = string(utils.LogFormatStructured)
	defaultValues[commonLogFileConfigKeyConstant] = ""
	defaultValues[commonCommandTimeoutConfigKeyConstant] = defaultCommandTimeoutConstant
	defaultValues[commonConcurrencyConfigKeyConstant] = defaultConcurrencyConstant

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration
	return nil
}

// applyLoggingFlagOverrides lets explicitly passed logging flags win over every configuration layer.
func (application *Application) applyLoggingFlagOverrides(command *cobra.Command) {
	if command == nil {
		return
	}
	overrides := []struct {
		flagName string
		target   *string
	}{
		{flagName: logLevelFlagNameConstant, target: &application.configuration.Common.LogLevel},
		{flagName: logFormatFlagNameConstant, target: &application.configuration.Common.LogFormat},
		{flagName: logFileFlagNameConstant, target: &application.configuration.Common.LogFile},
	}
	for _, override := range overrides {
		if flag := command.Flag(override.flagName); flag != nil && flag.Changed {
			*override.target = flag.Value.String()
		}
	}
}

func (application *Application) configureLoggers() error {
	commonConfiguration := application.configuration.Common
	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(commonConfiguration.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(commonConfiguration.LogFormat))),
		commonConfiguration.LogFile,
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger
	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, commonConfiguration.LogLevel),
		zap.String(configurationLogFormatFieldConstant, commonConfiguration.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Duration(configurationTimeoutFieldConstant, commonConfiguration.CommandTimeout),
		zap.Int(configurationConcurrencyFieldConstant, commonConfiguration.Concurrency),
	)
	return nil
}

func (application *Application) propagateConfigurationPath(command *cobra.Command) {
	if command == nil {
		return
	}
	configuredContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
	command.SetContext(configuredContext)
	if rootCommand := command.Root(); rootCommand != nil && rootCommand != command {
		rootCommand.SetContext(configuredContext)
	}
}

func (application *Application) runtimeSettings() repos.RuntimeSettings {
	settings := repos.RuntimeSettings{
		CommandTimeout: application.configuration.Common.CommandTimeout,
		Concurrency:    application.configuration.Common.Concurrency,
	}
	if strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole)) {
		settings.ConsoleLogger = application.consoleLogger
	}
	return settings
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if logger == nil {
			continue
		}
		if syncError := logger.Sync(); syncError != nil && !isIgnorableSyncError(syncError) {
			return syncError
		}
	}
	return nil
}

// isIgnorableSyncError reports errors returned when syncing terminals and pipes.
func isIgnorableSyncError(syncError error) bool {
	for _, ignorable := range ignorableSyncErrors {
		if errors.Is(syncError, ignorable) {
			return true
		}
	}
	return false
}
