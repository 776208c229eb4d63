package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/repos/dependencies"
	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/status"
	"github.com/temirov/gitfleet/internal/ui"
	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const (
	missingRepositoryRootsErrorMessageConstant = "no repository roots provided; specify --root or configure defaults"
	discoveryCompletedLogMessageConstant       = "Discovered repositories"
	logFieldRootsConstant                      = "roots"
	logFieldRepositoryCountConstant            = "repository_count"
)

var repositoryRootNormalizer = pathutils.NewRootNormalizer(pathutils.NewHomeExpander())

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// PresenterFactory creates presenters scoped to a Cobra command.
type PresenterFactory func(*cobra.Command) shared.Presenter

// RuntimeSettings carries the common execution settings resolved from configuration.
type RuntimeSettings struct {
	CommandTimeout time.Duration
	Concurrency    int
	// ConsoleLogger, when set, receives human-readable command lifecycle events.
	ConsoleLogger *zap.Logger
}

// RuntimeSettingsProvider yields the runtime settings of the current invocation.
type RuntimeSettingsProvider func() RuntimeSettings

// CommandDependencies holds collaborators shared by the fleet commands. Nil fields fall back to defaults.
type CommandDependencies struct {
	LoggerProvider          LoggerProvider
	RuntimeSettingsProvider RuntimeSettingsProvider
	PresenterFactory        PresenterFactory
	Discoverer              shared.RepositoryDiscoverer
	GitExecutor             shared.GitExecutor
	FileSystem              shared.FileSystem
}

func (commandDependencies CommandDependencies) logger() *zap.Logger {
	return resolveLogger(commandDependencies.LoggerProvider)
}

func (commandDependencies CommandDependencies) runtimeSettings() RuntimeSettings {
	if commandDependencies.RuntimeSettingsProvider == nil {
		return RuntimeSettings{}
	}
	return commandDependencies.RuntimeSettingsProvider()
}

func (commandDependencies CommandDependencies) gitExecutor() (shared.GitExecutor, error) {
	settings := commandDependencies.runtimeSettings()
	return dependencies.ResolveGitExecutor(commandDependencies.GitExecutor, commandDependencies.logger(), dependencies.GitExecutorSettings{
		CommandTimeout: settings.CommandTimeout,
		ConsoleLogger:  settings.ConsoleLogger,
	})
}

func (commandDependencies CommandDependencies) presenter(command *cobra.Command) shared.Presenter {
	if commandDependencies.PresenterFactory != nil {
		if presenter := commandDependencies.PresenterFactory(command); presenter != nil {
			return presenter
		}
	}
	return ui.NewConsolePresenter(command.InOrStdin(), command.ErrOrStderr())
}

func (commandDependencies CommandDependencies) discoverRecords(roots []string) ([]shared.RepositoryRecord, error) {
	logger := commandDependencies.logger()
	discoverer := dependencies.ResolveRepositoryDiscoverer(commandDependencies.Discoverer, commandDependencies.FileSystem, logger)

	records, discoveryError := discoverer.DiscoverRepositories(roots)
	if discoveryError != nil {
		return nil, discoveryError
	}
	logger.Debug(discoveryCompletedLogMessageConstant, zap.Strings(logFieldRootsConstant, roots), zap.Int(logFieldRepositoryCountConstant, len(records)))
	return records, nil
}

// collectStatuses discovers the repositories under roots and collects their status in discovery order.
func (commandDependencies CommandDependencies) collectStatuses(executionContext context.Context, roots []string, remoteName string, collectOptions status.CollectOptions) ([]status.RepositoryStatus, error) {
	records, discoveryError := commandDependencies.discoverRecords(roots)
	if discoveryError != nil {
		return nil, discoveryError
	}

	logger := commandDependencies.logger()
	gitExecutor, executorError := commandDependencies.gitExecutor()
	if executorError != nil {
		return nil, executorError
	}

	collector, collectorError := status.NewCollector(
		gitExecutor,
		logger,
		status.WithRemoteName(remoteName),
		status.WithConcurrency(commandDependencies.runtimeSettings().Concurrency),
	)
	if collectorError != nil {
		return nil, collectorError
	}

	return collector.CollectAll(executionContext, records, collectOptions), nil
}

// resolveRepositoryRoots prefers positional arguments, then --root values, then configured roots.
func resolveRepositoryRoots(command *cobra.Command, arguments []string, configuredRoots []string) ([]string, error) {
	var flagRoots []string
	if command != nil {
		if rootFlag := command.Flags().Lookup(flagutils.RootFlagName); rootFlag != nil && rootFlag.Changed {
			flagRoots, _ = command.Flags().GetStringSlice(flagutils.RootFlagName)
		}
	}

	for _, candidateRoots := range [][]string{arguments, flagRoots, configuredRoots} {
		if roots := determineRepositoryRoots(candidateRoots); len(roots) > 0 {
			return roots, nil
		}
	}

	if command != nil {
		_ = command.Help()
	}
	return nil, errors.New(missingRepositoryRootsErrorMessageConstant)
}

func determineRepositoryRoots(candidateRoots []string) []string {
	return repositoryRootNormalizer.Normalize(trimRoots(candidateRoots))
}

func trimRoots(raw []string) []string {
	trimmed := make([]string, 0, len(raw))
	for _, argument := range raw {
		candidate := strings.TrimSpace(argument)
		if len(candidate) == 0 {
			continue
		}
		if isBooleanLiteral(candidate) {
			continue
		}
		trimmed = append(trimmed, candidate)
	}
	return trimmed
}

func isBooleanLiteral(value string) bool {
	switch strings.ToLower(value) {
	case "true", "false":
		return true
	default:
		return false
	}
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveString(command *cobra.Command, flagName string, configured string) string {
	value, changed := flagutils.StringFlagValue(command, flagName)
	if !changed {
		return configured
	}
	return strings.TrimSpace(value)
}

func resolveInt(command *cobra.Command, flagName string, configured int) int {
	if command == nil || command.Flags().Lookup(flagName) == nil || !command.Flags().Changed(flagName) {
		return configured
	}
	value, valueError := command.Flags().GetInt(flagName)
	if valueError != nil {
		return configured
	}
	return value
}

func resolveSelectionPolicy(command *cobra.Command, configuredAutomatic bool) shared.SelectionPolicy {
	automatic := configuredAutomatic
	if executionFlags, available := flagutils.ResolveExecutionFlags(command); available && executionFlags.AssumeYesSet {
		automatic = executionFlags.AssumeYes
	}
	return shared.SelectionPolicyFromBool(automatic)
}

func resolveDryRun(command *cobra.Command, configuredDryRun bool) bool {
	if executionFlags, available := flagutils.ResolveExecutionFlags(command); available && executionFlags.DryRunSet {
		return executionFlags.DryRun
	}
	return configuredDryRun
}

func commandContext(command *cobra.Command) context.Context {
	if command == nil || command.Context() == nil {
		return context.Background()
	}
	return command.Context()
}
