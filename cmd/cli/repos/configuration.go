package repos

import (
	"strings"

	"github.com/temirov/gitfleet/internal/prune"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	defaultRepositoryRootConstant       = "."
	statusConfigurationKeyConstant      = "status"
	syncConfigurationKeyConstant        = "sync"
	pruneConfigurationKeyConstant       = "prune"
	backupConfigurationKeyConstant      = "backup"
	restoreConfigurationKeyConstant     = "restore"
	configurationRootsKeyConstant       = "roots"
	configurationRemoteKeyConstant      = "remote"
	configurationReferenceKeyConstant   = "reference_branch"
	configurationFetchKeyConstant       = "fetch"
	configurationOutputKeyConstant      = "output"
	configurationStashKeyConstant       = "stash"
	configurationPushKeyConstant        = "push"
	configurationUncommittedKeyConstant = "include_uncommitted"
	configurationAutomaticKeyConstant   = "automatic"
	configurationDryRunKeyConstant      = "dry_run"
	configurationMergedKeyConstant      = "merged"
	configurationGoneKeyConstant        = "gone"
	configurationOlderThanKeyConstant   = "older_than_days"
	configurationForceKeyConstant       = "force"
	configurationProtectedKeyConstant   = "protected_branches"
	configurationInputKeyConstant       = "input"
	configurationTargetKeyConstant      = "target"
	defaultReportFormatConstant         = reportFormatTableConstant
	defaultInventoryFileConstant        = "repositories.json"
	keySeparatorConstant                = "."
)

// ToolsConfiguration captures the configuration sections of the fleet commands.
type ToolsConfiguration struct {
	Status  StatusConfiguration  `mapstructure:"status"`
	Sync    SyncConfiguration    `mapstructure:"sync"`
	Prune   PruneConfiguration   `mapstructure:"prune"`
	Backup  BackupConfiguration  `mapstructure:"backup"`
	Restore RestoreConfiguration `mapstructure:"restore"`
}

// StatusConfiguration describes configuration values for status.
type StatusConfiguration struct {
	RepositoryRoots []string `mapstructure:"roots"`
	RemoteName      string   `mapstructure:"remote"`
	ReferenceBranch string   `mapstructure:"reference_branch"`
	Fetch           bool     `mapstructure:"fetch"`
	Output          string   `mapstructure:"output"`
}

// SyncConfiguration describes configuration values for sync.
type SyncConfiguration struct {
	RepositoryRoots    []string `mapstructure:"roots"`
	RemoteName         string   `mapstructure:"remote"`
	Fetch              bool     `mapstructure:"fetch"`
	Stash              bool     `mapstructure:"stash"`
	Push               bool     `mapstructure:"push"`
	IncludeUncommitted bool     `mapstructure:"include_uncommitted"`
	Automatic          bool     `mapstructure:"automatic"`
	DryRun             bool     `mapstructure:"dry_run"`
}

// PruneConfiguration describes configuration values for prune.
type PruneConfiguration struct {
	RepositoryRoots   []string `mapstructure:"roots"`
	Merged            bool     `mapstructure:"merged"`
	Gone              bool     `mapstructure:"gone"`
	OlderThanDays     int      `mapstructure:"older_than_days"`
	Force             bool     `mapstructure:"force"`
	ProtectedBranches []string `mapstructure:"protected_branches"`
	Automatic         bool     `mapstructure:"automatic"`
	DryRun            bool     `mapstructure:"dry_run"`
}

// BackupConfiguration describes configuration values for backup.
type BackupConfiguration struct {
	RepositoryRoots []string `mapstructure:"roots"`
	RemoteName      string   `mapstructure:"remote"`
	Output          string   `mapstructure:"output"`
}

// RestoreConfiguration describes configuration values for restore.
type RestoreConfiguration struct {
	Input  string `mapstructure:"input"`
	Target string `mapstructure:"target"`
	DryRun bool   `mapstructure:"dry_run"`
}

// DefaultToolsConfiguration returns baseline configuration values for the fleet commands.
func DefaultToolsConfiguration() ToolsConfiguration {
	return ToolsConfiguration{
		Status: StatusConfiguration{
			RepositoryRoots: []string{defaultRepositoryRootConstant},
			RemoteName:      shared.OriginRemoteNameConstant,
			Output:          defaultReportFormatConstant,
		},
		Sync: SyncConfiguration{
			RepositoryRoots: []string{defaultRepositoryRootConstant},
			RemoteName:      shared.OriginRemoteNameConstant,
			Fetch:           true,
		},
		Prune: PruneConfiguration{
			RepositoryRoots:   []string{defaultRepositoryRootConstant},
			ProtectedBranches: append([]string{}, prune.DefaultProtectedBranches...),
		},
		Backup: BackupConfiguration{
			RepositoryRoots: []string{defaultRepositoryRootConstant},
			RemoteName:      shared.OriginRemoteNameConstant,
			Output:          defaultInventoryFileConstant,
		},
		Restore: RestoreConfiguration{
			Input:  defaultInventoryFileConstant,
			Target: defaultRepositoryRootConstant,
		},
	}
}

// DefaultConfigurationValues produces Viper defaults for the fleet commands under rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultToolsConfiguration()
	key := func(section string, name string) string {
		return strings.Join([]string{rootKey, section, name}, keySeparatorConstant)
	}
	return map[string]any{
		key(statusConfigurationKeyConstant, configurationRootsKeyConstant):     defaults.Status.RepositoryRoots,
		key(statusConfigurationKeyConstant, configurationRemoteKeyConstant):    defaults.Status.RemoteName,
		key(statusConfigurationKeyConstant, configurationReferenceKeyConstant): defaults.Status.ReferenceBranch,
		key(statusConfigurationKeyConstant, configurationFetchKeyConstant):     defaults.Status.Fetch,
		key(statusConfigurationKeyConstant, configurationOutputKeyConstant):    defaults.Status.Output,
		key(syncConfigurationKeyConstant, configurationRootsKeyConstant):       defaults.Sync.RepositoryRoots,
		key(syncConfigurationKeyConstant, configurationRemoteKeyConstant):      defaults.Sync.RemoteName,
		key(syncConfigurationKeyConstant, configurationFetchKeyConstant):       defaults.Sync.Fetch,
		key(syncConfigurationKeyConstant, configurationStashKeyConstant):       defaults.Sync.Stash,
		key(syncConfigurationKeyConstant, configurationPushKeyConstant):        defaults.Sync.Push,
		key(syncConfigurationKeyConstant, configurationUncommittedKeyConstant): defaults.Sync.IncludeUncommitted,
		key(syncConfigurationKeyConstant, configurationAutomaticKeyConstant):   defaults.Sync.Automatic,
		key(syncConfigurationKeyConstant, configurationDryRunKeyConstant):      defaults.Sync.DryRun,
		key(pruneConfigurationKeyConstant, configurationRootsKeyConstant):      defaults.Prune.RepositoryRoots,
		key(pruneConfigurationKeyConstant, configurationMergedKeyConstant):     defaults.Prune.Merged,
		key(pruneConfigurationKeyConstant, configurationGoneKeyConstant):       defaults.Prune.Gone,
		key(pruneConfigurationKeyConstant, configurationOlderThanKeyConstant):  defaults.Prune.OlderThanDays,
		key(pruneConfigurationKeyConstant, configurationForceKeyConstant):      defaults.Prune.Force,
		key(pruneConfigurationKeyConstant, configurationProtectedKeyConstant):  defaults.Prune.ProtectedBranches,
		key(pruneConfigurationKeyConstant, configurationAutomaticKeyConstant):  defaults.Prune.Automatic,
		key(pruneConfigurationKeyConstant, configurationDryRunKeyConstant):     defaults.Prune.DryRun,
		key(backupConfigurationKeyConstant, configurationRootsKeyConstant):     defaults.Backup.RepositoryRoots,
		key(backupConfigurationKeyConstant, configurationRemoteKeyConstant):    defaults.Backup.RemoteName,
		key(backupConfigurationKeyConstant, configurationOutputKeyConstant):    defaults.Backup.Output,
		key(restoreConfigurationKeyConstant, configurationInputKeyConstant):    defaults.Restore.Input,
		key(restoreConfigurationKeyConstant, configurationTargetKeyConstant):   defaults.Restore.Target,
		key(restoreConfigurationKeyConstant, configurationDryRunKeyConstant):   defaults.Restore.DryRun,
	}
}

func (configuration StatusConfiguration) sanitize() StatusConfiguration {
	sanitized := configuration
	sanitized.RepositoryRoots = sanitizeRoots(configuration.RepositoryRoots)
	sanitized.RemoteName = valueOrDefault(configuration.RemoteName, shared.OriginRemoteNameConstant)
	sanitized.ReferenceBranch = strings.TrimSpace(configuration.ReferenceBranch)
	sanitized.Output = valueOrDefault(configuration.Output, defaultReportFormatConstant)
	return sanitized
}

func (configuration SyncConfiguration) sanitize() SyncConfiguration {
	sanitized := configuration
	sanitized.RepositoryRoots = sanitizeRoots(configuration.RepositoryRoots)
	sanitized.RemoteName = valueOrDefault(configuration.RemoteName, shared.OriginRemoteNameConstant)
	return sanitized
}

func (configuration PruneConfiguration) sanitize() PruneConfiguration {
	sanitized := configuration
	sanitized.RepositoryRoots = sanitizeRoots(configuration.RepositoryRoots)
	if sanitized.OlderThanDays < 0 {
		sanitized.OlderThanDays = 0
	}
	protectedBranches := make([]string, 0, len(configuration.ProtectedBranches))
	for _, branchName := range configuration.ProtectedBranches {
		if trimmed := strings.TrimSpace(branchName); len(trimmed) > 0 {
			protectedBranches = append(protectedBranches, trimmed)
		}
	}
	sanitized.ProtectedBranches = protectedBranches
	return sanitized
}

func (configuration BackupConfiguration) sanitize() BackupConfiguration {
	sanitized := configuration
	sanitized.RepositoryRoots = sanitizeRoots(configuration.RepositoryRoots)
	sanitized.RemoteName = valueOrDefault(configuration.RemoteName, shared.OriginRemoteNameConstant)
	sanitized.Output = valueOrDefault(configuration.Output, defaultInventoryFileConstant)
	return sanitized
}

func (configuration RestoreConfiguration) sanitize() RestoreConfiguration {
	sanitized := configuration
	sanitized.Input = valueOrDefault(configuration.Input, defaultInventoryFileConstant)
	sanitized.Target = valueOrDefault(configuration.Target, defaultRepositoryRootConstant)
	return sanitized
}

func sanitizeRoots(configuredRoots []string) []string {
	roots := trimRoots(configuredRoots)
	if len(roots) == 0 {
		return []string{defaultRepositoryRootConstant}
	}
	return roots
}

func valueOrDefault(value string, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return defaultValue
	}
	return trimmed
}
