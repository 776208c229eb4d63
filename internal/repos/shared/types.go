package shared

import (
	"context"
	"io/fs"
	"time"

	"github.com/temirov/gitfleet/internal/execshell"
	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const (
	// OriginRemoteNameConstant identifies the default remote used for fetch and push.
	OriginRemoteNameConstant = "origin"
	// GitMetadataEntryNameConstant names the marker entry found at every repository root.
	GitMetadataEntryNameConstant = ".git"
	// GitDirectoryEnvironmentVariableConstant scopes git invocations to a resolved metadata directory.
	GitDirectoryEnvironmentVariableConstant = "GIT_DIR"
	// GitWorkTreeEnvironmentVariableConstant scopes git invocations to a repository working tree.
	GitWorkTreeEnvironmentVariableConstant = "GIT_WORK_TREE"
	// GitTerminalPromptEnvironmentVariableConstant disables interactive credential prompts.
	GitTerminalPromptEnvironmentVariableConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant       = "0"
)

// RepositoryRecord describes one repository found on disk.
type RepositoryRecord struct {
	// Path is the absolute canonical working tree path.
	Path string `json:"path" yaml:"path"`
	// MetadataPath is the real git metadata directory, resolved through gitdir pointers when present.
	MetadataPath string `json:"metadata_path" yaml:"metadata_path"`
	// IsSubmodule reports whether the repository was reached through a parent .gitmodules manifest.
	IsSubmodule bool `json:"is_submodule" yaml:"is_submodule"`
	// RemoteURL holds the URL of the default remote when known.
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
}

// Identity returns the comparison key of the record.
func (record RepositoryRecord) Identity() string {
	return RepositoryIdentity(record.Path)
}

// GitEnvironment returns the environment that pins git to the record's metadata directory and working tree.
func (record RepositoryRecord) GitEnvironment() map[string]string {
	environment := map[string]string{
		GitTerminalPromptEnvironmentVariableConstant: gitTerminalPromptDisabledValueConstant,
	}
	if len(record.MetadataPath) > 0 {
		environment[GitDirectoryEnvironmentVariableConstant] = record.MetadataPath
		environment[GitWorkTreeEnvironmentVariableConstant] = record.Path
	}
	return environment
}

// GitCommandDetails builds the invocation details for running git against the record.
func (record RepositoryRecord) GitCommandDetails(arguments ...string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     record.Path,
		EnvironmentVariables: record.GitEnvironment(),
	}
}

// RepositoryIdentity converts a path into the key used to detect the same repository twice.
func RepositoryIdentity(path string) string {
	return pathutils.ComparisonKey(path)
}

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem exposes the filesystem operations used by discovery and inventory.
type FileSystem interface {
	ReadDir(path string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	EvalSymlinks(path string) (string, error)
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	WriteFile(path string, data []byte, permissions fs.FileMode) error
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Presenter is the presentation boundary used by bulk operations.
type Presenter interface {
	// NotifyProgress reports which item is being processed. It has no effect on control flow.
	NotifyProgress(message string)
	// SelectSubset asks the user to pick options and returns the chosen indices.
	SelectSubset(title string, options []string) ([]int, error)
}

// RepositoryDiscoverer locates git repositories for bulk operations.
type RepositoryDiscoverer interface {
	DiscoverRepositories(roots []string) ([]RepositoryRecord, error)
}

// SilentPresenter ignores progress and selects nothing.
type SilentPresenter struct{}

// NotifyProgress discards the message.
func (SilentPresenter) NotifyProgress(string) {}

// SelectSubset selects no options.
func (SilentPresenter) SelectSubset(string, []string) ([]int, error) {
	return nil, nil
}
