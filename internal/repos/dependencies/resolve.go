// Package dependencies builds the default collaborators used by gitfleet commands when none are injected.
package dependencies

import (
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/repos/discovery"
	"github.com/temirov/gitfleet/internal/repos/filesystem"
	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/ui"
)

// GitExecutorSettings tune the default shell-backed git executor.
type GitExecutorSettings struct {
	CommandTimeout time.Duration
	ConsoleLogger  *zap.Logger
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveRepositoryDiscoverer returns the provided discoverer or a filesystem-backed default that logs skipped directories.
func ResolveRepositoryDiscoverer(existing shared.RepositoryDiscoverer, fileSystem shared.FileSystem, logger *zap.Logger) shared.RepositoryDiscoverer {
	if existing != nil {
		return existing
	}
	return discovery.NewFilesystemRepositoryDiscoverer(ResolveFileSystem(fileSystem), discovery.WithLogger(logger))
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, settings GitExecutorSettings) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	executorOptions := []execshell.ShellExecutorOption{execshell.WithCommandTimeout(settings.CommandTimeout)}
	if settings.ConsoleLogger != nil {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(settings.ConsoleLogger)))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}
