package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/repos/filesystem"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	gitModulesFileNameConstant         = ".gitmodules"
	noDiscoveryRootsMessageConstant    = "no discovery roots provided"
	discoveryErrorTemplateConstant     = "unable to inspect %s: %v"
	resolvePathErrorTemplateConstant   = "failed to resolve path: %w"
	readPointerErrorTemplateConstant   = "failed to read gitdir pointer: %w"
	parsePointerErrorTemplateConstant  = "failed to parse gitdir pointer: %w"
	pointerTargetErrorTemplateConstant = "gitdir pointer target %s is not accessible: %w"
	readManifestErrorTemplateConstant  = "failed to read submodule manifest: %w"
	readDirectoryErrorTemplateConstant = "failed to list directory: %w"
	discoverySkippedLogMessageConstant = "Skipped directory during repository discovery"
	logFieldPathConstant               = "path"
)

// ErrNoDiscoveryRoots indicates that discovery was requested without any root directory.
var ErrNoDiscoveryRoots = errors.New(noDiscoveryRootsMessageConstant)

// DiscoveryError reports a directory that could not be inspected. Discovery continues past it.
type DiscoveryError struct {
	Path  string
	Cause error
}

// Error describes the skipped directory and cause.
func (discoveryError DiscoveryError) Error() string {
	return fmt.Sprintf(discoveryErrorTemplateConstant, discoveryError.Path, discoveryError.Cause)
}

// Unwrap exposes the underlying cause.
func (discoveryError DiscoveryError) Unwrap() error {
	return discoveryError.Cause
}

// DiscoveryErrorHandler receives every DiscoveryError raised during a pass.
type DiscoveryErrorHandler func(DiscoveryError)

// DiscovererOption customizes a FilesystemRepositoryDiscoverer.
type DiscovererOption func(*FilesystemRepositoryDiscoverer)

// WithLogger attaches a logger that records skipped directories.
func WithLogger(logger *zap.Logger) DiscovererOption {
	return func(discoverer *FilesystemRepositoryDiscoverer) {
		if logger != nil {
			discoverer.logger = logger
		}
	}
}

// WithDiscoveryErrorHandler registers a handler invoked for every skipped directory.
func WithDiscoveryErrorHandler(handler DiscoveryErrorHandler) DiscovererOption {
	return func(discoverer *FilesystemRepositoryDiscoverer) {
		discoverer.errorHandler = handler
	}
}

// FilesystemRepositoryDiscoverer locates git repositories on disk with an explicit depth-first stack.
type FilesystemRepositoryDiscoverer struct {
	fileSystem   shared.FileSystem
	logger       *zap.Logger
	errorHandler DiscoveryErrorHandler
}

type pendingDirectory struct {
	path        string
	isSubmodule bool
}

// NewFilesystemRepositoryDiscoverer constructs a discoverer. A nil file system falls back to the operating system.
func NewFilesystemRepositoryDiscoverer(fileSystem shared.FileSystem, options ...DiscovererOption) *FilesystemRepositoryDiscoverer {
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	discoverer := &FilesystemRepositoryDiscoverer{
		fileSystem: fileSystem,
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(discoverer)
		}
	}
	return discoverer
}

// DiscoverRepositories walks every root and returns one record per repository in traversal order.
//
// A repository root is not descended into; only the submodules named in its .gitmodules manifest are
// visited. Paths are compared by RepositoryIdentity after symlink resolution, so each repository is reported
// once even when reachable through several roots or symlinks.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]shared.RepositoryRecord, error) {
	if len(roots) == 0 {
		return nil, ErrNoDiscoveryRoots
	}

	pendingDirectories := make([]pendingDirectory, 0, len(roots))
	for rootIndex := len(roots) - 1; rootIndex >= 0; rootIndex-- {
		pendingDirectories = append(pendingDirectories, pendingDirectory{path: roots[rootIndex]})
	}

	visitedIdentities := make(map[string]struct{})
	repositories := []shared.RepositoryRecord{}

	for len(pendingDirectories) > 0 {
		current := pendingDirectories[len(pendingDirectories)-1]
		pendingDirectories = pendingDirectories[:len(pendingDirectories)-1]

		canonicalPath, canonicalizationError := discoverer.canonicalize(current.path)
		if canonicalizationError != nil {
			discoverer.report(current.path, canonicalizationError)
			continue
		}

		identity := shared.RepositoryIdentity(canonicalPath)
		if _, alreadyVisited := visitedIdentities[identity]; alreadyVisited {
			continue
		}
		visitedIdentities[identity] = struct{}{}

		metadataPath, isRepository, metadataError := discoverer.resolveMetadataPath(canonicalPath)
		if metadataError != nil {
			discoverer.report(canonicalPath, metadataError)
			continue
		}

		if isRepository {
			repositories = append(repositories, shared.RepositoryRecord{
				Path:         canonicalPath,
				MetadataPath: metadataPath,
				IsSubmodule:  current.isSubmodule,
			})
			submoduleDirectories := discoverer.submoduleDirectories(canonicalPath)
			for submoduleIndex := len(submoduleDirectories) - 1; submoduleIndex >= 0; submoduleIndex-- {
				pendingDirectories = append(pendingDirectories, pendingDirectory{path: submoduleDirectories[submoduleIndex], isSubmodule: true})
			}
			continue
		}

		childDirectories, listingError := discoverer.childDirectories(canonicalPath)
		if listingError != nil {
			discoverer.report(canonicalPath, listingError)
			continue
		}
		for childIndex := len(childDirectories) - 1; childIndex >= 0; childIndex-- {
			pendingDirectories = append(pendingDirectories, pendingDirectory{path: childDirectories[childIndex]})
		}
	}

	return repositories, nil
}

func (discoverer *FilesystemRepositoryDiscoverer) canonicalize(path string) (string, error) {
	absolutePath, absoluteError := discoverer.fileSystem.Abs(path)
	if absoluteError != nil {
		return "", fmt.Errorf(resolvePathErrorTemplateConstant, absoluteError)
	}
	resolvedPath, resolveError := discoverer.fileSystem.EvalSymlinks(absolutePath)
	if resolveError != nil {
		return "", fmt.Errorf(resolvePathErrorTemplateConstant, resolveError)
	}
	return filepath.Clean(resolvedPath), nil
}

// resolveMetadataPath reports whether directoryPath is a repository root and where its metadata lives.
func (discoverer *FilesystemRepositoryDiscoverer) resolveMetadataPath(directoryPath string) (string, bool, error) {
	markerPath := filepath.Join(directoryPath, shared.GitMetadataEntryNameConstant)
	markerInfo, markerError := discoverer.fileSystem.Stat(markerPath)
	if markerError != nil {
		return "", false, nil
	}
	if markerInfo.IsDir() {
		return markerPath, true, nil
	}

	pointerContent, readError := discoverer.fileSystem.ReadFile(markerPath)
	if readError != nil {
		return "", false, fmt.Errorf(readPointerErrorTemplateConstant, readError)
	}
	pointerTarget, parseError := ParseGitDirPointer(string(pointerContent))
	if parseError != nil {
		return "", false, fmt.Errorf(parsePointerErrorTemplateConstant, parseError)
	}
	if !filepath.IsAbs(pointerTarget) {
		pointerTarget = filepath.Join(directoryPath, pointerTarget)
	}
	pointerTarget = filepath.Clean(pointerTarget)
	if _, targetError := discoverer.fileSystem.Stat(pointerTarget); targetError != nil {
		return "", false, fmt.Errorf(pointerTargetErrorTemplateConstant, pointerTarget, targetError)
	}
	return pointerTarget, true, nil
}

func (discoverer *FilesystemRepositoryDiscoverer) submoduleDirectories(repositoryPath string) []string {
	manifestPath := filepath.Join(repositoryPath, gitModulesFileNameConstant)
	manifestContent, readError := discoverer.fileSystem.ReadFile(manifestPath)
	if readError != nil {
		if !errors.Is(readError, fs.ErrNotExist) {
			discoverer.report(repositoryPath, fmt.Errorf(readManifestErrorTemplateConstant, readError))
		}
		return nil
	}

	submoduleDirectories := []string{}
	for _, submodulePath := range ParseSubmodulePaths(string(manifestContent)) {
		submoduleDirectory := filepath.Join(repositoryPath, filepath.FromSlash(submodulePath))
		if _, markerError := discoverer.fileSystem.Lstat(filepath.Join(submoduleDirectory, shared.GitMetadataEntryNameConstant)); markerError != nil {
			continue
		}
		submoduleDirectories = append(submoduleDirectories, submoduleDirectory)
	}
	return submoduleDirectories
}

func (discoverer *FilesystemRepositoryDiscoverer) childDirectories(directoryPath string) ([]string, error) {
	entries, readError := discoverer.fileSystem.ReadDir(directoryPath)
	if readError != nil {
		return nil, fmt.Errorf(readDirectoryErrorTemplateConstant, readError)
	}

	childDirectories := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), shared.GitMetadataEntryNameConstant) {
			continue
		}
		childPath := filepath.Join(directoryPath, entry.Name())
		if entry.IsDir() {
			childDirectories = append(childDirectories, childPath)
			continue
		}
		if entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		if targetInfo, statError := discoverer.fileSystem.Stat(childPath); statError == nil && targetInfo.IsDir() {
			childDirectories = append(childDirectories, childPath)
		}
	}
	return childDirectories, nil
}

func (discoverer *FilesystemRepositoryDiscoverer) report(path string, cause error) {
	discoveryError := DiscoveryError{Path: path, Cause: cause}
	discoverer.logger.Warn(discoverySkippedLogMessageConstant, zap.String(logFieldPathConstant, path), zap.Error(cause))
	if discoverer.errorHandler != nil {
		discoverer.errorHandler(discoveryError)
	}
}
