package discovery_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitfleet/internal/repos/discovery"
	"github.com/temirov/gitfleet/internal/repos/filesystem"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	gitMetadataDirectoryName       = ".git"
	gitModulesFileName             = ".gitmodules"
	repositoryDirectoryPermissions = 0o755
	repositoryFilePermissions      = 0o644
)

type failingReadDirFileSystem struct {
	filesystem.OSFileSystem
	failingPath string
}

func (fileSystem failingReadDirFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	if path == fileSystem.failingPath {
		return nil, fs.ErrPermission
	}
	return fileSystem.OSFileSystem.ReadDir(path)
}

func canonicalTempDirectory(testInstance *testing.T) string {
	testInstance.Helper()
	resolvedDirectory, resolveError := filepath.EvalSymlinks(testInstance.TempDir())
	require.NoError(testInstance, resolveError)
	return resolvedDirectory
}

func createRepository(testInstance *testing.T, segments ...string) string {
	testInstance.Helper()
	repositoryPath := filepath.Join(segments...)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryPath, gitMetadataDirectoryName), repositoryDirectoryPermissions))
	return repositoryPath
}

func writeFile(testInstance *testing.T, path string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(path), repositoryDirectoryPermissions))
	require.NoError(testInstance, os.WriteFile(path, []byte(content), repositoryFilePermissions))
}

func recordPaths(records []shared.RepositoryRecord) []string {
	paths := make([]string, 0, len(records))
	for _, record := range records {
		paths = append(paths, record.Path)
	}
	return paths
}

func TestDiscoverRepositoriesReturnsTraversalOrder(testInstance *testing.T) {
	rootDirectory := canonicalTempDirectory(testInstance)
	firstRepository := createRepository(testInstance, rootDirectory, "Dev", "Group1", "Repo1")
	secondRepository := createRepository(testInstance, rootDirectory, "Dev", "Group1", "Repo2")
	thirdRepository := createRepository(testInstance, rootDirectory, "Dev", "Repo3")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(rootDirectory, "Dev", "empty"), repositoryDirectoryPermissions))

	discoverer := discovery.NewFilesystemRepositoryDiscoverer(nil)
	records, discoveryError := discoverer.DiscoverRepositories([]string{rootDirectory})
	require.NoError(testInstance, discoveryError)

	require.Equal(testInstance, []string{firstRepository, secondRepository, thirdRepository}, recordPaths(records))
	for _, record := range records {
		require.False(testInstance, record.IsSubmodule)
		require.Equal(testInstance, filepath.Join(record.Path, gitMetadataDirectoryName), record.MetadataPath)
	}
}

func TestDiscoverRepositoriesDoesNotDescendIntoRepositories(testInstance *testing.T) {
	rootDirectory := canonicalTempDirectory(testInstance)
	outerRepository := createRepository(testInstance, rootDirectory, "outer")
	createRepository(testInstance, outerRepository, "vendor", "inner")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(outerRepository, gitMetadataDirectoryName, "modules", "hidden", gitMetadataDirectoryName), repositoryDirectoryPermissions))

	records, discoveryError := discovery.NewFilesystemRepositoryDiscoverer(nil).DiscoverRepositories([]string{rootDirectory})
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, []string{outerRepository}, recordPaths(records))
}

func TestDiscoverRepositoriesFollowsSubmoduleManifest(testInstance *testing.T) {
	rootDirectory := canonicalTempDirectory(testInstance)
	parentRepository := createRepository(testInstance, rootDirectory, "parent")
	moduleMetadataDirectory := filepath.Join(parentRepository, gitMetadataDirectoryName, "modules", "common")
	require.NoError(testInstance, os.MkdirAll(moduleMetadataDirectory, repositoryDirectoryPermissions))

	submoduleDirectory := filepath.Join(parentRepository, "libs", "common")
	writeFile(testInstance, filepath.Join(submoduleDirectory, gitMetadataDirectoryName), "gitdir: ../../.git/modules/common\n")
	writeFile(testInstance, filepath.Join(parentRepository, gitModulesFileName),
		"[submodule \"common\"]\n\tpath = libs/common\n"+
			"[submodule \"common-alias\"]\n\tpath = libs/../libs/common\n"+
			"[submodule \"uninitialized\"]\n\tpath = libs/missing\n")

	records, discoveryError := discovery.NewFilesystemRepositoryDiscoverer(nil).DiscoverRepositories([]string{rootDirectory})
	require.NoError(testInstance, discoveryError)

	require.Equal(testInstance, []shared.RepositoryRecord{
		{Path: parentRepository, MetadataPath: filepath.Join(parentRepository, gitMetadataDirectoryName)},
		{Path: submoduleDirectory, MetadataPath: moduleMetadataDirectory, IsSubmodule: true},
	}, records)
}

func TestDiscoverRepositoriesDeduplicatesAcrossRootsAndSymlinks(testInstance *testing.T) {
	rootDirectory := canonicalTempDirectory(testInstance)
	repositoryPath := createRepository(testInstance, rootDirectory, "projects", "alpha")
	require.NoError(testInstance, os.Symlink(rootDirectory, filepath.Join(rootDirectory, "projects", "loop")))
	require.NoError(testInstance, os.Symlink(repositoryPath, filepath.Join(rootDirectory, "alias")))

	records, discoveryError := discovery.NewFilesystemRepositoryDiscoverer(nil).DiscoverRepositories([]string{
		rootDirectory,
		filepath.Join(rootDirectory, "projects"),
		repositoryPath,
	})
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, []string{repositoryPath}, recordPaths(records))
}

func TestDiscoverRepositoriesReportsUnreadableDirectoriesAndContinues(testInstance *testing.T) {
	rootDirectory := canonicalTempDirectory(testInstance)
	unreadableDirectory := filepath.Join(rootDirectory, "a-locked")
	require.NoError(testInstance, os.MkdirAll(unreadableDirectory, repositoryDirectoryPermissions))
	readableRepository := createRepository(testInstance, rootDirectory, "b-open")

	brokenPointerRepository := filepath.Join(rootDirectory, "c-broken")
	writeFile(testInstance, filepath.Join(brokenPointerRepository, gitMetadataDirectoryName), "not a pointer\n")

	observerCore, observedLogs := observer.New(zap.WarnLevel)
	reportedErrors := []discovery.DiscoveryError{}
	discoverer := discovery.NewFilesystemRepositoryDiscoverer(
		failingReadDirFileSystem{failingPath: unreadableDirectory},
		discovery.WithLogger(zap.New(observerCore)),
		discovery.WithDiscoveryErrorHandler(func(discoveryError discovery.DiscoveryError) {
			reportedErrors = append(reportedErrors, discoveryError)
		}),
	)

	records, discoveryError := discoverer.DiscoverRepositories([]string{rootDirectory})
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, []string{readableRepository}, recordPaths(records))

	require.Len(testInstance, reportedErrors, 2)
	require.Equal(testInstance, unreadableDirectory, reportedErrors[0].Path)
	require.ErrorIs(testInstance, reportedErrors[0], fs.ErrPermission)
	require.Equal(testInstance, brokenPointerRepository, reportedErrors[1].Path)
	require.ErrorIs(testInstance, reportedErrors[1], discovery.ErrInvalidGitDirPointer)
	require.Equal(testInstance, 2, observedLogs.Len())
}

func TestDiscoverRepositoriesRequiresRoots(testInstance *testing.T) {
	_, discoveryError := discovery.NewFilesystemRepositoryDiscoverer(nil).DiscoverRepositories(nil)
	require.ErrorIs(testInstance, discoveryError, discovery.ErrNoDiscoveryRoots)
}
