package repos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	flagutils "github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	testBooleanLiteralTrueConstant          = "true"
	testBooleanLiteralFalseConstant         = "FALSE"
	testRepositoryRelativePathConstant      = "projects/example"
	testDetermineRootsArgumentsCaseConstant = "arguments_preferred"
	testDetermineRootsConfigurationCase     = "configuration_used_when_arguments_filtered"
)

func TestDetermineRepositoryRootsSanitizesInputs(testInstance *testing.T) {
	homeDirectory, homeDirectoryError := os.UserHomeDir()
	require.NoError(testInstance, homeDirectoryError)

	tildeArgument := filepath.Join("~", testRepositoryRelativePathConstant)
	expectedExpanded := filepath.Join(homeDirectory, testRepositoryRelativePathConstant)

	testCases := []struct {
		name             string
		candidates       []string
		expectedResolved []string
	}{
		{
			name:             testDetermineRootsArgumentsCaseConstant,
			candidates:       []string{"  " + tildeArgument + "\t"},
			expectedResolved: []string{expectedExpanded},
		},
		{
			name:             testDetermineRootsConfigurationCase,
			candidates:       []string{"", testBooleanLiteralTrueConstant, testBooleanLiteralFalseConstant},
			expectedResolved: []string{},
		},
		{
			name:             "nested_roots_collapsed",
			candidates:       []string{"/srv/fleet/alpha", "/srv/fleet"},
			expectedResolved: []string{"/srv/fleet"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			resolved := determineRepositoryRoots(testCase.candidates)
			require.Equal(subTest, testCase.expectedResolved, resolved)
		})
	}
}

func TestResolveRepositoryRootsPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		flagArguments []string
		configured    []string
		expected      []string
	}{
		{
			name:          "positional_arguments_win",
			arguments:     []string{"/srv/arguments"},
			flagArguments: []string{"--" + flagutils.RootFlagName, "/srv/flag"},
			configured:    []string{"/srv/configured"},
			expected:      []string{"/srv/arguments"},
		},
		{
			name:          "flag_beats_configuration",
			flagArguments: []string{"--" + flagutils.RootFlagName, "/srv/flag"},
			configured:    []string{"/srv/configured"},
			expected:      []string{"/srv/flag"},
		},
		{
			name:       "configuration_fallback",
			configured: []string{"/srv/configured"},
			expected:   []string{"/srv/configured"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			command := &cobra.Command{}
			flagutils.BindRootFlags(command, flagutils.RootFlagValues{})
			require.NoError(subTest, command.ParseFlags(testCase.flagArguments))

			roots, rootsError := resolveRepositoryRoots(command, testCase.arguments, testCase.configured)
			require.NoError(subTest, rootsError)
			require.Equal(subTest, testCase.expected, roots)
		})
	}
}

func TestResolveRepositoryRootsRequiresRoots(testInstance *testing.T) {
	_, rootsError := resolveRepositoryRoots(nil, nil, nil)
	require.EqualError(testInstance, rootsError, missingRepositoryRootsErrorMessageConstant)
}

func TestDefaultConfigurationValuesCoverEverySection(testInstance *testing.T) {
	defaults := DefaultConfigurationValues("tools")

	require.Equal(testInstance, []string{defaultRepositoryRootConstant}, defaults["tools.status.roots"])
	require.Equal(testInstance, true, defaults["tools.sync.fetch"])
	require.Equal(testInstance, []string{"main", "master"}, defaults["tools.prune.protected_branches"])
	require.Equal(testInstance, defaultInventoryFileConstant, defaults["tools.backup.output"])
	require.Equal(testInstance, defaultInventoryFileConstant, defaults["tools.restore.input"])
}

func TestConfigurationSanitizeAppliesDefaults(testInstance *testing.T) {
	status := StatusConfiguration{RepositoryRoots: []string{" ", "true"}, RemoteName: "  ", Output: ""}.sanitize()
	require.Equal(testInstance, []string{defaultRepositoryRootConstant}, status.RepositoryRoots)
	require.Equal(testInstance, "origin", status.RemoteName)
	require.Equal(testInstance, reportFormatTableConstant, status.Output)

	pruneConfiguration := PruneConfiguration{OlderThanDays: -3, ProtectedBranches: []string{" release ", ""}}.sanitize()
	require.Zero(testInstance, pruneConfiguration.OlderThanDays)
	require.Equal(testInstance, []string{"release"}, pruneConfiguration.ProtectedBranches)
}
