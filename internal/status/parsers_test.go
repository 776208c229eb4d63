package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePorcelainStatus(testInstance *testing.T) {
	testCases := []struct {
		name          string
		output        string
		expectedDirty bool
	}{
		{name: "Empty", output: "", expectedDirty: false},
		{name: "OnlyWhitespace", output: "\n  \n", expectedDirty: false},
		{name: "Modified", output: " M internal/status/types.go\n", expectedDirty: true},
		{name: "Untracked", output: "?? scratch.txt\n", expectedDirty: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expectedDirty, ParsePorcelainStatus(testCase.output))
		})
	}
}

func TestParseBranchList(testInstance *testing.T) {
	require.Equal(testInstance, []string{}, ParseBranchList(""))
	require.Equal(testInstance, []string{"main", "feature/login", "release"}, ParseBranchList("main\n  feature/login\r\n\nrelease\nmain\n"))
}

func TestParseAheadBehind(testInstance *testing.T) {
	testCases := []struct {
		name           string
		output         string
		expectedAhead  int
		expectedBehind int
		expectError    bool
	}{
		{name: "TabSeparated", output: "3\t5\n", expectedAhead: 3, expectedBehind: 5},
		{name: "SpaceSeparated", output: "0 12", expectedAhead: 0, expectedBehind: 12},
		{name: "Empty", output: "", expectedAhead: 0, expectedBehind: 0},
		{name: "SingleField", output: "4", expectError: true},
		{name: "NonNumeric", output: "x\t1", expectError: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			aheadCount, behindCount, parseError := ParseAheadBehind(testCase.output)
			if testCase.expectError {
				require.Error(subTest, parseError)
				return
			}
			require.NoError(subTest, parseError)
			require.Equal(subTest, testCase.expectedAhead, aheadCount)
			require.Equal(subTest, testCase.expectedBehind, behindCount)
		})
	}

	_, _, parseError := ParseAheadBehind("1 2 3")
	require.ErrorIs(testInstance, parseError, ErrUnexpectedAheadBehindOutput)
}

func TestParseUnixTimestamp(testInstance *testing.T) {
	parsedTime, parseError := ParseUnixTimestamp("1700000000\n")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC), parsedTime)

	parsedTime, parseError = ParseUnixTimestamp("  ")
	require.NoError(testInstance, parseError)
	require.True(testInstance, parsedTime.IsZero())

	_, parseError = ParseUnixTimestamp("yesterday")
	require.ErrorContains(testInstance, parseError, "invalid commit timestamp")
}
