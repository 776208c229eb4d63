package status

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	outputLineSeparatorConstant             = "\n"
	aheadBehindFieldCountConstant           = 2
	invalidTimestampTemplateConstant        = "invalid commit timestamp %q: %w"
	invalidAheadBehindCountTemplateConstant = "invalid commit count %q: %w"
)

// ErrUnexpectedAheadBehindOutput indicates rev-list output that is not two counts.
var ErrUnexpectedAheadBehindOutput = errors.New("unexpected ahead/behind output")

// ParsePorcelainStatus reports whether "git status --porcelain" output lists any change, untracked files included.
// Blank output means a clean working tree.
func ParsePorcelainStatus(output string) bool {
	for _, line := range strings.Split(output, outputLineSeparatorConstant) {
		if len(strings.TrimSpace(line)) > 0 {
			return true
		}
	}
	return false
}

// ParseBranchList reads one branch name per line, as printed by
// "git for-each-ref --format=%(refname:lstrip=2) refs/heads". Blank lines are skipped and repeated names are
// reported once. Blank output yields an empty slice.
func ParseBranchList(output string) []string {
	branchNames := []string{}
	seenBranches := map[string]struct{}{}
	for _, line := range strings.Split(output, outputLineSeparatorConstant) {
		branchName := strings.TrimSpace(line)
		if len(branchName) == 0 {
			continue
		}
		if _, alreadySeen := seenBranches[branchName]; alreadySeen {
			continue
		}
		seenBranches[branchName] = struct{}{}
		branchNames = append(branchNames, branchName)
	}
	return branchNames
}

// ParseAheadBehind reads "git rev-list --left-right --count <local>...<upstream>" output, two whitespace
// separated integers: commits only on the local side, then commits only on the upstream side.
// Blank output is treated as 0/0.
func ParseAheadBehind(output string) (int, int, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return 0, 0, nil
	}
	if len(fields) != aheadBehindFieldCountConstant {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnexpectedAheadBehindOutput, output)
	}

	aheadCount, aheadError := strconv.Atoi(fields[0])
	if aheadError != nil {
		return 0, 0, fmt.Errorf(invalidAheadBehindCountTemplateConstant, fields[0], aheadError)
	}
	behindCount, behindError := strconv.Atoi(fields[1])
	if behindError != nil {
		return 0, 0, fmt.Errorf(invalidAheadBehindCountTemplateConstant, fields[1], behindError)
	}
	return aheadCount, behindCount, nil
}

// ParseUnixTimestamp reads the seconds-since-epoch value printed by "git log -1 --format=%ct".
// Blank output yields the zero time.
func ParseUnixTimestamp(output string) (time.Time, error) {
	trimmedOutput := strings.TrimSpace(output)
	if len(trimmedOutput) == 0 {
		return time.Time{}, nil
	}
	seconds, parseError := strconv.ParseInt(trimmedOutput, 10, 64)
	if parseError != nil {
		return time.Time{}, fmt.Errorf(invalidTimestampTemplateConstant, trimmedOutput, parseError)
	}
	return time.Unix(seconds, 0).UTC(), nil
}
