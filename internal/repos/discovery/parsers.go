package discovery

import (
	"errors"
	"strings"
)

const (
	gitDirPointerPrefixConstant            = "gitdir:"
	submodulePathKeyConstant               = "path"
	manifestKeyValueSeparatorConstant      = "="
	manifestCommentPrefixHashConstant      = "#"
	manifestCommentPrefixSemicolonConstant = ";"
	manifestQuoteCharactersConstant        = "\""
	invalidGitDirPointerMessageConstant    = "invalid gitdir pointer"
)

// ErrInvalidGitDirPointer indicates a .git file that does not start with a "gitdir: <path>" line.
var ErrInvalidGitDirPointer = errors.New(invalidGitDirPointerMessageConstant)

// ParseGitDirPointer extracts the target of a .git indirection file.
//
// Grammar: the first non-blank line must be "gitdir:" followed by a path; surrounding whitespace is ignored.
func ParseGitDirPointer(content string) (string, error) {
	for _, line := range strings.Split(content, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) == 0 {
			continue
		}
		if !strings.HasPrefix(trimmedLine, gitDirPointerPrefixConstant) {
			return "", ErrInvalidGitDirPointer
		}
		target := strings.TrimSpace(strings.TrimPrefix(trimmedLine, gitDirPointerPrefixConstant))
		if len(target) == 0 {
			return "", ErrInvalidGitDirPointer
		}
		return target, nil
	}
	return "", ErrInvalidGitDirPointer
}

// ParseSubmodulePaths returns the values of every "path = <value>" line of a .gitmodules manifest, in file order.
//
// Section headers, comments and other keys are ignored. Empty input yields an empty slice.
func ParseSubmodulePaths(content string) []string {
	submodulePaths := []string{}
	for _, line := range strings.Split(content, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, manifestCommentPrefixHashConstant) || strings.HasPrefix(trimmedLine, manifestCommentPrefixSemicolonConstant) {
			continue
		}
		key, value, found := strings.Cut(trimmedLine, manifestKeyValueSeparatorConstant)
		if !found || strings.TrimSpace(key) != submodulePathKeyConstant {
			continue
		}
		submodulePath := strings.Trim(strings.TrimSpace(value), manifestQuoteCharactersConstant)
		if len(submodulePath) == 0 {
			continue
		}
		submodulePaths = append(submodulePaths, submodulePath)
	}
	return submodulePaths
}
