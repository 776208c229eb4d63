// Package pathutils normalizes user-supplied filesystem paths.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander replaces a leading "~" with the user's home directory. Forms such as "~alice" are left as is.
type HomeExpander struct {
	lookupHome HomeDirectoryProvider
}

// NewHomeExpander constructs a HomeExpander backed by os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(nil)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom home lookup.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{lookupHome: provider}
}

// Expand returns candidatePath with its home shortcut resolved. The path is returned unchanged when it has no
// shortcut or the home directory cannot be determined.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, homeShortcutConstant) {
		return candidatePath
	}

	remainder := candidatePath[len(homeShortcutConstant):]
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != filepath.Separator {
		return candidatePath
	}

	homeDirectory, lookupError := expander.lookupHome()
	if lookupError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, remainder)
}
