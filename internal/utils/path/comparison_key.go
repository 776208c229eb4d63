package pathutils

import (
	"path/filepath"
	"runtime"
	"strings"
)

const (
	windowsOperatingSystemConstant = "windows"
	darwinOperatingSystemConstant  = "darwin"
)

// ComparisonKey returns the form of a path used to detect duplicates. Letter case is folded only on
// platforms whose default filesystems ignore it, so distinct Linux directories never collapse.
func ComparisonKey(path string) string {
	return comparisonKeyForOperatingSystem(path, runtime.GOOS)
}

// FoldsCase reports whether ComparisonKey ignores letter case on the running platform.
func FoldsCase() bool {
	return foldsCaseOn(runtime.GOOS)
}

func comparisonKeyForOperatingSystem(path string, operatingSystem string) string {
	cleanedPath := filepath.Clean(path)
	if foldsCaseOn(operatingSystem) {
		return strings.ToLower(cleanedPath)
	}
	return cleanedPath
}

func foldsCaseOn(operatingSystem string) bool {
	switch operatingSystem {
	case windowsOperatingSystemConstant, darwinOperatingSystemConstant:
		return true
	default:
		return false
	}
}
