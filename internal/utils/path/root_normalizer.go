package pathutils

import (
	"path/filepath"
	"sort"
	"strings"
)

// RootNormalizer turns user-supplied root directories into a minimal list of absolute paths.
type RootNormalizer struct {
	homeExpander *HomeExpander
}

// NewRootNormalizer constructs a RootNormalizer. A nil expander falls back to the operating system lookup.
func NewRootNormalizer(homeExpander *HomeExpander) *RootNormalizer {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &RootNormalizer{homeExpander: homeExpander}
}

// Normalize trims blanks, expands "~", makes paths absolute and drops roots nested inside another root.
// The relative order of the surviving roots matches the input.
func (normalizer *RootNormalizer) Normalize(candidateRoots []string) []string {
	type rootCandidate struct {
		inputIndex     int
		absolutePath   string
		comparisonPath string
	}

	candidates := make([]rootCandidate, 0, len(candidateRoots))
	for inputIndex, candidateRoot := range candidateRoots {
		trimmedRoot := strings.TrimSpace(candidateRoot)
		if len(trimmedRoot) == 0 {
			continue
		}
		expandedRoot := filepath.Clean(normalizer.homeExpander.Expand(trimmedRoot))
		if absoluteRoot, absoluteError := filepath.Abs(expandedRoot); absoluteError == nil {
			expandedRoot = absoluteRoot
		}
		candidates = append(candidates, rootCandidate{
			inputIndex:     inputIndex,
			absolutePath:   expandedRoot,
			comparisonPath: ComparisonKey(expandedRoot),
		})
	}

	sort.SliceStable(candidates, func(first int, second int) bool {
		return len(candidates[first].comparisonPath) < len(candidates[second].comparisonPath)
	})

	selected := make([]rootCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		covered := false
		for _, existing := range selected {
			if isWithin(existing.comparisonPath, candidate.comparisonPath) {
				covered = true
				break
			}
		}
		if !covered {
			selected = append(selected, candidate)
		}
	}

	sort.SliceStable(selected, func(first int, second int) bool {
		return selected[first].inputIndex < selected[second].inputIndex
	})

	normalizedRoots := make([]string, 0, len(selected))
	for _, candidate := range selected {
		normalizedRoots = append(normalizedRoots, candidate.absolutePath)
	}
	return normalizedRoots
}

func isWithin(parentPath string, candidatePath string) bool {
	if parentPath == candidatePath {
		return true
	}
	relativePath, relativeError := filepath.Rel(parentPath, candidatePath)
	if relativeError != nil {
		return false
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}
