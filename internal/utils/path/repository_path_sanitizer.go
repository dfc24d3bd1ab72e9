package pathutils

import (
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

const windowsOperatingSystemConstant = "windows"

// RepositoryPathSanitizerConfiguration controls how repository and scan paths are normalized.
type RepositoryPathSanitizerConfiguration struct {
	// CanonicalizePaths converts every path to a cleaned absolute path.
	CanonicalizePaths bool
	// PruneNestedPaths drops paths that live underneath another selected path.
	PruneNestedPaths bool
}

// RepositoryPathSanitizer normalizes repository arguments and discovery roots.
type RepositoryPathSanitizer struct {
	expander      *HomeExpander
	configuration RepositoryPathSanitizerConfiguration
}

// NewRepositoryPathSanitizer constructs a sanitizer that only trims, expands, and deduplicates.
func NewRepositoryPathSanitizer() *RepositoryPathSanitizer {
	return NewRepositoryPathSanitizerWithConfiguration(nil, RepositoryPathSanitizerConfiguration{})
}

// NewRepositoryPathSanitizerWithConfiguration constructs a sanitizer; a nil expander uses the process environment.
func NewRepositoryPathSanitizerWithConfiguration(expander *HomeExpander, configuration RepositoryPathSanitizerConfiguration) *RepositoryPathSanitizer {
	if expander == nil {
		expander = NewHomeExpander()
	}
	return &RepositoryPathSanitizer{expander: expander, configuration: configuration}
}

// Sanitize returns the distinct non-empty paths in input order, or nil when none remain.
func (sanitizer *RepositoryPathSanitizer) Sanitize(candidatePaths []string) []string {
	if sanitizer == nil {
		sanitizer = NewRepositoryPathSanitizer()
	}

	sanitized := make([]string, 0, len(candidatePaths))
	seen := make(map[string]struct{}, len(candidatePaths))
	for _, candidate := range candidatePaths {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		resolved := sanitizer.expander.Expand(trimmed)
		if sanitizer.configuration.CanonicalizePaths {
			resolved = canonicalizePath(resolved)
		}
		key := comparisonKey(resolved)
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}
		sanitized = append(sanitized, resolved)
	}

	if len(sanitized) == 0 {
		return nil
	}
	if sanitizer.configuration.PruneNestedPaths {
		return pruneNestedPaths(sanitized)
	}
	return sanitized
}

// pruneNestedPaths keeps outermost roots so a tree is never walked twice; input order is preserved.
func pruneNestedPaths(paths []string) []string {
	byDepth := make([]int, len(paths))
	for index := range paths {
		byDepth[index] = index
	}
	keys := make([]string, len(paths))
	for index, path := range paths {
		keys[index] = comparisonKey(canonicalizePath(path))
	}
	sort.SliceStable(byDepth, func(first int, second int) bool {
		return len(keys[byDepth[first]]) < len(keys[byDepth[second]])
	})

	kept := make([]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, index := range byDepth {
		nested := false
		for _, root := range roots {
			if containsPath(root, keys[index]) {
				nested = true
				break
			}
		}
		if nested {
			continue
		}
		kept[index] = true
		roots = append(roots, keys[index])
	}

	pruned := make([]string, 0, len(roots))
	for index, path := range paths {
		if kept[index] {
			pruned = append(pruned, path)
		}
	}
	return pruned
}

func containsPath(root string, candidate string) bool {
	relative, relativeError := filepath.Rel(root, candidate)
	if relativeError != nil {
		return false
	}
	return relative == "." || (relative != ".." && !strings.HasPrefix(relative, ".."+string(filepath.Separator)))
}

func canonicalizePath(path string) string {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return filepath.Clean(path)
	}
	return absolutePath
}

func comparisonKey(path string) string {
	cleaned := filepath.Clean(path)
	if runtime.GOOS == windowsOperatingSystemConstant {
		return strings.ToLower(cleaned)
	}
	return cleaned
}
