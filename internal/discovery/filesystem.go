package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"go.uber.org/zap"
)

const (
	gitMetadataDirectoryNameConstant = ".git"
	missingRootLogMessageConstant    = "skipping missing scan root"
	unreadableEntryLogMessage        = "skipping unreadable path"
	excludedDirectoryLogMessage      = "excluding directory"
	logFieldRootConstant             = "root"
	logFieldPathConstant             = "path"
	logFieldPatternConstant          = "pattern"
	invalidPatternTemplateConstant   = "invalid exclude pattern %q: %w"
)

// ErrLoggerNotConfigured indicates the discoverer was constructed without a logger.
var ErrLoggerNotConfigured = errors.New("discovery: logger not configured")

// FilesystemRepositoryDiscoverer locates git repositories on disk.
type FilesystemRepositoryDiscoverer struct {
	logger          *zap.Logger
	excludePatterns []string
}

// NewFilesystemRepositoryDiscoverer constructs a discoverer that prunes directories matching any exclude pattern.
// Patterns use doublestar syntax and are matched against both the directory name and its root-relative path.
func NewFilesystemRepositoryDiscoverer(logger *zap.Logger, excludePatterns []string) (*FilesystemRepositoryDiscoverer, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	patterns := make([]string, 0, len(excludePatterns))
	for _, pattern := range excludePatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if len(trimmedPattern) == 0 {
			continue
		}
		if _, matchError := doublestar.Match(trimmedPattern, gitMetadataDirectoryNameConstant); matchError != nil {
			return nil, fmt.Errorf(invalidPatternTemplateConstant, trimmedPattern, matchError)
		}
		patterns = append(patterns, trimmedPattern)
	}
	return &FilesystemRepositoryDiscoverer{logger: logger, excludePatterns: patterns}, nil
}

// DiscoverRepositories walks the provided roots and returns sorted, unique directories containing a .git entry.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var repositories []string

	for _, root := range roots {
		cleanRoot := filepath.Clean(root)
		if _, statError := os.Stat(cleanRoot); statError != nil {
			discoverer.logger.Warn(missingRootLogMessageConstant, zap.String(logFieldRootConstant, cleanRoot), zap.Error(statError))
			continue
		}

		walkError := filepath.WalkDir(cleanRoot, func(path string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil {
				discoverer.logger.Debug(unreadableEntryLogMessage, zap.String(logFieldPathConstant, path), zap.Error(walkError))
				return nil
			}

			if directoryEntry.IsDir() && path != cleanRoot && directoryEntry.Name() != gitMetadataDirectoryNameConstant {
				if pattern, excluded := discoverer.excluded(cleanRoot, path, directoryEntry.Name()); excluded {
					discoverer.logger.Debug(excludedDirectoryLogMessage, zap.String(logFieldPathConstant, path), zap.String(logFieldPatternConstant, pattern))
					return fs.SkipDir
				}
			}

			if directoryEntry.Name() != gitMetadataDirectoryNameConstant {
				return nil
			}

			repositoryPath := filepath.Dir(path)
			if _, alreadySeen := seen[repositoryPath]; !alreadySeen {
				seen[repositoryPath] = struct{}{}
				repositories = append(repositories, repositoryPath)
			}

			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if walkError != nil {
			return nil, walkError
		}
	}

	sort.Strings(repositories)
	return repositories, nil
}

func (discoverer *FilesystemRepositoryDiscoverer) excluded(root string, path string, name string) (string, bool) {
	relativePath, relativeError := filepath.Rel(root, path)
	if relativeError != nil {
		relativePath = path
	}
	relativePath = filepath.ToSlash(relativePath)

	for _, pattern := range discoverer.excludePatterns {
		if nameMatch, _ := doublestar.Match(pattern, name); nameMatch {
			return pattern, true
		}
		if pathMatch, _ := doublestar.Match(pattern, relativePath); pathMatch {
			return pattern, true
		}
	}
	return "", false
}
