package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/juju/clock"
	"github.com/otiai10/copy"
)

const (
	gitConfigFileNameConstant       = "config"
	backupFileNameTemplateConstant  = "config.backup.%s"
	backupCollisionSuffixTemplate   = "%s_%d"
	backupTimestampLayoutConstant   = "20060102_150405"
	maximumBackupCollisionsConstant = 1000
	backupExhaustedTemplateConstant = "no free backup name for %s"
	backupSourceMissingTemplate     = "git configuration %s: %w"
)

// ConfigurationBackupper snapshots a repository's git configuration file beside the original.
type ConfigurationBackupper struct {
	clock clock.Clock
}

// NewConfigurationBackupper constructs a backupper; a nil clock uses the wall clock.
func NewConfigurationBackupper(backupClock clock.Clock) *ConfigurationBackupper {
	if backupClock == nil {
		backupClock = clock.WallClock
	}
	return &ConfigurationBackupper{clock: backupClock}
}

// Backup copies <gitDirectory>/config to config.backup.<YYYYMMDD_HHMMSS>, appending _N when the name is taken.
// Backups are never removed.
func (backupper *ConfigurationBackupper) Backup(gitDirectory string) (string, error) {
	sourcePath := filepath.Join(gitDirectory, gitConfigFileNameConstant)
	if _, statError := os.Stat(sourcePath); statError != nil {
		return "", fmt.Errorf(backupSourceMissingTemplate, sourcePath, statError)
	}

	baseName := fmt.Sprintf(backupFileNameTemplateConstant, backupper.clock.Now().Format(backupTimestampLayoutConstant))
	for collision := 0; collision < maximumBackupCollisionsConstant; collision++ {
		candidateName := baseName
		if collision > 0 {
			candidateName = fmt.Sprintf(backupCollisionSuffixTemplate, baseName, collision)
		}
		destinationPath := filepath.Join(gitDirectory, candidateName)

		_, statError := os.Lstat(destinationPath)
		if statError == nil {
			continue
		}
		if !errors.Is(statError, fs.ErrNotExist) {
			return "", statError
		}

		if copyError := copy.Copy(sourcePath, destinationPath, copy.Options{Sync: true}); copyError != nil {
			return "", copyError
		}
		return destinationPath, nil
	}
	return "", fmt.Errorf(backupExhaustedTemplateConstant, baseName)
}
