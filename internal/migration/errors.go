package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/multipush/internal/shared"
)

const (
	verificationFailureTemplateConstant = "repository %s: remote %s does not match plan: expected fetch %s push [%s], found fetch [%s] push [%s]"
	backupFailureTemplateConstant       = "repository %s: unable to back up git configuration: %v"
	urlListSeparatorConstant            = ", "
)

// ErrGitManagerNotConfigured indicates the engine was constructed without a git manager.
var ErrGitManagerNotConfigured = errors.New("migration: git manager not configured")

// VerificationFailureError reports a remote whose post-apply state differs from the plan.
type VerificationFailureError struct {
	Repository       string
	RemoteName       string
	ExpectedFetchURL string
	ExpectedPushURLs []string
	Actual           shared.RemoteURLs
}

// Error describes the mismatch with credentials masked.
func (verificationError VerificationFailureError) Error() string {
	return fmt.Sprintf(
		verificationFailureTemplateConstant,
		verificationError.Repository,
		verificationError.RemoteName,
		shared.RedactURL(verificationError.ExpectedFetchURL),
		strings.Join(shared.RedactArguments(verificationError.ExpectedPushURLs), urlListSeparatorConstant),
		strings.Join(shared.RedactArguments(verificationError.Actual.FetchURLs), urlListSeparatorConstant),
		strings.Join(shared.RedactArguments(verificationError.Actual.PushURLs), urlListSeparatorConstant),
	)
}

// Kind classifies the error.
func (VerificationFailureError) Kind() shared.ErrorKind {
	return shared.ErrorKindVerificationFailure
}

// BackupError reports a configuration snapshot that could not be written.
type BackupError struct {
	Repository string
	Cause      error
}

// Error describes the backup failure.
func (backupError BackupError) Error() string {
	return fmt.Sprintf(backupFailureTemplateConstant, backupError.Repository, backupError.Cause)
}

// Unwrap exposes the underlying cause.
func (backupError BackupError) Unwrap() error {
	return backupError.Cause
}

// Kind classifies the error.
func (BackupError) Kind() shared.ErrorKind {
	return shared.ErrorKindBackupFailure
}
