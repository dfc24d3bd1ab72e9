package shared

import "errors"

// ErrorKind classifies failures reported in batch summaries and analysis reports.
type ErrorKind string

// Supported error kinds.
const (
	ErrorKindConfiguration       ErrorKind = "configuration_error"
	ErrorKindInvalidConfig       ErrorKind = "invalid_config"
	ErrorKindMissingCredential   ErrorKind = "missing_credential"
	ErrorKindVerificationFailure ErrorKind = "verification_failure"
	ErrorKindBackupFailure       ErrorKind = "backup_failure"
	ErrorKindGitFailure          ErrorKind = "git_failure"
)

// KindedError is implemented by errors that carry an ErrorKind.
type KindedError interface {
	error
	Kind() ErrorKind
}

// KindOf returns the kind of the first KindedError in the chain, falling back to git_failure.
func KindOf(candidate error) ErrorKind {
	if candidate == nil {
		return ""
	}
	var kindedError KindedError
	if errors.As(candidate, &kindedError) {
		return kindedError.Kind()
	}
	return ErrorKindGitFailure
}
