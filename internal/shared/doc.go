// Package shared holds the small vocabulary used across multipush packages:
// error kinds, the default remote name, and credential redaction for URLs that
// may carry tokens.
package shared
