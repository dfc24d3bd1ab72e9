// Package gitrepo reads and rewrites repository remote configuration through the git CLI.
//
// RepositoryManager exposes the remote, status, and connectivity operations used by the
// migration engine and the analyzer; remote URL parsing supports ownership checks in reports.
package gitrepo
