package shared

import (
	"path/filepath"
	"sort"
)

// RemoteURLs holds the URLs configured for a single git remote.
type RemoteURLs struct {
	FetchURLs []string `json:"fetch_urls"`
	PushURLs  []string `json:"push_urls,omitempty"`
}

// EffectivePushURLs returns the explicit push URLs, or the fetch URLs when none are configured, matching git's push behavior.
func (remote RemoteURLs) EffectivePushURLs() []string {
	if len(remote.PushURLs) > 0 {
		return append([]string{}, remote.PushURLs...)
	}
	return append([]string{}, remote.FetchURLs...)
}

// AllURLs returns fetch URLs followed by push URLs.
func (remote RemoteURLs) AllURLs() []string {
	urls := make([]string, 0, len(remote.FetchURLs)+len(remote.PushURLs))
	urls = append(urls, remote.FetchURLs...)
	return append(urls, remote.PushURLs...)
}

// RepositoryIdentity describes a local repository and its current remotes.
type RepositoryIdentity struct {
	Path    string                `json:"path"`
	Name    string                `json:"name"`
	Remotes map[string]RemoteURLs `json:"remotes"`
}

// NewRepositoryIdentity derives the repository name from the directory basename.
func NewRepositoryIdentity(repositoryPath string, remotes map[string]RemoteURLs) RepositoryIdentity {
	cleanPath := filepath.Clean(repositoryPath)
	if remotes == nil {
		remotes = map[string]RemoteURLs{}
	}
	return RepositoryIdentity{Path: cleanPath, Name: filepath.Base(cleanPath), Remotes: remotes}
}

// RemoteNames returns the remote names in sorted order.
func (identity RepositoryIdentity) RemoteNames() []string {
	names := make([]string, 0, len(identity.Remotes))
	for name := range identity.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
