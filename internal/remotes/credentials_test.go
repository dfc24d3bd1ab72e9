package remotes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/multipush/internal/remotes"
)

func TestEnvironmentCredentialProvider(testInstance *testing.T) {
	registry := newTokenRegistry(testInstance)
	environment := map[string]string{"GITHUB_TOKEN": "gh", "GITLAB_TOKEN": "  "}
	provider := remotes.NewEnvironmentCredentialProvider(registry, func(key string) (string, bool) {
		value, found := environment[key]
		return value, found
	})

	token, found := provider.Credential("github")
	require.True(testInstance, found)
	require.Equal(testInstance, "gh", token)

	_, found = provider.Credential("gitlab")
	require.False(testInstance, found)

	_, found = provider.Credential("keybase")
	require.False(testInstance, found)

	_, found = provider.Credential("launchpad")
	require.False(testInstance, found)
}

func TestEnvironmentCredentialProviderReadsProcessEnvironment(testInstance *testing.T) {
	testInstance.Setenv("CODEBERG_TOKEN", "cb")
	provider := remotes.NewEnvironmentCredentialProvider(newTokenRegistry(testInstance), nil)

	token, found := provider.Credential("codeberg")
	require.True(testInstance, found)
	require.Equal(testInstance, "cb", token)
}
