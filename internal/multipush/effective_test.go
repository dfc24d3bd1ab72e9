package multipush_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/shared"
)

type stubServiceLookup map[string]struct{}

func (lookup stubServiceLookup) Contains(identifier string) bool {
	_, found := lookup[identifier]
	return found
}

func newStubServiceLookup(identifiers ...string) stubServiceLookup {
	lookup := stubServiceLookup{}
	for _, identifier := range identifiers {
		lookup[identifier] = struct{}{}
	}
	return lookup
}

func TestResolveEffectiveConfigOverridePrecedence(testInstance *testing.T) {
	registry := newStubServiceLookup("github", "gitlab", "codeberg")
	global := multipush.GlobalConfiguration{PrimaryService: "gitlab", PushServices: []string{"gitlab", "github"}}
	overrides := map[string]multipush.Override{
		"x":       {PushServices: []string{"codeberg"}, PrimaryService: "codeberg"},
		"partial": {PrimaryService: "github"},
		"listed":  {PushServices: []string{"github", "gitlab", "codeberg"}},
	}

	testCases := []struct {
		name               string
		repositoryName     string
		expectedPrimary    string
		expectedPush       []string
		expectedOverridden bool
	}{
		{
			name:               "override_replaces_push_list",
			repositoryName:     "X",
			expectedPrimary:    "codeberg",
			expectedPush:       []string{"codeberg"},
			expectedOverridden: true,
		},
		{
			name:            "other_repository_keeps_global",
			repositoryName:  "demo",
			expectedPrimary: "gitlab",
			expectedPush:    []string{"gitlab", "github"},
		},
		{
			name:               "primary_only_override",
			repositoryName:     "partial",
			expectedPrimary:    "github",
			expectedPush:       []string{"gitlab", "github"},
			expectedOverridden: true,
		},
		{
			name:               "push_only_override",
			repositoryName:     "listed",
			expectedPrimary:    "gitlab",
			expectedPush:       []string{"github", "gitlab", "codeberg"},
			expectedOverridden: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			effective, resolveError := multipush.ResolveEffectiveConfig(testCase.repositoryName, global, overrides, registry)
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.repositoryName, effective.RepositoryName)
			require.Equal(testInstance, testCase.expectedPrimary, effective.PrimaryService)
			require.Equal(testInstance, testCase.expectedPush, effective.PushServices)
			require.Equal(testInstance, testCase.expectedOverridden, effective.Overridden)
		})
	}
}

func TestResolveEffectiveConfigRejectsInvalidSelections(testInstance *testing.T) {
	registry := newStubServiceLookup("github", "gitlab", "codeberg")

	testCases := []struct {
		name            string
		global          multipush.GlobalConfiguration
		overrides       map[string]multipush.Override
		expectedMessage string
	}{
		{
			name:            "primary_not_in_push_list",
			global:          multipush.GlobalConfiguration{PrimaryService: "gitlab", PushServices: []string{"github"}},
			expectedMessage: `primary service "gitlab" is not in push services [github]`,
		},
		{
			name:            "empty_push_list",
			global:          multipush.GlobalConfiguration{PrimaryService: "gitlab"},
			expectedMessage: "push service list is empty",
		},
		{
			name:            "override_empties_push_list",
			global:          multipush.GlobalConfiguration{PrimaryService: "gitlab", PushServices: []string{"gitlab"}},
			overrides:       map[string]multipush.Override{"demo": {PushServices: []string{}}},
			expectedMessage: "push service list is empty",
		},
		{
			name:            "empty_primary",
			global:          multipush.GlobalConfiguration{PushServices: []string{"github"}},
			expectedMessage: "primary service is not set",
		},
		{
			name:            "duplicate_push_service",
			global:          multipush.GlobalConfiguration{PrimaryService: "github", PushServices: []string{"github", "GitHub"}},
			expectedMessage: `push service "github" is listed more than once`,
		},
		{
			name:            "unregistered_service",
			global:          multipush.GlobalConfiguration{PrimaryService: "github", PushServices: []string{"github", "sourcehut"}},
			expectedMessage: `service "sourcehut" is not registered`,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, resolveError := multipush.ResolveEffectiveConfig("demo", testCase.global, testCase.overrides, registry)
			require.Error(testInstance, resolveError)
			require.Contains(testInstance, resolveError.Error(), testCase.expectedMessage)
			require.Equal(testInstance, shared.ErrorKindInvalidConfig, shared.KindOf(resolveError))

			var invalidConfig multipush.InvalidConfigError
			require.ErrorAs(testInstance, resolveError, &invalidConfig)
			require.Equal(testInstance, "demo", invalidConfig.Repository)
		})
	}
}

func TestReferencedServicesCollectsUniqueIdentifiers(testInstance *testing.T) {
	referenced := multipush.ReferencedServices(
		multipush.GlobalConfiguration{PrimaryService: "GitLab", PushServices: []string{"gitlab", "github"}},
		map[string]multipush.Override{
			"a": {PushServices: []string{"codeberg", " github "}},
			"b": {PrimaryService: "gitea-selfhosted"},
		},
	)
	require.Equal(testInstance, []string{"codeberg", "gitea-selfhosted", "github", "gitlab"}, referenced)
}

func TestEffectiveConfigDesiredServices(testInstance *testing.T) {
	effective := multipush.EffectiveConfig{PushServices: []string{"gitlab", "github"}}
	require.Equal(testInstance, map[string]struct{}{"gitlab": {}, "github": {}}, effective.DesiredServices())
}
