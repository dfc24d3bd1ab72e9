package multipush_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/shared"
)

func TestDefaultConfigurationValuesUseDelimiter(testInstance *testing.T) {
	defaults := multipush.DefaultConfigurationValues("::")
	require.Equal(testInstance, true, defaults["migration::create_backups"])
	require.Equal(testInstance, 10, defaults["migration::batch_size"])
	require.Equal(testInstance, time.Second, defaults["migration::delay_between_repos"])
	require.Equal(testInstance, 30*time.Second, defaults["advanced::git_timeout"])
	require.Equal(testInstance, []string{"~/Code"}, defaults["repositories::scan_paths"])
	require.NotContains(testInstance, defaults, "migration.batch_size")
}

func TestConfigurationValidate(testInstance *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(*multipush.Configuration)
		expectedKey string
	}{
		{name: "defaults_valid", mutate: func(*multipush.Configuration) {}},
		{name: "zero_batch_size", mutate: func(configuration *multipush.Configuration) { configuration.Migration.BatchSize = 0 }, expectedKey: "migration.batch_size"},
		{name: "negative_retries", mutate: func(configuration *multipush.Configuration) { configuration.Migration.MaxRetries = -1 }, expectedKey: "migration.max_retries"},
		{name: "negative_delay", mutate: func(configuration *multipush.Configuration) { configuration.Migration.DelayBetweenRepos = -time.Second }, expectedKey: "migration.delay_between_repos"},
		{name: "zero_git_timeout", mutate: func(configuration *multipush.Configuration) { configuration.Advanced.GitTimeout = 0 }, expectedKey: "advanced.git_timeout"},
		{name: "zero_probe_timeout", mutate: func(configuration *multipush.Configuration) { configuration.Advanced.ConnectivityTimeout = 0 }, expectedKey: "advanced.connectivity_timeout"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configuration := multipush.DefaultConfiguration()
			testCase.mutate(&configuration)
			validationError := configuration.Validate()
			if len(testCase.expectedKey) == 0 {
				require.NoError(testInstance, validationError)
				return
			}
			var configurationError multipush.ConfigurationError
			require.ErrorAs(testInstance, validationError, &configurationError)
			require.Equal(testInstance, testCase.expectedKey, configurationError.Key)
			require.Equal(testInstance, shared.ErrorKindConfiguration, shared.KindOf(validationError))
		})
	}
}
