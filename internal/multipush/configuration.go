package multipush

import (
	"sort"
	"strings"
	"time"

	"github.com/temirov/multipush/internal/services"
)

const (
	userKeyConstant                        = "user"
	userUsernameKeyConstant                = "username"
	userEmailKeyConstant                   = "email"
	multiPushKeyConstant                   = "multi_push"
	primaryServiceKeyConstant              = "primary_service"
	pushServicesKeyConstant                = "push_services"
	repositoriesKeyConstant                = "repositories"
	scanPathsKeyConstant                   = "scan_paths"
	excludePatternsKeyConstant             = "exclude_patterns"
	migrationKeyConstant                   = "migration"
	createBackupsKeyConstant               = "create_backups"
	batchSizeKeyConstant                   = "batch_size"
	delayBetweenRepositoriesKeyConstant    = "delay_between_repos"
	stopOnFirstErrorKeyConstant            = "stop_on_first_error"
	maxRetriesKeyConstant                  = "max_retries"
	dryRunByDefaultKeyConstant             = "dry_run_by_default"
	advancedKeyConstant                    = "advanced"
	testConnectivityKeyConstant            = "test_connectivity"
	connectivityTimeoutKeyConstant         = "connectivity_timeout"
	gitTimeoutKeyConstant                  = "git_timeout"
	catalogKeyConstant                     = "catalog"
	defaultScanPathConstant                = "~/Code"
	defaultBatchSizeConstant               = 10
	defaultDelayBetweenRepositoriesSeconds = 1
	defaultMaxRetriesConstant              = 3
	defaultConnectivityTimeoutSeconds      = 10
	defaultGitTimeoutSeconds               = 30
	positiveValueMessageConstant           = "must be greater than zero"
	nonNegativeValueMessageConstant        = "must not be negative"
)

// UserConfiguration identifies the account rendered into service URLs.
type UserConfiguration struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
}

// GlobalConfiguration selects the primary and push services applied to every repository.
type GlobalConfiguration struct {
	PrimaryService string   `mapstructure:"primary_service"`
	PushServices   []string `mapstructure:"push_services"`
}

// Override replaces parts of the global selection for one repository.
// A nil PushServices leaves the global list in place.
type Override struct {
	PushServices   []string `mapstructure:"push_services"`
	PrimaryService string   `mapstructure:"primary_service"`
}

// RepositoriesConfiguration configures discovery and per-repository overrides.
type RepositoriesConfiguration struct {
	ScanPaths       []string            `mapstructure:"scan_paths"`
	ExcludePatterns []string            `mapstructure:"exclude_patterns"`
	Overrides       map[string]Override `mapstructure:"overrides"`
}

// MigrationConfiguration controls how remote changes are applied.
type MigrationConfiguration struct {
	CreateBackups     bool          `mapstructure:"create_backups"`
	BatchSize         int           `mapstructure:"batch_size"`
	DelayBetweenRepos time.Duration `mapstructure:"delay_between_repos"`
	StopOnFirstError  bool          `mapstructure:"stop_on_first_error"`
	MaxRetries        int           `mapstructure:"max_retries"`
	DryRunByDefault   bool          `mapstructure:"dry_run_by_default"`
}

// AdvancedConfiguration tunes git invocation and connectivity probing.
type AdvancedConfiguration struct {
	TestConnectivity    bool          `mapstructure:"test_connectivity"`
	ConnectivityTimeout time.Duration `mapstructure:"connectivity_timeout"`
	GitTimeout          time.Duration `mapstructure:"git_timeout"`
}

// Configuration is the complete multi-push configuration document.
type Configuration struct {
	Catalog      string                       `mapstructure:"catalog"`
	User         UserConfiguration            `mapstructure:"user"`
	MultiPush    GlobalConfiguration          `mapstructure:"multi_push"`
	Services     map[string]services.Settings `mapstructure:"services"`
	Repositories RepositoriesConfiguration    `mapstructure:"repositories"`
	Migration    MigrationConfiguration       `mapstructure:"migration"`
	Advanced     AdvancedConfiguration        `mapstructure:"advanced"`
}

// DefaultConfiguration returns baseline configuration values.
func DefaultConfiguration() Configuration {
	return Configuration{
		Repositories: RepositoriesConfiguration{
			ScanPaths:       []string{defaultScanPathConstant},
			ExcludePatterns: []string{},
			Overrides:       map[string]Override{},
		},
		Migration: MigrationConfiguration{
			CreateBackups:     true,
			BatchSize:         defaultBatchSizeConstant,
			DelayBetweenRepos: defaultDelayBetweenRepositoriesSeconds * time.Second,
			StopOnFirstError:  false,
			MaxRetries:        defaultMaxRetriesConstant,
			DryRunByDefault:   false,
		},
		Advanced: AdvancedConfiguration{
			TestConnectivity:    false,
			ConnectivityTimeout: defaultConnectivityTimeoutSeconds * time.Second,
			GitTimeout:          defaultGitTimeoutSeconds * time.Second,
		},
	}
}

// DefaultConfigurationValues produces Viper defaults joined with the loader's key delimiter.
func DefaultConfigurationValues(keyDelimiter string) map[string]any {
	defaults := DefaultConfiguration()
	joinKey := func(segments ...string) string {
		return strings.Join(segments, keyDelimiter)
	}
	return map[string]any{
		joinKey(catalogKeyConstant):                                        defaults.Catalog,
		joinKey(userKeyConstant, userUsernameKeyConstant):                  defaults.User.Username,
		joinKey(userKeyConstant, userEmailKeyConstant):                     defaults.User.Email,
		joinKey(multiPushKeyConstant, primaryServiceKeyConstant):           defaults.MultiPush.PrimaryService,
		joinKey(multiPushKeyConstant, pushServicesKeyConstant):             defaults.MultiPush.PushServices,
		joinKey(repositoriesKeyConstant, scanPathsKeyConstant):             defaults.Repositories.ScanPaths,
		joinKey(repositoriesKeyConstant, excludePatternsKeyConstant):       defaults.Repositories.ExcludePatterns,
		joinKey(migrationKeyConstant, createBackupsKeyConstant):            defaults.Migration.CreateBackups,
		joinKey(migrationKeyConstant, batchSizeKeyConstant):                defaults.Migration.BatchSize,
		joinKey(migrationKeyConstant, delayBetweenRepositoriesKeyConstant): defaults.Migration.DelayBetweenRepos,
		joinKey(migrationKeyConstant, stopOnFirstErrorKeyConstant):         defaults.Migration.StopOnFirstError,
		joinKey(migrationKeyConstant, maxRetriesKeyConstant):               defaults.Migration.MaxRetries,
		joinKey(migrationKeyConstant, dryRunByDefaultKeyConstant):          defaults.Migration.DryRunByDefault,
		joinKey(advancedKeyConstant, testConnectivityKeyConstant):          defaults.Advanced.TestConnectivity,
		joinKey(advancedKeyConstant, connectivityTimeoutKeyConstant):       defaults.Advanced.ConnectivityTimeout,
		joinKey(advancedKeyConstant, gitTimeoutKeyConstant):                defaults.Advanced.GitTimeout,
	}
}

// Validate rejects numeric settings that cannot drive a migration run.
func (configuration Configuration) Validate() error {
	if configuration.Migration.BatchSize <= 0 {
		return ConfigurationError{Key: migrationKeyConstant + "." + batchSizeKeyConstant, Message: positiveValueMessageConstant}
	}
	if configuration.Migration.MaxRetries < 0 {
		return ConfigurationError{Key: migrationKeyConstant + "." + maxRetriesKeyConstant, Message: nonNegativeValueMessageConstant}
	}
	if configuration.Migration.DelayBetweenRepos < 0 {
		return ConfigurationError{Key: migrationKeyConstant + "." + delayBetweenRepositoriesKeyConstant, Message: nonNegativeValueMessageConstant}
	}
	if configuration.Advanced.ConnectivityTimeout <= 0 {
		return ConfigurationError{Key: advancedKeyConstant + "." + connectivityTimeoutKeyConstant, Message: positiveValueMessageConstant}
	}
	if configuration.Advanced.GitTimeout <= 0 {
		return ConfigurationError{Key: advancedKeyConstant + "." + gitTimeoutKeyConstant, Message: positiveValueMessageConstant}
	}
	return nil
}

// ReferencedServices lists every service identifier named by the global selection and the overrides.
func ReferencedServices(global GlobalConfiguration, overrides map[string]Override) []string {
	unique := make(map[string]struct{})
	record := func(identifier string) {
		normalized := normalizeServiceIdentifier(identifier)
		if len(normalized) > 0 {
			unique[normalized] = struct{}{}
		}
	}

	record(global.PrimaryService)
	for _, identifier := range global.PushServices {
		record(identifier)
	}
	for _, override := range overrides {
		record(override.PrimaryService)
		for _, identifier := range override.PushServices {
			record(identifier)
		}
	}

	referenced := make([]string, 0, len(unique))
	for identifier := range unique {
		referenced = append(referenced, identifier)
	}
	sort.Strings(referenced)
	return referenced
}

func normalizeServiceIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
