package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/multipush/cmd/cli/repos"
	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/utils"
	flagutils "github.com/temirov/multipush/internal/utils/flags"
)

const (
	applicationNameConstant                 = "multipush"
	applicationShortDescriptionConstant     = "Configure git remotes that push to several hosting services at once"
	applicationLongDescriptionConstant      = "multipush rewrites the origin remote of local repositories so that a single git push reaches GitHub, GitLab, Codeberg and other services, and reports which repositories still need migration."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Path to a configuration file (YAML)."
	presetFlagNameConstant                  = "preset"
	presetFlagUsageConstant                 = "Embedded preset applied beneath the configuration file."
	catalogFlagNameConstant                 = "catalog"
	catalogFlagUsageConstant                = "Path to a service catalog replacing the built-in one."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + utils.ConfigurationKeyDelimiterConstant + "log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + utils.ConfigurationKeyDelimiterConstant + "log_format"
	environmentPrefixConstant               = "MULTIPUSH"
	configurationNameConstant               = "multipush"
	configurationTypeConstant               = "yaml"
	presetLayerNamePrefixConstant           = "preset:"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLayersFieldConstant        = "layers"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationSearchPathConstant     = "$HOME/.config/multipush"
)

// ApplicationConfiguration is the full configuration tree: logging under common, multipush settings at the top level.
type ApplicationConfiguration struct {
	Common                  ApplicationCommonConfiguration `mapstructure:"common"`
	multipush.Configuration `mapstructure:",squash"`
}

// ApplicationCommonConfiguration holds the logging settings.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application owns the multipush root command and the state its subcommands share.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	presetName             string
	catalogPath            string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication builds the root command with configure and analyze attached.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, userConfigurationSearchPathConstant},
	)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.presetName, presetFlagNameConstant, "", flagutils.FormatChoiceUsage("", PresetNames(), presetFlagUsageConstant))
	cobraCommand.PersistentFlags().StringVar(&application.catalogPath, catalogFlagNameConstant, "", catalogFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flagutils.FormatChoiceUsage(
		string(utils.LogFormatStructured),
		[]string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)},
		logFormatFlagUsageConstant,
	))

	commandDependencies := repos.CommandDependencies{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() multipush.Configuration {
			return application.configuration.Configuration
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
	}

	configureBuilder := repos.ConfigureCommandBuilder{
		CommandDependencies: commandDependencies,
		ConfigurationFileProvider: func() string {
			return application.configurationFilePath
		},
		TemplateProvider: func() []byte {
			template, _ := EmbeddedDefaultConfiguration()
			return template
		},
	}
	configureCommand, configureBuildError := configureBuilder.Build()
	if configureBuildError == nil {
		cobraCommand.AddCommand(configureCommand)
	}

	analyzeBuilder := repos.AnalyzeCommandBuilder{CommandDependencies: commandDependencies}
	analyzeCommand, analyzeBuildError := analyzeBuilder.Build()
	if analyzeBuildError == nil {
		cobraCommand.AddCommand(analyzeCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command and flushes the logger afterwards.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute runs a new Application.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range multipush.DefaultConfigurationValues(utils.ConfigurationKeyDelimiterConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	application.configurationLoader.ResetEmbeddedLayers()
	if trimmedPreset := strings.TrimSpace(application.presetName); len(trimmedPreset) > 0 {
		presetContent, presetError := EmbeddedPreset(trimmedPreset)
		if presetError != nil {
			return presetError
		}
		application.configurationLoader.AddEmbeddedLayer(utils.ConfigurationLayer{
			Name: presetLayerNamePrefixConstant + strings.ToLower(trimmedPreset),
			Data: presetContent,
			Type: configurationTypeConstant,
		})
	}

	// configure --init writes the file named by --config, so it must not be required to exist yet.
	configurationFilePath := application.configurationFilePath
	if commandFlagChanged(command, repos.InitFlagNameConstant) {
		configurationFilePath = ""
	}

	application.configuration = ApplicationConfiguration{}
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return ConfigurationLoadError{Cause: fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)}
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, catalogFlagNameConstant) {
		application.configuration.Catalog = application.catalogPath
	}

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		logOutput(command),
	)
	if loggerCreationError != nil {
		return ConfigurationLoadError{Cause: fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)}
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Strings(configurationLayersFieldConstant, application.configurationMetadata.LayersApplied),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithLoadedConfiguration(command.Context(), application.configurationMetadata)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func commandFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flag := command.Flags().Lookup(flagName)
	return flag != nil && flag.Changed
}

func logOutput(command *cobra.Command) io.Writer {
	if command == nil {
		return nil
	}
	return command.ErrOrStderr()
}
