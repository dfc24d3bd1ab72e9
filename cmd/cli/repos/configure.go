package repos

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/analyzer"
	"github.com/temirov/multipush/internal/migration"
	"github.com/temirov/multipush/internal/multipush"
	"github.com/temirov/multipush/internal/remotes"
	"github.com/temirov/multipush/internal/shared"
	pathutils "github.com/temirov/multipush/internal/utils/path"
)

const (
	configureUseConstant      = "configure"
	configureShortDescription = "Configure origin remotes to push to every selected service"
	configureLongDescription  = "configure rewrites the origin remote of each selected repository so that one git push reaches every configured service. Existing configuration is backed up first."
	// InitFlagNameConstant names the flag that writes a configuration template.
	InitFlagNameConstant             = "init"
	initFlagUsageConstant            = "Write a configuration template to --config (or ./multipush.yaml) and exit."
	forceFlagNameConstant            = "force"
	forceFlagUsageConstant           = "Overwrite an existing file with --init; apply changes even when dry_run_by_default is set."
	dryRunFlagNameConstant           = "dry-run"
	dryRunFlagUsageConstant          = "Report the changes without modifying any repository."
	configureOutputFlagUsageConstant = "Write the batch report as JSON to this path."
	defaultInitPathConstant          = "multipush.yaml"
	initFilePermissionsConstant      = 0o644
	initDirectoryPermissionsConstant = 0o755
	overwritePromptTemplateConstant  = "Configuration file %s exists. Overwrite? [y/N] "
	templateWrittenTemplateConstant  = "Configuration template written to %s\n"
	reportWrittenTemplateConstant    = "Batch report written to %s\n"
	templateWriteErrorTemplate       = "unable to write configuration template: %w"
	preparationFailedMessageConstant = "unable to prepare repository"
	configureStartedMessageConstant  = "configuring repositories"
	dryRunLogFieldConstant           = "dry_run"
	errorLogFieldConstant            = "error"
	errorKindLogFieldConstant        = "error_kind"
	repositoryPathLogFieldConstant   = "repository_path"
)

// ConfigureCommandBuilder assembles the configure command.
type ConfigureCommandBuilder struct {
	CommandDependencies
	ConfigurationFileProvider func() string
	TemplateProvider          func() []byte
	EnvironmentLookup         remotes.EnvironmentLookup
	PrompterFactory           PrompterFactory
	InteractivityDetector     InteractivityDetector
}

type configureOptions struct {
	initialize bool
	force      bool
	dryRun     bool
	format     string
	outputPath string
	selection  RepositorySelection
}

// Build constructs the configure command.
func (builder *ConfigureCommandBuilder) Build() (*cobra.Command, error) {
	options := &configureOptions{}
	command := &cobra.Command{
		Use:   configureUseConstant,
		Short: configureShortDescription,
		Long:  configureLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, *options)
		},
	}

	command.Flags().BoolVar(&options.initialize, InitFlagNameConstant, false, initFlagUsageConstant)
	command.Flags().BoolVar(&options.force, forceFlagNameConstant, false, forceFlagUsageConstant)
	command.Flags().BoolVar(&options.dryRun, dryRunFlagNameConstant, false, dryRunFlagUsageConstant)
	command.Flags().StringVar(&options.format, formatFlagNameConstant, string(analyzer.FormatSummary), formatFlagUsage())
	command.Flags().StringVar(&options.outputPath, outputFlagNameConstant, "", configureOutputFlagUsageConstant)
	bindSelectionFlags(command, &options.selection)

	return command, nil
}

func (builder *ConfigureCommandBuilder) run(command *cobra.Command, options configureOptions) error {
	if options.initialize {
		return builder.writeTemplate(command, options.force)
	}

	format, formatError := analyzer.ParseFormat(options.format)
	if formatError != nil {
		return UsageError{Message: formatError.Error()}
	}
	if options.selection.Empty() {
		return UsageError{Message: noRepositoriesSelectedMessage}
	}

	activeSession, sessionError := builder.openSession(command)
	if sessionError != nil {
		return sessionError
	}
	configuration := activeSession.configuration
	logger := activeSession.logger

	repositoryPaths, selectionError := resolveRepositoryPaths(logger, activeSession.discoverer, options.selection, configuration.Repositories.ScanPaths)
	if selectionError != nil {
		return selectionError
	}

	credentials := remotes.NewEnvironmentCredentialProvider(activeSession.registry, builder.EnvironmentLookup)
	composer, composerError := remotes.NewComposer(activeSession.registry, credentials, configuration.User.Username)
	if composerError != nil {
		return composerError
	}

	engine, engineError := migration.NewEngine(migration.EngineDependencies{
		Logger:        logger,
		RemoteManager: activeSession.manager,
		Backupper:     migration.NewConfigurationBackupper(activeSession.clock),
		Clock:         activeSession.clock,
		ProbeTimeout:  configuration.Advanced.ConnectivityTimeout,
	})
	if engineError != nil {
		return engineError
	}

	dryRun := options.dryRun || (configuration.Migration.DryRunByDefault && !options.force)
	logger.Info(configureStartedMessageConstant, zap.Int(repositoryCountLogFieldConstant, len(repositoryPaths)), zap.Bool(dryRunLogFieldConstant, dryRun))

	jobs := make([]migration.Job, 0, len(repositoryPaths))
	for _, repositoryPath := range repositoryPaths {
		jobs = append(jobs, prepareJob(logger, composer, activeSession.registry, configuration, repositoryPath))
	}

	report := engine.Run(command.Context(), jobs, migration.BatchOptions{
		ApplyOptions: migration.ApplyOptions{
			DryRun:           dryRun,
			CreateBackup:     configuration.Migration.CreateBackups,
			StopOnFirstError: configuration.Migration.StopOnFirstError,
			TestConnectivity: configuration.Advanced.TestConnectivity,
		},
		BatchSize:         configuration.Migration.BatchSize,
		DelayBetweenRepos: configuration.Migration.DelayBetweenRepos,
	})

	if renderError := renderBatchReport(command, report, format); renderError != nil {
		return renderError
	}

	if trimmedOutput := strings.TrimSpace(options.outputPath); len(trimmedOutput) > 0 {
		outputPath := pathutils.NewHomeExpander().Expand(trimmedOutput)
		if writeError := report.WriteFile(outputPath); writeError != nil {
			return writeError
		}
		if format != analyzer.FormatJSON {
			fmt.Fprintf(command.OutOrStdout(), reportWrittenTemplateConstant, outputPath)
		}
	}

	if report.HasFailures() {
		return RepositoryFailuresError{Failed: report.Counts.Failed, StopReason: report.StopReason}
	}
	return nil
}

func prepareJob(logger *zap.Logger, composer *remotes.Composer, lookup multipush.ServiceLookup, configuration multipush.Configuration, repositoryPath string) migration.Job {
	identity := shared.NewRepositoryIdentity(repositoryPath, nil)
	job := migration.Job{Identity: identity}

	effective, resolveError := multipush.ResolveEffectiveConfig(identity.Name, configuration.MultiPush, configuration.Repositories.Overrides, lookup)
	if resolveError == nil {
		job.Plan, resolveError = composer.BuildPlan(identity, effective)
	}
	if resolveError != nil {
		logger.Warn(
			preparationFailedMessageConstant,
			zap.String(repositoryPathLogFieldConstant, repositoryPath),
			zap.String(errorKindLogFieldConstant, string(shared.KindOf(resolveError))),
			zap.String(errorLogFieldConstant, shared.RedactURL(resolveError.Error())),
		)
		job.PreparationError = resolveError
	}
	return job
}

func renderBatchReport(command *cobra.Command, report migration.BatchReport, format analyzer.Format) error {
	switch format {
	case analyzer.FormatJSON:
		return report.WriteJSON(command.OutOrStdout())
	case analyzer.FormatDetailed:
		return report.WriteSummary(command.OutOrStdout(), true)
	default:
		return report.WriteSummary(command.OutOrStdout(), false)
	}
}

func (builder *ConfigureCommandBuilder) writeTemplate(command *cobra.Command, force bool) error {
	targetPath := defaultInitPathConstant
	if builder.ConfigurationFileProvider != nil {
		if provided := strings.TrimSpace(builder.ConfigurationFileProvider()); len(provided) > 0 {
			targetPath = pathutils.NewHomeExpander().Expand(provided)
		}
	}

	var template []byte
	if builder.TemplateProvider != nil {
		template = builder.TemplateProvider()
	}

	_, statError := os.Stat(targetPath)
	switch {
	case statError == nil && !force:
		if !builder.interactive(command) {
			return ConfigurationExistsError{Path: targetPath}
		}
		confirmed, promptError := resolvePrompter(builder.PrompterFactory, command).Confirm(fmt.Sprintf(overwritePromptTemplateConstant, targetPath))
		if promptError != nil {
			return promptError
		}
		if !confirmed {
			return ConfigurationExistsError{Path: targetPath}
		}
	case statError != nil && !errors.Is(statError, fs.ErrNotExist):
		return fmt.Errorf(templateWriteErrorTemplate, statError)
	}

	if directoryError := os.MkdirAll(filepath.Dir(targetPath), initDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(templateWriteErrorTemplate, directoryError)
	}
	if writeError := os.WriteFile(targetPath, template, initFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(templateWriteErrorTemplate, writeError)
	}

	fmt.Fprintf(command.OutOrStdout(), templateWrittenTemplateConstant, targetPath)
	return nil
}

func (builder *ConfigureCommandBuilder) interactive(command *cobra.Command) bool {
	if builder.InteractivityDetector != nil {
		return builder.InteractivityDetector(command)
	}
	return standardInputIsTerminal(command)
}
