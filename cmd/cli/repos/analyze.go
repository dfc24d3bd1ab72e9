package repos

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/multipush/internal/analyzer"
	pathutils "github.com/temirov/multipush/internal/utils/path"
)

const (
	analyzeUseConstant             = "analyze"
	analyzeShortDescription        = "Report the remote configuration of local repositories"
	analyzeLongDescription         = "analyze inspects repositories without modifying them and classifies each one against the configured multi-push target. Without a selection every repository below the configured scan paths is analyzed."
	analyzeOutputFlagUsageConstant = "Write the analysis report as JSON to this path."
	analysisWrittenTemplate        = "Analysis report written to %s\n"
)

// AnalyzeCommandBuilder assembles the analyze command.
type AnalyzeCommandBuilder struct {
	CommandDependencies
}

type analyzeOptions struct {
	format     string
	outputPath string
	selection  RepositorySelection
}

// Build constructs the analyze command.
func (builder *AnalyzeCommandBuilder) Build() (*cobra.Command, error) {
	options := &analyzeOptions{}
	command := &cobra.Command{
		Use:   analyzeUseConstant,
		Short: analyzeShortDescription,
		Long:  analyzeLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, *options)
		},
	}

	command.Flags().StringVar(&options.format, formatFlagNameConstant, string(analyzer.FormatSummary), formatFlagUsage())
	command.Flags().StringVar(&options.outputPath, outputFlagNameConstant, "", analyzeOutputFlagUsageConstant)
	bindSelectionFlags(command, &options.selection)

	return command, nil
}

func (builder *AnalyzeCommandBuilder) run(command *cobra.Command, options analyzeOptions) error {
	format, formatError := analyzer.ParseFormat(options.format)
	if formatError != nil {
		return UsageError{Message: formatError.Error()}
	}

	activeSession, sessionError := builder.openSession(command)
	if sessionError != nil {
		return sessionError
	}
	configuration := activeSession.configuration

	selection := options.selection
	if selection.Empty() {
		selection.All = true
	}
	repositoryPaths, selectionError := resolveRepositoryPaths(activeSession.logger, activeSession.discoverer, selection, configuration.Repositories.ScanPaths)
	if selectionError != nil {
		return selectionError
	}

	repositoryAnalyzer, analyzerError := analyzer.NewAnalyzer(analyzer.Dependencies{
		Logger:    activeSession.logger,
		Inspector: activeSession.manager,
		Registry:  activeSession.registry,
		Global:    configuration.MultiPush,
		Overrides: configuration.Repositories.Overrides,
		Clock:     activeSession.clock,
	})
	if analyzerError != nil {
		return analyzerError
	}

	report := repositoryAnalyzer.Analyze(command.Context(), repositoryPaths)
	if renderError := report.Render(command.OutOrStdout(), format); renderError != nil {
		return renderError
	}

	if trimmedOutput := strings.TrimSpace(options.outputPath); len(trimmedOutput) > 0 {
		outputPath := pathutils.NewHomeExpander().Expand(trimmedOutput)
		if writeError := report.WriteReport(outputPath); writeError != nil {
			return writeError
		}
		if format != analyzer.FormatJSON {
			fmt.Fprintf(command.OutOrStdout(), analysisWrittenTemplate, outputPath)
		}
	}
	return nil
}
