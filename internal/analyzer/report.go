package analyzer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
)

const (
	reportFilePermissionsConstant   = 0o644
	jsonIndentConstant              = "  "
	tableMaxColumnWidthConstant     = 60
	topRecommendationLimitConstant  = 5
	unknownFormatTemplateConstant   = "unsupported format %q (expected summary, detailed or json)"
	reportWriteErrorTemplate        = "unable to write report %s: %w"
	summaryTitleConstant            = "REPOSITORY ANALYSIS SUMMARY"
	totalRepositoriesLabelConstant  = "Total repositories analyzed:"
	migrationNeededLabelConstant    = "Repositories needing migration:"
	multiPushLabelConstant          = "Repositories with multi-push:"
	totalSizeLabelConstant          = "Total size:"
	bucketsHeadingConstant          = "Buckets:"
	serviceUsageHeadingConstant     = "Service usage:"
	primaryServicesHeadingConstant  = "Primary services:"
	complexityHeadingConstant       = "Migration complexity:"
	recommendationsHeadingConstant  = "Top recommendations:"
	repositoriesHeadingConstant     = "Repositories:"
	indentConstant                  = "  "
	repositoryCountTemplateConstant = "%d repositories"
	serviceJoinSeparatorConstant    = ","
	recommendationJoinSeparator     = "; "
	emptyCellConstant               = "-"
	dirtyMarkerConstant             = "*"
)

// Format selects the rendering of a report.
type Format string

// Supported formats.
const (
	FormatSummary  Format = "summary"
	FormatDetailed Format = "detailed"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name; an empty name selects the summary.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatSummary:
		return FormatSummary, nil
	case FormatDetailed:
		return FormatDetailed, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf(unknownFormatTemplateConstant, name)
}

// Target records the global selection the repositories were compared against.
type Target struct {
	PrimaryService string   `json:"primary_service"`
	PushServices   []string `json:"push_services"`
}

// Summary aggregates statistics across analyzed repositories.
type Summary struct {
	TotalRepositories   int                `json:"total_repositories"`
	Buckets             map[Bucket]int     `json:"buckets"`
	MigrationNeeded     int                `json:"migration_needed"`
	HasMultiPush        int                `json:"has_multi_push"`
	ServiceUsage        map[string]int     `json:"services_usage"`
	PrimaryServices     map[string]int     `json:"primary_services"`
	ComplexityBreakdown map[Complexity]int `json:"complexity_breakdown"`
	Recommendations     map[string]int     `json:"recommendations_summary"`
	TotalSizeBytes      int64              `json:"total_size_bytes"`
}

// Report is the JSON-serializable result of an analysis run.
type Report struct {
	Summary      Summary              `json:"summary"`
	Repositories []RepositoryAnalysis `json:"repositories"`
	AnalyzedAt   time.Time            `json:"analyzed_at"`
	Target       Target               `json:"analyzer_config"`
}

// Summarize aggregates per-repository analyses.
func Summarize(analyses []RepositoryAnalysis) Summary {
	summary := Summary{
		TotalRepositories: len(analyses),
		Buckets:           map[Bucket]int{},
		ServiceUsage:      map[string]int{},
		PrimaryServices:   map[string]int{},
		ComplexityBreakdown: map[Complexity]int{
			ComplexitySimple:  0,
			ComplexityMedium:  0,
			ComplexityComplex: 0,
		},
		Recommendations: map[string]int{},
	}
	for _, analysis := range analyses {
		classification := analysis.Classification
		summary.Buckets[classification.Bucket]++
		summary.TotalSizeBytes += analysis.Status.GitSizeBytes
		if classification.Bucket == BucketUnreadable {
			continue
		}
		for _, service := range classification.CurrentServices {
			summary.ServiceUsage[service]++
		}
		if classification.NeedsMigration {
			summary.MigrationNeeded++
		}
		if classification.HasMultiPush {
			summary.HasMultiPush++
		}
		summary.ComplexityBreakdown[classification.MigrationComplexity]++
		if len(classification.PrimaryService) > 0 {
			summary.PrimaryServices[classification.PrimaryService]++
		}
		for _, recommendation := range classification.Recommendations {
			summary.Recommendations[recommendation]++
		}
	}
	return summary
}

// WriteReport persists the report as indented JSON.
func (report Report) WriteReport(filePath string) error {
	encoded, encodeError := json.MarshalIndent(report, "", jsonIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, filePath, encodeError)
	}
	if writeError := os.WriteFile(filePath, append(encoded, '\n'), reportFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, filePath, writeError)
	}
	return nil
}

// Render writes the report in the requested format.
func (report Report) Render(writer io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		return encoder.Encode(report)
	case FormatDetailed:
		if renderError := report.renderSummary(writer); renderError != nil {
			return renderError
		}
		return report.renderRepositories(writer)
	default:
		return report.renderSummary(writer)
	}
}

func (report Report) renderSummary(writer io.Writer) error {
	summary := report.Summary
	headline := uitable.New()
	headline.AddRow(totalRepositoriesLabelConstant, summary.TotalRepositories)
	headline.AddRow(migrationNeededLabelConstant, summary.MigrationNeeded)
	headline.AddRow(multiPushLabelConstant, summary.HasMultiPush)
	headline.AddRow(totalSizeLabelConstant, humanize.IBytes(uint64(summary.TotalSizeBytes)))

	sections := []string{summaryTitleConstant, headline.String()}

	bucketCounts := make(map[string]int, len(summary.Buckets))
	for bucket, count := range summary.Buckets {
		bucketCounts[string(bucket)] = count
	}
	sections = appendCountSection(sections, bucketsHeadingConstant, bucketCounts, 0)
	sections = appendCountSection(sections, serviceUsageHeadingConstant, summary.ServiceUsage, 0)
	sections = appendCountSection(sections, primaryServicesHeadingConstant, summary.PrimaryServices, 0)

	complexityTable := uitable.New()
	for _, complexity := range []Complexity{ComplexitySimple, ComplexityMedium, ComplexityComplex} {
		if count := summary.ComplexityBreakdown[complexity]; count > 0 {
			complexityTable.AddRow(indentConstant+string(complexity), fmt.Sprintf(repositoryCountTemplateConstant, count))
		}
	}
	if len(complexityTable.Rows) > 0 {
		sections = append(sections, complexityHeadingConstant, complexityTable.String())
	}
	sections = appendCountSection(sections, recommendationsHeadingConstant, summary.Recommendations, topRecommendationLimitConstant)

	_, writeError := fmt.Fprintln(writer, strings.Join(sections, "\n"))
	return writeError
}

func (report Report) renderRepositories(writer io.Writer) error {
	table := uitable.New()
	table.MaxColWidth = tableMaxColumnWidthConstant
	table.Wrap = true
	table.AddRow("REPOSITORY", "BUCKET", "PRIMARY", "CURRENT", "DESIRED", "COMPLEXITY", "BRANCH", "LAST COMMIT", "SIZE", "RECOMMENDATIONS")
	for _, analysis := range report.Repositories {
		classification := analysis.Classification
		branch := analysis.Status.CurrentBranch
		if analysis.Status.HasUncommittedChanges {
			branch += dirtyMarkerConstant
		}
		lastCommit := emptyCellConstant
		if analysis.Status.LastCommit != nil {
			lastCommit = humanize.RelTime(analysis.Status.LastCommit.Date, report.AnalyzedAt, "ago", "from now")
		}
		recommendations := strings.Join(classification.Recommendations, recommendationJoinSeparator)
		if len(analysis.Error) > 0 {
			recommendations = analysis.Error
		}
		table.AddRow(
			analysis.Path,
			string(classification.Bucket),
			orEmptyCell(classification.PrimaryService),
			orEmptyCell(strings.Join(classification.CurrentServices, serviceJoinSeparatorConstant)),
			orEmptyCell(strings.Join(classification.DesiredServices, serviceJoinSeparatorConstant)),
			string(classification.MigrationComplexity),
			orEmptyCell(branch),
			lastCommit,
			humanize.IBytes(uint64(analysis.Status.GitSizeBytes)),
			orEmptyCell(recommendations),
		)
	}
	_, writeError := fmt.Fprintf(writer, "\n%s\n%s\n", repositoriesHeadingConstant, table)
	return writeError
}

func appendCountSection(sections []string, heading string, counts map[string]int, limit int) []string {
	if len(counts) == 0 {
		return sections
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(first int, second int) bool {
		if counts[keys[first]] != counts[keys[second]] {
			return counts[keys[first]] > counts[keys[second]]
		}
		return keys[first] < keys[second]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	table := uitable.New()
	table.MaxColWidth = tableMaxColumnWidthConstant
	table.Wrap = true
	for _, key := range keys {
		table.AddRow(indentConstant+key, fmt.Sprintf(repositoryCountTemplateConstant, counts[key]))
	}
	return append(sections, "", heading, table.String())
}

func orEmptyCell(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return emptyCellConstant
	}
	return value
}
