package migration

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gosuri/uitable"
)

const (
	summaryMaxColumnWidthConstant = 60
	reportFilePermissionsConstant = 0o644
	jsonIndentConstant            = "  "
	summaryHeaderRepository       = "REPOSITORY"
	summaryHeaderOutcome          = "OUTCOME"
	summaryHeaderDetail           = "DETAIL"
	summaryHeaderCount            = "COUNT"
	summaryTotalLabel             = "total"
	summaryStoppedTemplate        = "batch stopped early (%s)\n"
	summaryDryRunNotice           = "dry run: no repository was modified\n"
	detailFieldSeparator          = "; "
	detailBackupTemplate          = "backup %s"
	detailFetchTemplate           = "fetch -> %s"
	detailAddedTemplate           = "+push %s"
	detailRemovedTemplate         = "-push %s"
	detailReorderedLabel          = "push order"
	detailCreatesRemoteTemplate   = "create %s"
	detailUnreachableTemplate     = "unreachable %s"
	detailErrorTemplate           = "%s: %s"
	reportWriteErrorTemplate      = "unable to write report %s: %w"
)

// BatchCounts aggregates outcomes of a batch.
type BatchCounts struct {
	Total        int `json:"total"`
	Applied      int `json:"applied"`
	Skipped      int `json:"skipped"`
	DryRun       int `json:"dry_run"`
	Failed       int `json:"failed"`
	NotProcessed int `json:"not_processed"`
	BackedUp     int `json:"backed_up"`
}

// BatchReport collects per-repository results of a batch run.
type BatchReport struct {
	DryRun     bool              `json:"dry_run"`
	Stopped    bool              `json:"stopped"`
	StopReason string            `json:"stop_reason,omitempty"`
	Counts     BatchCounts       `json:"counts"`
	Results    []MigrationResult `json:"results"`
}

// HasFailures reports whether any repository failed.
func (report BatchReport) HasFailures() bool {
	return report.Counts.Failed > 0
}

func (report *BatchReport) add(result MigrationResult) {
	report.Results = append(report.Results, result)
	report.Counts.Total++
	if result.BackedUp() {
		report.Counts.BackedUp++
	}
	switch result.Outcome {
	case OutcomeApplied:
		report.Counts.Applied++
	case OutcomeSkipped:
		report.Counts.Skipped++
	case OutcomeSkippedDryRun:
		report.Counts.DryRun++
	case OutcomeFailed:
		report.Counts.Failed++
	case OutcomeNotProcessed:
		report.Counts.NotProcessed++
	}
}

// WriteSummary renders outcome counts and, when detailed, one row per repository.
func (report BatchReport) WriteSummary(writer io.Writer, detailed bool) error {
	if detailed {
		repositoryTable := uitable.New()
		repositoryTable.MaxColWidth = summaryMaxColumnWidthConstant
		repositoryTable.Wrap = true
		repositoryTable.AddRow(summaryHeaderRepository, summaryHeaderOutcome, summaryHeaderDetail)
		for _, result := range report.Results {
			repositoryTable.AddRow(result.RepositoryPath, string(result.Outcome), describeResult(result))
		}
		if _, writeError := fmt.Fprintln(writer, repositoryTable); writeError != nil {
			return writeError
		}
		if _, writeError := fmt.Fprintln(writer); writeError != nil {
			return writeError
		}
	}

	countTable := uitable.New()
	countTable.AddRow(summaryHeaderOutcome, summaryHeaderCount)
	countTable.AddRow(string(OutcomeApplied), report.Counts.Applied)
	countTable.AddRow(string(OutcomeSkipped), report.Counts.Skipped)
	countTable.AddRow(string(OutcomeSkippedDryRun), report.Counts.DryRun)
	countTable.AddRow(string(OutcomeFailed), report.Counts.Failed)
	if report.Counts.NotProcessed > 0 {
		countTable.AddRow(string(OutcomeNotProcessed), report.Counts.NotProcessed)
	}
	countTable.AddRow(summaryTotalLabel, report.Counts.Total)
	countTable.RightAlign(1)
	if _, writeError := fmt.Fprintln(writer, countTable); writeError != nil {
		return writeError
	}

	if report.DryRun {
		if _, writeError := fmt.Fprint(writer, summaryDryRunNotice); writeError != nil {
			return writeError
		}
	}
	if report.Stopped {
		if _, writeError := fmt.Fprintf(writer, summaryStoppedTemplate, report.StopReason); writeError != nil {
			return writeError
		}
	}
	return nil
}

// WriteJSON encodes the report as indented JSON.
func (report BatchReport) WriteJSON(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndentConstant)
	return encoder.Encode(report)
}

// WriteFile persists the report as JSON.
func (report BatchReport) WriteFile(filePath string) error {
	var builder strings.Builder
	if encodeError := report.WriteJSON(&builder); encodeError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, filePath, encodeError)
	}
	if writeError := os.WriteFile(filePath, []byte(builder.String()), reportFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, filePath, writeError)
	}
	return nil
}

func describeResult(result MigrationResult) string {
	var details []string
	if result.Outcome == OutcomeFailed {
		details = append(details, fmt.Sprintf(detailErrorTemplate, result.ErrorKind, result.ErrorMessage))
	}
	if result.Delta.CreatesRemote {
		details = append(details, fmt.Sprintf(detailCreatesRemoteTemplate, result.Plan.RemoteName))
	}
	if result.Delta.FetchChanged {
		details = append(details, fmt.Sprintf(detailFetchTemplate, result.Delta.FetchTo))
	}
	for _, added := range result.Delta.AddedPushURLs {
		details = append(details, fmt.Sprintf(detailAddedTemplate, added))
	}
	for _, removed := range result.Delta.RemovedPushURLs {
		details = append(details, fmt.Sprintf(detailRemovedTemplate, removed))
	}
	if result.Delta.Reordered {
		details = append(details, detailReorderedLabel)
	}
	if result.BackedUp() {
		details = append(details, fmt.Sprintf(detailBackupTemplate, result.BackupPath))
	}
	for _, unreachable := range result.ConnectivityWarnings {
		details = append(details, fmt.Sprintf(detailUnreachableTemplate, unreachable))
	}
	return strings.Join(details, detailFieldSeparator)
}
