package migration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/multipush/internal/remotes"
	"github.com/temirov/multipush/internal/shared"
)

const (
	batchStartedMessageConstant      = "processing batch"
	batchStoppedMessageConstant      = "batch stopped"
	batchCompletedMessageConstant    = "batch completed"
	batchNumberFieldNameConstant     = "batch"
	batchSizeFieldNameConstant       = "batch_size"
	remainingFieldNameConstant       = "remaining"
	reasonFieldNameConstant          = "reason"
	appliedFieldNameConstant         = "applied"
	skippedFieldNameConstant         = "skipped"
	dryRunFieldNameConstant          = "dry_run"
	failedFieldNameConstant          = "failed"
	defaultBatchSizeConstant         = 10
	stopReasonFirstErrorConstant     = "stop_on_first_error"
	stopReasonVerificationConstant   = "verification_failure"
	stopReasonContextCanceledMessage = "canceled"
)

// Job is one repository queued for migration. A non-nil PreparationError marks a
// repository whose configuration could not be resolved or composed.
type Job struct {
	Identity         shared.RepositoryIdentity
	Plan             remotes.RemotePlan
	PreparationError error
}

// BatchOptions controls a batch run.
type BatchOptions struct {
	ApplyOptions
	BatchSize         int
	DelayBetweenRepos time.Duration
}

// Run processes jobs strictly in order and waits DelayBetweenRepos between repositories.
// The run stops at the first failure when StopOnFirstError is set and always stops after a verification failure.
func (engine *Engine) Run(executionContext context.Context, jobs []Job, options BatchOptions) BatchReport {
	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSizeConstant
	}

	report := BatchReport{DryRun: options.DryRun, Results: make([]MigrationResult, 0, len(jobs))}
	for jobIndex, job := range jobs {
		if jobIndex%batchSize == 0 {
			engine.logger.Info(
				batchStartedMessageConstant,
				zap.Int(batchNumberFieldNameConstant, jobIndex/batchSize+1),
				zap.Int(batchSizeFieldNameConstant, batchSize),
				zap.Int(remainingFieldNameConstant, len(jobs)-jobIndex),
			)
		}

		if jobIndex > 0 {
			if waitError := engine.wait(executionContext, options.DelayBetweenRepos); waitError != nil {
				engine.stop(&report, jobs[jobIndex:], stopReasonContextCanceledMessage)
				break
			}
		}

		result := engine.process(executionContext, job, options.ApplyOptions)
		report.add(result)

		if result.Outcome != OutcomeFailed {
			continue
		}
		if result.ErrorKind == shared.ErrorKindVerificationFailure {
			engine.stop(&report, jobs[jobIndex+1:], stopReasonVerificationConstant)
			break
		}
		if options.StopOnFirstError {
			engine.stop(&report, jobs[jobIndex+1:], stopReasonFirstErrorConstant)
			break
		}
	}

	engine.logger.Info(
		batchCompletedMessageConstant,
		zap.Int(appliedFieldNameConstant, report.Counts.Applied),
		zap.Int(skippedFieldNameConstant, report.Counts.Skipped),
		zap.Int(dryRunFieldNameConstant, report.Counts.DryRun),
		zap.Int(failedFieldNameConstant, report.Counts.Failed),
	)
	return report
}

func (engine *Engine) process(executionContext context.Context, job Job, options ApplyOptions) MigrationResult {
	if job.PreparationError == nil {
		return engine.Apply(executionContext, job.Identity, job.Plan, options)
	}
	result := MigrationResult{RepositoryPath: job.Identity.Path, RepositoryName: job.Identity.Name}
	repositoryLogger := engine.logger.With(zap.String(repositoryPathFieldNameConstant, job.Identity.Path))
	return engine.fail(repositoryLogger, result, job.PreparationError)
}

func (engine *Engine) wait(executionContext context.Context, delay time.Duration) error {
	if contextError := executionContext.Err(); contextError != nil || delay <= 0 {
		return contextError
	}
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-engine.clock.After(delay):
		return nil
	}
}

func (engine *Engine) stop(report *BatchReport, remaining []Job, reason string) {
	report.Stopped = true
	report.StopReason = reason
	for _, job := range remaining {
		report.add(MigrationResult{RepositoryPath: job.Identity.Path, RepositoryName: job.Identity.Name, Outcome: OutcomeNotProcessed})
	}
	engine.logger.Warn(batchStoppedMessageConstant, zap.String(reasonFieldNameConstant, reason), zap.Int(remainingFieldNameConstant, len(remaining)))
}
